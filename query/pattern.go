package query

import "github.com/wbrown/flakeql/datatype"

// Term is one slot of a triple pattern: a bound IRI/literal, a variable,
// or the special "_id"/"@id" self-reference, mirroring the teacher's
// PatternElement (Variable/Blank/Constant) generalized to the RDF term
// grammar.
type Term interface {
	IsVariable() bool
	String() string
}

// VarTerm is a where-clause variable occurrence.
type VarTerm struct {
	Var  VarID
	Name string
}

func (t VarTerm) IsVariable() bool { return true }
func (t VarTerm) String() string   { return t.Name }

// ConstTerm is a bound IRI or literal value.
type ConstTerm struct {
	Value datatype.TypedValue
}

func (t ConstTerm) IsVariable() bool { return false }
func (t ConstTerm) String() string   { return datatype.Serialize(t.Value) }

// Clause is anything that can appear in a where clause: a binding
// pattern (Tuple/Class/IRI/FullText) or a non-binding fence
// (Optional/Union/Minus/Exists/NotExists/Bind/Filter/Values/Graph/
// Service).
type Clause interface {
	clause()
	String() string
}

// Binding reports whether a clause type participates in the planner's
// reorderable prefix (true) or acts as a fence (false).
type Binding interface {
	Clause
	IsBindingPattern() bool
}

// TuplePattern is a 3- or 4-tuple triple pattern: subject, predicate,
// object, and an optional named-dataset term.
type TuplePattern struct {
	Dataset   Term // nil unless this is a 4-tuple named-dataset pattern
	Subject   Term
	Predicate Term
	Object    Term
	// Repeat is the "+n" property-path repetition count on Predicate; 0
	// means no repetition (ordinary triple pattern). -1 means unbounded
	// ("+" with no numeral is rejected at parse time, but a configured
	// default bound such as the legacy 100 can be substituted).
	Repeat int
	// InlineFilter is a single-variable filter the planner has pushed
	// onto this pattern's object slot, evaluated during the index scan
	// instead of as a separate downstream FilterPattern.
	InlineFilter *Expr
}

func (TuplePattern) clause()               {}
func (TuplePattern) IsBindingPattern() bool { return true }
func (p TuplePattern) String() string {
	return "[" + p.Subject.String() + " " + p.Predicate.String() + " " + p.Object.String() + "]"
}

// ClassPattern is a `rdf:type` pattern whose object names a class;
// execution expands the object to its transitive-subclass set.
type ClassPattern struct {
	Subject Term
	Class   Term
}

func (ClassPattern) clause()               {}
func (ClassPattern) IsBindingPattern() bool { return true }
func (p ClassPattern) String() string {
	return "[" + p.Subject.String() + " rdf:type " + p.Class.String() + "]"
}

// IRIPattern binds a variable to a subject's compacted "@id" without
// constraining any predicate.
type IRIPattern struct {
	Subject Term
}

func (IRIPattern) clause()               {}
func (IRIPattern) IsBindingPattern() bool { return true }
func (p IRIPattern) String() string      { return "[" + p.Subject.String() + " @id]" }

// FullTextPattern delegates to the external FullTextSearcher collaborator
// for a `fullText:<predicate-or-class>` pred-ref.
type FullTextPattern struct {
	Subject          Term
	PredicateOrClass string
	Query            string
}

func (FullTextPattern) clause()               {}
func (FullTextPattern) IsBindingPattern() bool { return true }
func (p FullTextPattern) String() string {
	return "[" + p.Subject.String() + " fullText:" + p.PredicateOrClass + " \"" + p.Query + "\"]"
}

// OptionalPattern is a left-join: Inner runs with the outer solution as
// seed, emitting the outer solution unchanged if Inner produces nothing.
type OptionalPattern struct {
	Inner []Clause
}

func (OptionalPattern) clause()               {}
func (OptionalPattern) IsBindingPattern() bool { return false }
func (p OptionalPattern) String() string       { return "{optional: " + String(p.Inner) + "}" }

// UnionPattern runs each branch independently against the incoming
// solution and concatenates the branches' outputs.
type UnionPattern struct {
	Branches [][]Clause
}

func (UnionPattern) clause()               {}
func (UnionPattern) IsBindingPattern() bool { return false }
func (p UnionPattern) String() string {
	s := "{union: ["
	for i, b := range p.Branches {
		if i > 0 {
			s += ", "
		}
		s += String(b)
	}
	return s + "]}"
}

// MinusPattern drops any incoming solution for which Inner has a match
// under the variables shared with the outer solution. FromSPARQL marks
// whether this pattern came from sparql.Translate. The FQL parser also
// builds MinusPattern values (with FromSPARQL false), and the executor
// rejects those with an Unsupported error instead of running them.
type MinusPattern struct {
	Inner      []Clause
	FromSPARQL bool
}

func (MinusPattern) clause()               {}
func (MinusPattern) IsBindingPattern() bool { return false }
func (p MinusPattern) String() string       { return "{minus: " + String(p.Inner) + "}" }

// ExistsPattern keeps an incoming solution iff Inner has any match.
type ExistsPattern struct {
	Inner []Clause
}

func (ExistsPattern) clause()               {}
func (ExistsPattern) IsBindingPattern() bool { return false }
func (p ExistsPattern) String() string       { return "{exists: " + String(p.Inner) + "}" }

// NotExistsPattern is ExistsPattern's dual.
type NotExistsPattern struct {
	Inner []Clause
}

func (NotExistsPattern) clause()               {}
func (NotExistsPattern) IsBindingPattern() bool { return false }
func (p NotExistsPattern) String() string       { return "{not-exists: " + String(p.Inner) + "}" }

// BindAssignment is one `var: expr` entry of a bind clause, evaluated in
// declared order; rebinding an already-bound variable is a parse/runtime
// error.
type BindAssignment struct {
	Var  VarID
	Name string
	Expr *Expr
}

// BindPattern extends each incoming solution with one or more computed
// bindings, evaluated left to right.
type BindPattern struct {
	Assignments []BindAssignment
}

func (BindPattern) clause()               {}
func (BindPattern) IsBindingPattern() bool { return false }
func (p BindPattern) String() string       { return "{bind: ...}" }

// FilterPattern drops solutions for which any expression evaluates to
// false or errors.
type FilterPattern struct {
	Exprs []*Expr
}

func (FilterPattern) clause()               {}
func (FilterPattern) IsBindingPattern() bool { return false }
func (p FilterPattern) String() string       { return "{filter: ...}" }

// ValuesRow is one inline-data row; a nil entry at a variable's position
// represents UNDEF, leaving that variable unbound in the cross-joined
// solution.
type ValuesRow []*datatype.TypedValue

// ValuesPattern cross-joins incoming solutions with inline data rows.
type ValuesPattern struct {
	Vars []VarID
	Rows []ValuesRow
}

func (ValuesPattern) clause()               {}
func (ValuesPattern) IsBindingPattern() bool { return false }
func (p ValuesPattern) String() string       { return "{values: ...}" }

// GraphPattern switches the snapshot used by Inner to a named dataset;
// if Name is a variable, Inner iterates over every federated dataset.
type GraphPattern struct {
	Name  Term
	Inner []Clause
}

func (GraphPattern) clause()               {}
func (GraphPattern) IsBindingPattern() bool { return false }
func (p GraphPattern) String() string      { return "{graph " + p.Name.String() + ": " + String(p.Inner) + "}" }

// ServicePattern federates Inner to a remote SPARQL endpoint; Silent
// swallows a failed remote call instead of propagating it.
type ServicePattern struct {
	Endpoint Term
	Silent   bool
	Inner    []Clause
}

func (ServicePattern) clause()               {}
func (ServicePattern) IsBindingPattern() bool { return false }
func (p ServicePattern) String() string       { return "{service: ...}" }

// String renders a where-clause slice for diagnostics (Explain, error
// messages); not intended to round-trip through the parser.
func String(clauses []Clause) string {
	out := "["
	for i, c := range clauses {
		if i > 0 {
			out += ", "
		}
		out += c.String()
	}
	return out + "]"
}

// BindingVars returns the set of variables a clause guarantees bound in
// every solution it emits: union intersects across branches;
// optional/exists/not-exists/minus leave the outer variables untouched
// (their Inner bindings are not guaranteed); graph passes through its
// nested bindings.
func BindingVars(c Clause) map[VarID]bool {
	switch p := c.(type) {
	case TuplePattern:
		out := map[VarID]bool{}
		addVar(out, p.Subject)
		addVar(out, p.Predicate)
		addVar(out, p.Object)
		return out
	case ClassPattern:
		out := map[VarID]bool{}
		addVar(out, p.Subject)
		addVar(out, p.Class)
		return out
	case IRIPattern:
		out := map[VarID]bool{}
		addVar(out, p.Subject)
		return out
	case FullTextPattern:
		out := map[VarID]bool{}
		addVar(out, p.Subject)
		return out
	case UnionPattern:
		var sets []map[VarID]bool
		for _, branch := range p.Branches {
			union := map[VarID]bool{}
			for _, bc := range branch {
				for v := range BindingVars(bc) {
					union[v] = true
				}
			}
			sets = append(sets, union)
		}
		return intersect(sets)
	case GraphPattern:
		out := map[VarID]bool{}
		for _, ic := range p.Inner {
			for v := range BindingVars(ic) {
				out[v] = true
			}
		}
		return out
	case BindPattern:
		out := map[VarID]bool{}
		for _, a := range p.Assignments {
			out[a.Var] = true
		}
		return out
	case ValuesPattern:
		out := map[VarID]bool{}
		for _, v := range p.Vars {
			out[v] = true
		}
		return out
	default:
		return map[VarID]bool{}
	}
}

func addVar(set map[VarID]bool, t Term) {
	if vt, ok := t.(VarTerm); ok {
		set[vt.Var] = true
	}
}

func intersect(sets []map[VarID]bool) map[VarID]bool {
	if len(sets) == 0 {
		return map[VarID]bool{}
	}
	out := map[VarID]bool{}
	for v := range sets[0] {
		inAll := true
		for _, s := range sets[1:] {
			if !s[v] {
				inAll = false
				break
			}
		}
		if inAll {
			out[v] = true
		}
	}
	return out
}

package query

// SelectMode distinguishes the four mutually-exclusive select forms.
type SelectMode int

const (
	SelectMany SelectMode = iota
	SelectOne
	SelectDistinct
	SelectReduced
)

// SelectElement is one entry of the projection list: a bare variable, an
// expression (optionally aggregate), or a select-map/subject-crawl tree.
type SelectElement struct {
	Var  VarID // set when this is a bare variable projection
	Expr *Expr // set when this is an expression or `as`-aliased expression
	Tree *SelectTree
}

// SelectTree is a `{variable: [predicate-or-nested-spec, ...]}`
// select-map specification driving the subject crawl.
type SelectTree struct {
	Var      VarID
	Wildcard bool // "*": every predicate of the subject
	Fields   []SelectField
}

// SelectField is one entry of a select-map's selection list: a bare
// predicate IRI, or a predicate paired with a nested tree for reference
// expansion.
type SelectField struct {
	Predicate string
	Nested    *SelectTree // non-nil when this predicate's value is itself expanded
	Reverse   bool        // "_predicate" reverse-reference form
}

// OrderByClause is one `(variable, direction)` sort key.
type OrderByClause struct {
	Var       VarID
	Direction OrderDirection
}

// OrderDirection is ascending or descending.
type OrderDirection int

const (
	Asc OrderDirection = iota
	Desc
)

// GroupBy partitions the solution stream by these variables' values.
type GroupBy struct {
	Vars []VarID
}

// InputSpec describes one `:in`-style declared input: the default
// dataset, a scalar, a collection, a tuple, or a relation, matching the
// teacher's DatabaseInput/ScalarInput/CollectionInput/TupleInput/
// RelationInput family (datalog/query/types.go) generalized to FQL's
// `vars` map.
type InputSpec interface {
	isInputSpec()
}

type ScalarInput struct{ Var VarID }
type CollectionInput struct{ Var VarID }
type TupleInput struct{ Vars []VarID }
type RelationInput struct{ Vars []VarID }

func (ScalarInput) isInputSpec()     {}
func (CollectionInput) isInputSpec() {}
func (TupleInput) isInputSpec()      {}
func (RelationInput) isInputSpec()   {}

// Context is an IRI-prefix compaction mapping applied at parse time to
// expand `@id`/predicate strings, and at output time to compact them
// back.
type Context map[string]string

// Options mirrors the query document's `opts`/`options` bag: maxFuel,
// meta envelope, output mode, federation/policy knobs.
type Options struct {
	ParseJSON       bool
	PrettyPrint     bool
	Component       bool
	MaxFuel         int64
	Meta            bool
	Output          string
	Identity        string
	Policy          string
	PolicyClass     string
	PolicyValues    []string
	ReasonerMethods []string
	RuleSources     []string
	From            string
	FromNamed       []string
	T               int64
}

// ParsedQuery is the fully-parsed, validated representation of an FQL
// query document (or the output of the SPARQL→FQL translator), the
// single type both the planner and executor consume.
type ParsedQuery struct {
	Vars *VarTable

	Select     []SelectElement
	SelectMode SelectMode

	Where   []Clause
	Filter  []*Expr // top-level filter clauses separate from where-embedded FilterPattern
	GroupBy *GroupBy
	// Aggregates holds top-level `{var: "#(...)"}` aggregate bindings:
	// these resolve against a post-grouping Group, not a per-solution
	// Solution, so they are kept separate from any where-embedded
	// BindPattern (whose expressions are always per-solution scalars).
	Aggregates []BindAssignment
	Having     []*Expr
	OrderBy    []OrderByClause

	Limit  *int64
	Offset int64
	Depth  int

	Context Context
	In      map[string]InputSpec
	Opts    Options
}

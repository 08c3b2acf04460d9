package query

import (
	"fmt"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/queryerr"
)

// Expr is a parsed filter/bind expression: either a leaf term or a
// function call over nested expressions, the generalization the design
// notes call for ("multi-arity polymorphic functions ... model as an
// enum of operations plus a generic apply(...) dispatching on datatype"),
// replacing the teacher's one-interface-type-per-operator Function
// hierarchy (ArithmeticFunction, ComparisonFunction, …) with a single
// tree type plus a name-keyed registry (see FunctionRegistry).
type Expr struct {
	// Leaf is set when this expression is a bound term (variable or
	// constant) rather than a function call.
	Leaf Term
	// Op is the function name ("strStarts", "+", "count", ...) when this
	// is a call node; empty for a leaf.
	Op   string
	Args []*Expr
	// As, when non-empty, is the projection alias this expression is
	// wrapped with: `(as (sum ?x) ?total)`.
	As string
}

// IsAggregate reports whether this expression (or, transitively, one of
// its arguments) invokes an aggregate function — used by the planner and
// postprocess pipeline to separate per-solution filters from per-group
// aggregate binding resolution.
func (e *Expr) IsAggregate() bool {
	if e == nil {
		return false
	}
	if _, ok := aggregateFunctions[e.Op]; ok {
		return true
	}
	for _, a := range e.Args {
		if a.IsAggregate() {
			return true
		}
	}
	return false
}

// RequiredVars returns every variable this expression reads, in
// left-to-right argument order, matching the teacher's
// RequiredSymbols-in-dependency-order contract.
func (e *Expr) RequiredVars() []VarID {
	if e == nil {
		return nil
	}
	if e.Leaf != nil {
		if vt, ok := e.Leaf.(VarTerm); ok {
			return []VarID{vt.Var}
		}
		return nil
	}
	var out []VarID
	for _, a := range e.Args {
		out = append(out, a.RequiredVars()...)
	}
	return out
}

func (e *Expr) String() string {
	if e.Leaf != nil {
		return e.Leaf.String()
	}
	s := "(" + e.Op
	for _, a := range e.Args {
		s += " " + a.String()
	}
	s += ")"
	if e.As != "" {
		return "(as " + s + " " + e.As + ")"
	}
	return s
}

// ScalarFunc is a pure, side-effect-free function over already-evaluated
// typed-value arguments, dispatching on datatype internally (e.g.
// strStarts only accepts strings; numeric comparisons accept every
// numeric datatype id).
type ScalarFunc func(args []datatype.TypedValue) (datatype.TypedValue, error)

// FunctionRegistry maps a function name to its scalar implementation. The
// parser does not check function names; an unknown name fails with an
// InvalidQuery error when the expression is evaluated.
type FunctionRegistry struct {
	scalars map[string]ScalarFunc
}

// NewFunctionRegistry creates a registry pre-populated with the
// built-in SPARQL scalar function set.
func NewFunctionRegistry() *FunctionRegistry {
	r := &FunctionRegistry{scalars: make(map[string]ScalarFunc)}
	registerBuiltins(r)
	return r
}

// Register adds or overrides a named scalar function.
func (r *FunctionRegistry) Register(name string, fn ScalarFunc) {
	r.scalars[name] = fn
}

// Lookup resolves a function name, returning ok=false for anything
// unknown (including aggregate names, which are resolved separately by
// the postprocess pipeline, not here).
func (r *FunctionRegistry) Lookup(name string) (ScalarFunc, bool) {
	fn, ok := r.scalars[name]
	return fn, ok
}

// EvalScalar evaluates e against a solution using the registry for
// function dispatch; Eval* callers are responsible for the
// per-clause-type error-degradation rules (filter errors exclude
// the solution, bind errors leave the target variable unbound).
func (r *FunctionRegistry) EvalScalar(e *Expr, sol Solution) (datatype.TypedValue, error) {
	if e.Leaf != nil {
		switch t := e.Leaf.(type) {
		case VarTerm:
			v, ok := sol.Get(t.Var)
			if !ok {
				return datatype.Undef, nil
			}
			return v, nil
		case ConstTerm:
			return t.Value, nil
		default:
			return datatype.Undef, fmt.Errorf("unsupported leaf term %T", t)
		}
	}

	fn, ok := r.Lookup(e.Op)
	if !ok {
		return datatype.Undef, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("unknown function %q", e.Op))
	}

	args := make([]datatype.TypedValue, len(e.Args))
	for i, a := range e.Args {
		v, err := r.EvalScalar(a, sol)
		if err != nil {
			return datatype.Undef, err
		}
		args[i] = v
	}
	return fn(args)
}

// EvalFilter evaluates e as a filter predicate: false or any error
// excludes the solution.
func (r *FunctionRegistry) EvalFilter(e *Expr, sol Solution) bool {
	v, err := r.EvalScalar(e, sol)
	if err != nil || v.IsUndef() {
		return false
	}
	b, ok := v.Value.(bool)
	return ok && b
}

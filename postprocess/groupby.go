// Package postprocess implements the nine-step result pipeline that runs
// after the where executor produces a solution stream: aggregate binding
// resolution, group-by, having, order-by, distinct, offset/limit,
// projection, select-map subject crawl, and IRI compaction.
// Grounded on the teacher's executor/aggregation.go (streaming group-by,
// aggregate function set) and query/aggregate.go (aggregate vocabulary),
// generalized to a broader aggregate vocabulary.
package postprocess

import (
	"fmt"
	"math"
	"sort"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// Group is one group-by partition: the group-key values plus every member
// solution, retained so aggregate/having/order-by can all read raw values.
type Group struct {
	Key     []datatype.TypedValue
	Members []query.Solution
}

// GroupBy partitions solutions by the tuple of values of the group
// variables, preserving first-seen group order (stable, matching the
// teacher's streaming aggregation order when input is already grouped).
// An empty groupVars list yields a single group containing every
// solution, the "aggregate with no group-by" case.
func GroupBy(solutions []query.Solution, groupVars []query.VarID) []*Group {
	if len(groupVars) == 0 {
		return []*Group{{Members: solutions}}
	}

	index := map[string]*Group{}
	var order []string
	for _, sol := range solutions {
		key := make([]datatype.TypedValue, len(groupVars))
		for i, v := range groupVars {
			if tv, ok := sol.Get(v); ok {
				key[i] = tv
			} else {
				key[i] = datatype.Undef
			}
		}
		k := groupKeyString(key)
		g, ok := index[k]
		if !ok {
			g = &Group{Key: key}
			index[k] = g
			order = append(order, k)
		}
		g.Members = append(g.Members, sol)
	}

	out := make([]*Group, 0, len(order))
	for _, k := range order {
		out = append(out, index[k])
	}
	return out
}

func groupKeyString(key []datatype.TypedValue) string {
	s := ""
	for _, tv := range key {
		s += datatype.Serialize(tv) + "\x1f" + tv.Datatype.String() + "\x1e"
	}
	return s
}

// ResolveAggregateBindings resolves every aggregate-valued bind
// assignment against each group, producing one solution per group that
// carries both the group-key variables (if any are also plain where
// variables) and the new aggregate pseudo-columns, performed after
// grouping since each aggregate becomes a pseudo-column computed
// per-group.
func ResolveAggregateBindings(groups []*Group, assignments []query.BindAssignment) ([]query.Solution, error) {
	out := make([]query.Solution, len(groups))
	for i, g := range groups {
		sol := representativeSolution(g)
		for _, a := range assignments {
			if !a.Expr.IsAggregate() {
				continue
			}
			v, err := EvalAggregate(a.Expr, g)
			if err != nil {
				return nil, err
			}
			sol = sol.Bind(a.Var, v)
		}
		out[i] = sol
	}
	return out, nil
}

// representativeSolution seeds a group's output solution with the first
// member's bindings (covers group-by variables and any functionally
// dependent column), matching SPARQL's "any value from the group" rule
// for non-aggregated, non-grouped-by projected variables.
func representativeSolution(g *Group) query.Solution {
	if len(g.Members) == 0 {
		return query.NewSolution()
	}
	return g.Members[0]
}

// EvalAggregate computes a single aggregate expression's value over a
// group's members, dispatching on the expression's Op per the extended
// aggregate set: count, sum, avg, min, max, sample, groupconcat, median,
// variance, stddev, count-distinct.
func EvalAggregate(e *query.Expr, g *Group) (datatype.TypedValue, error) {
	if len(e.Args) == 0 {
		return datatype.Undef, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("aggregate %q requires an argument", e.Op))
	}
	varExpr := e.Args[0]
	distinct := false
	if varExpr.Op == "distinct" && len(varExpr.Args) == 1 {
		varExpr, distinct = varExpr.Args[0], true
	}

	values := make([]datatype.TypedValue, 0, len(g.Members))
	seen := map[string]bool{}
	for _, sol := range g.Members {
		vt, ok := varExpr.Leaf.(query.VarTerm)
		if !ok {
			return datatype.Undef, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("aggregate %q argument must be a variable", e.Op))
		}
		if v, ok := sol.Get(vt.Var); ok && !v.IsUndef() {
			if distinct {
				if k := datatype.Serialize(v); seen[k] {
					continue
				} else {
					seen[k] = true
				}
			}
			values = append(values, v)
		}
	}

	switch e.Op {
	case "count":
		if len(g.Members) == 0 {
			return datatype.New(int64(0), datatype.Integer), nil
		}
		return datatype.New(int64(len(values)), datatype.Integer), nil
	case "count-distinct":
		seen := map[string]bool{}
		n := 0
		for _, v := range values {
			k := datatype.Serialize(v)
			if !seen[k] {
				seen[k] = true
				n++
			}
		}
		return datatype.New(int64(n), datatype.Integer), nil
	case "sum":
		return sumValues(values), nil
	case "avg":
		return avgValues(values), nil
	case "min":
		return extremum(values, -1), nil
	case "max":
		return extremum(values, 1), nil
	case "sample":
		if len(values) == 0 {
			return datatype.Undef, nil
		}
		return values[0], nil
	case "groupconcat":
		sep := ""
		if len(e.Args) > 1 && e.Args[1].Leaf != nil {
			if ct, ok := e.Args[1].Leaf.(query.ConstTerm); ok {
				sep, _ = ct.Value.Value.(string)
			}
		}
		return groupConcat(values, sep), nil
	case "median":
		return median(values), nil
	case "variance":
		return variance(values, false), nil
	case "stddev":
		return variance(values, true), nil
	default:
		return datatype.Undef, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("unknown aggregate %q", e.Op))
	}
}

func toFloat(tv datatype.TypedValue) (float64, bool) {
	switch v := tv.Value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func sumValues(values []datatype.TypedValue) datatype.TypedValue {
	if len(values) == 0 {
		return datatype.New(int64(0), datatype.Integer)
	}
	var total float64
	allInt := true
	for _, v := range values {
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		if _, isInt := v.Value.(int64); !isInt {
			allInt = false
		}
		total += f
	}
	if allInt {
		return datatype.New(int64(total), datatype.Integer)
	}
	return datatype.New(total, datatype.Double)
}

func avgValues(values []datatype.TypedValue) datatype.TypedValue {
	if len(values) == 0 {
		return datatype.Undef
	}
	var total float64
	for _, v := range values {
		f, _ := toFloat(v)
		total += f
	}
	return datatype.New(total/float64(len(values)), datatype.Double)
}

func extremum(values []datatype.TypedValue, dir int) datatype.TypedValue {
	if len(values) == 0 {
		return datatype.Undef
	}
	best := values[0]
	for _, v := range values[1:] {
		if datatype.Compare(v, best)*dir > 0 {
			best = v
		}
	}
	return best
}

func groupConcat(values []datatype.TypedValue, sep string) datatype.TypedValue {
	s := ""
	for i, v := range values {
		if i > 0 {
			s += sep
		}
		s += datatype.Serialize(v)
	}
	return datatype.New(s, datatype.String)
}

func median(values []datatype.TypedValue) datatype.TypedValue {
	if len(values) == 0 {
		return datatype.Undef
	}
	floats := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat(v); ok {
			floats = append(floats, f)
		}
	}
	sort.Float64s(floats)
	n := len(floats)
	if n == 0 {
		return datatype.Undef
	}
	if n%2 == 1 {
		return datatype.New(floats[n/2], datatype.Double)
	}
	return datatype.New((floats[n/2-1]+floats[n/2])/2, datatype.Double)
}

func variance(values []datatype.TypedValue, stddev bool) datatype.TypedValue {
	if len(values) == 0 {
		return datatype.Undef
	}
	var mean float64
	floats := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat(v); ok {
			floats = append(floats, f)
			mean += f
		}
	}
	if len(floats) == 0 {
		return datatype.Undef
	}
	mean /= float64(len(floats))
	var sq float64
	for _, f := range floats {
		d := f - mean
		sq += d * d
	}
	v := sq / float64(len(floats))
	if stddev {
		v = math.Sqrt(v)
	}
	return datatype.New(v, datatype.Double)
}

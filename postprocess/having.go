package postprocess

import "github.com/wbrown/flakeql/query"

// Having filters a post-aggregate-resolution solution stream by a
// predicate over aggregates: each expression is evaluated
// once per group against that group's resolved solution (which already
// carries the aggregate pseudo-columns bound by ResolveAggregateBindings).
func Having(resolved []query.Solution, funcs *query.FunctionRegistry, exprs []*query.Expr) []query.Solution {
	if len(exprs) == 0 {
		return resolved
	}
	var kept []query.Solution
	for _, sol := range resolved {
		pass := true
		for _, e := range exprs {
			if !funcs.EvalFilter(e, sol) {
				pass = false
				break
			}
		}
		if pass {
			kept = append(kept, sol)
		}
	}
	return kept
}

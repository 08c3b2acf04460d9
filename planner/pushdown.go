package planner

import "github.com/wbrown/flakeql/query"

// inlineAndPushdownFilters implements filter pushdown: a
// top-level filter is pushable into a nested clause (exists, not-exists,
// minus, graph, or every branch of a union) iff every variable it
// references is guaranteed bound inside that clause; optional is opaque
// to pushdown since that would change left-join semantics. A
// single-variable filter is additionally inlined onto the pattern that
// first binds that variable, as an object filter evaluated during the
// index scan.
func inlineAndPushdownFilters(where []query.Clause, topLevel []*query.Expr) []query.Clause {
	bound := map[query.VarID]bool{}
	var residual []*query.Expr
	remaining := append([]*query.Expr{}, topLevel...)

	out := make([]query.Clause, 0, len(where))
	for _, c := range where {
		for v := range query.BindingVars(c) {
			bound[v] = true
		}

		if inlined, ok := tryInline(c, remaining); ok {
			out = append(out, inlined)
		} else {
			out = append(out, c)
		}

		remaining = partitionPushable(remaining, c, bound, &out)
	}

	residual = remaining
	if len(residual) > 0 {
		out = append(out, query.FilterPattern{Exprs: residual})
	}
	return out
}

// tryInline attaches a single-variable filter directly to the pattern
// that binds its sole referenced variable, returning the rewritten
// pattern and true on success.
func tryInline(c query.Clause, filters []*query.Expr) (query.Clause, bool) {
	tp, ok := c.(query.TuplePattern)
	if !ok {
		return c, false
	}
	objVar, ok := tp.Object.(query.VarTerm)
	if !ok {
		return c, false
	}
	for _, f := range filters {
		vars := f.RequiredVars()
		if len(vars) == 1 && vars[0] == objVar.Var {
			// Found a single-variable filter on this pattern's object;
			// the executor consults InlineFilter during the index scan.
			tp.InlineFilter = f
			return tp, true
		}
	}
	return c, false
}

// partitionPushable pushes any fully-bound-inside filter into clause c
// when c is a nested-clause form (exists/not-exists/minus/graph/union),
// removing it from the remaining top-level filter set.
func partitionPushable(remaining []*query.Expr, c query.Clause, bound map[query.VarID]bool, out *[]query.Clause) []*query.Expr {
	pushInto := func(inner []query.Clause) []query.Clause {
		innerBound := map[query.VarID]bool{}
		for _, ic := range inner {
			for v := range query.BindingVars(ic) {
				innerBound[v] = true
			}
		}
		var kept []query.Clause
		var stillRemaining []*query.Expr
		for _, f := range remaining {
			allBound := true
			for _, v := range f.RequiredVars() {
				if !innerBound[v] && !bound[v] {
					allBound = false
					break
				}
			}
			if allBound {
				kept = append(kept, query.FilterPattern{Exprs: []*query.Expr{f}})
			} else {
				stillRemaining = append(stillRemaining, f)
			}
		}
		remaining = stillRemaining
		return append(inner, kept...)
	}

	switch p := c.(type) {
	case query.ExistsPattern:
		newInner := pushInto(p.Inner)
		replaceLast(out, query.ExistsPattern{Inner: newInner})
	case query.NotExistsPattern:
		newInner := pushInto(p.Inner)
		replaceLast(out, query.NotExistsPattern{Inner: newInner})
	case query.MinusPattern:
		newInner := pushInto(p.Inner)
		replaceLast(out, query.MinusPattern{Inner: newInner, FromSPARQL: p.FromSPARQL})
	case query.GraphPattern:
		newInner := pushInto(p.Inner)
		replaceLast(out, query.GraphPattern{Name: p.Name, Inner: newInner})
	case query.UnionPattern:
		start := remaining
		left := map[*query.Expr]bool{}
		newBranches := make([][]query.Clause, len(p.Branches))
		for i, b := range p.Branches {
			remaining = start
			newBranches[i] = pushInto(b)
			for _, f := range remaining {
				left[f] = true
			}
		}
		remaining = nil
		for _, f := range start {
			if left[f] {
				remaining = append(remaining, f)
			}
		}
		replaceLast(out, query.UnionPattern{Branches: newBranches})
	}
	return remaining
}

func replaceLast(out *[]query.Clause, c query.Clause) {
	if len(*out) == 0 {
		*out = append(*out, c)
		return
	}
	(*out)[len(*out)-1] = c
}

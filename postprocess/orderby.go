package postprocess

import (
	"sort"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/query"
)

// OrderBy stable-sorts solutions by the given (variable, direction) keys,
// using datatype.Compare's datatype-aware comparator.
func OrderBy(solutions []query.Solution, clauses []query.OrderByClause) []query.Solution {
	if len(clauses) == 0 {
		return solutions
	}
	out := make([]query.Solution, len(solutions))
	copy(out, solutions)
	sort.SliceStable(out, func(i, j int) bool {
		for _, c := range clauses {
			a, aok := out[i].Get(c.Var)
			b, bok := out[j].Get(c.Var)
			if !aok {
				a = datatype.Undef
			}
			if !bok {
				b = datatype.Undef
			}
			cmp := datatype.Compare(a, b)
			if c.Direction == query.Desc {
				cmp = -cmp
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return out
}

// Distinct deduplicates solutions by the projected tuple, preserving first
// occurrence order. projectVars is the select-list's bare
// variables; an empty list dedups on every bound variable.
func Distinct(solutions []query.Solution, projectVars []query.VarID) []query.Solution {
	seen := map[string]bool{}
	var out []query.Solution
	for _, sol := range solutions {
		key := distinctKey(sol, projectVars)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sol)
	}
	return out
}

func distinctKey(sol query.Solution, vars []query.VarID) string {
	ids := vars
	if len(ids) == 0 {
		ids = sol.Vars()
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	key := ""
	for _, v := range ids {
		tv, ok := sol.Get(v)
		if !ok {
			tv = datatype.Undef
		}
		key += datatype.Serialize(tv) + "\x1f" + tv.Datatype.String() + "\x1e"
	}
	return key
}

// OffsetLimit applies offset then limit over an ordered stream.
func OffsetLimit(solutions []query.Solution, offset int64, limit *int64) []query.Solution {
	if offset > 0 {
		if int64(len(solutions)) <= offset {
			return nil
		}
		solutions = solutions[offset:]
	}
	if limit != nil && int64(len(solutions)) > *limit {
		solutions = solutions[:*limit]
	}
	return solutions
}

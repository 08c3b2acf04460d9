package executor

import (
	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/query"
)

// SubjectCrawl runs the fast path used when every where tuple
// shares the same subject variable and the select is a single variable
// with a nested selection: stream the most selective pattern's subject
// ids, filter the rest in-memory against each candidate's full spot
// slice, then apply offset/limit. Returns the surviving subject ids in
// index order; the caller (postprocess) performs the select-tree
// expansion.
func (e *Executor) SubjectCrawl(where []query.Clause, crawlVar query.VarID, offset int64, limit *int64) ([]flake.Subject, error) {
	if len(where) == 0 {
		return nil, nil
	}

	lead := where[0]
	candidates, leadConstraint, err := e.leadSubjects(lead)
	if err != nil {
		return nil, err
	}

	var surviving []flake.Subject
	for _, s := range candidates {
		slice, err := e.subjectSlice(s)
		if err != nil {
			return nil, err
		}
		if leadConstraint != nil && !leadConstraint(slice) {
			continue
		}
		ok := true
		for _, c := range where[1:] {
			if !matchesBySlice(c, slice) {
				ok = false
				break
			}
		}
		if ok {
			surviving = append(surviving, s)
		}
	}

	if offset > 0 {
		if int64(len(surviving)) <= offset {
			return nil, nil
		}
		surviving = surviving[offset:]
	}
	if limit != nil && int64(len(surviving)) > *limit {
		surviving = surviving[:*limit]
	}
	return surviving, nil
}

// leadSubjects returns the distinct subjects matching the lead pattern's
// predicate and object slots, choosing the scan by whichever slot is
// bound. The object constraint is applied by ResolveFlakeRange itself, so
// the second result (an in-memory flake check) is always nil.
func (e *Executor) leadSubjects(c query.Clause) ([]flake.Subject, func([]flake.Flake) bool, error) {
	tp, ok := c.(query.TuplePattern)
	if !ok {
		return nil, nil, nil
	}
	pat := &index.Pattern{
		P: e.resolveTermSlot(tp.Predicate, query.NewSolution(), posPredicate),
		O: e.resolveTermSlot(tp.Object, query.NewSolution(), posObject),
	}
	flakes, err := index.ResolveFlakeRange(e.Snapshot, pat)
	if err != nil {
		return nil, nil, err
	}
	seen := map[string]bool{}
	var out []flake.Subject
	for _, f := range flakes {
		key := string(f.S.Bytes())
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f.S)
	}
	return out, nil, nil
}

// subjectSlice fetches a subject's full spot slice once.
func (e *Executor) subjectSlice(s flake.Subject) ([]flake.Flake, error) {
	pat := &index.Pattern{S: index.BoundValue(s)}
	return index.ResolveFlakeRange(e.Snapshot, pat)
}

// matchesBySlice checks that at least one flake in slice matches
// pattern c's (predicate, object) constraint, the in-memory predicate
// filter step of the crawl.
func matchesBySlice(c query.Clause, slice []flake.Flake) bool {
	tp, ok := c.(query.TuplePattern)
	if !ok {
		return true
	}
	predIRI, predBound := constString(tp.Predicate)
	objTV, objBound := constTyped(tp.Object)

	for _, f := range slice {
		if predBound && f.P.String() != predIRI {
			continue
		}
		if objBound && !datatype.Equal(f.O, objTV) {
			continue
		}
		return true
	}
	return false
}

func constString(t query.Term) (string, bool) {
	ct, ok := t.(query.ConstTerm)
	if !ok {
		return "", false
	}
	s, ok := ct.Value.Value.(string)
	return s, ok
}

func constTyped(t query.Term) (datatype.TypedValue, bool) {
	ct, ok := t.(query.ConstTerm)
	if !ok {
		return datatype.TypedValue{}, false
	}
	return ct.Value, true
}

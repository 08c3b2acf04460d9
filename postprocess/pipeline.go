package postprocess

import (
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/query"
)

// Result is the final output of the post-processing pipeline: either
// tuple rows (ordinary select) or crawled documents (select-map/subject
// crawl), never both.
type Result struct {
	Rows      []Row
	Documents []Document
}

// Run executes the full nine-step post-processing pipeline over a
// materialized solution stream, in the exact documented order: group-by
// happens first in data-flow terms so aggregate binding resolution has
// groups to resolve against, then having, order-by, distinct,
// offset/limit, projection, select-map crawl, and compaction.
func Run(snap *index.Snapshot, q *query.ParsedQuery, funcs *query.FunctionRegistry, solutions []query.Solution) (*Result, error) {
	// Grouping (and the aggregate-binding resolution that depends on it)
	// only applies when the query actually asks for it: a plain select
	// with neither group-by nor aggregates must keep one row per
	// solution, not collapse to a single implicit group.
	resolved := solutions
	if q.GroupBy != nil || len(q.Aggregates) > 0 {
		var groupVars []query.VarID
		if q.GroupBy != nil {
			groupVars = q.GroupBy.Vars
		}
		groups := GroupBy(solutions, groupVars)
		var err error
		resolved, err = ResolveAggregateBindings(groups, q.Aggregates)
		if err != nil {
			return nil, err
		}
	}

	resolved = Having(resolved, funcs, q.Having)

	resolved = OrderBy(resolved, q.OrderBy)

	if q.SelectMode == query.SelectDistinct || q.SelectMode == query.SelectReduced {
		resolved = Distinct(resolved, projectionVars(q.Select))
	}

	if q.SelectMode == query.SelectOne {
		one := int64(1)
		resolved = OffsetLimit(resolved, q.Offset, &one)
	} else {
		resolved = OffsetLimit(resolved, q.Offset, q.Limit)
	}

	if hasSelectTree(q.Select) {
		docs, err := crawlSelect(snap, q, resolved)
		if err != nil {
			return nil, err
		}
		return &Result{Documents: docs}, nil
	}

	rows, err := Project(q.Vars, resolved, funcs, q.Select)
	if err != nil {
		return nil, err
	}
	if q.Context != nil {
		for i := range rows {
			for j, v := range rows[i].Values {
				if s, ok := v.Value.(string); ok {
					rows[i].Values[j].Value = Compact(s, q.Context)
				}
			}
		}
	}
	return &Result{Rows: rows}, nil
}

func projectionVars(elements []query.SelectElement) []query.VarID {
	var out []query.VarID
	for _, el := range elements {
		if el.Expr == nil && el.Tree == nil {
			out = append(out, el.Var)
		}
	}
	return out
}

func hasSelectTree(elements []query.SelectElement) bool {
	for _, el := range elements {
		if el.Tree != nil {
			return true
		}
	}
	return false
}

// crawlSelect expands every select-map element for every surviving
// solution into a JSON-LD-style document, compacting IRIs per the
// query context.
func crawlSelect(snap *index.Snapshot, q *query.ParsedQuery, solutions []query.Solution) ([]Document, error) {
	var docs []Document
	for _, sol := range solutions {
		for _, el := range q.Select {
			if el.Tree == nil {
				continue
			}
			v, ok := sol.Get(el.Tree.Var)
			if !ok {
				continue
			}
			subj, ok := v.Value.(flake.Subject)
			if !ok {
				continue
			}
			doc, err := Crawl(snap, subj, el.Tree, 0, q.Depth)
			if err != nil {
				return nil, err
			}
			if q.Context != nil {
				doc = CompactDocument(doc, q.Context)
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

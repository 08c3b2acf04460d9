// Package planner reorders and rewrites a parsed where clause before
// execution: contiguous-prefix pattern reordering by selectivity, filter
// pushdown/inlining, and simple-subject-crawl recognition, grounded on
// the teacher's datalog/planner package (phase_reordering.go's
// greedy-relatedness reordering, simplified to a fence-segmented
// contiguous-prefix rule; predicate_rewriter.go for pushdown).
package planner

import (
	"sort"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/query"
)

// Optimizable is re-exported for planner callers that only need the
// selectivity capability.
type Optimizable = index.Optimizable

// PlannerOptions configures the planner, mirroring the teacher's
// PlannerOptions (planner/types.go).
type PlannerOptions struct {
	EnableReordering     bool
	EnableFilterPushdown bool
	EnableSubjectCrawl   bool
}

// DefaultPlannerOptions returns the options used when a caller does not
// override them.
func DefaultPlannerOptions() PlannerOptions {
	return PlannerOptions{EnableReordering: true, EnableFilterPushdown: true, EnableSubjectCrawl: true}
}

// Plan is the realized, executable plan for a parsed query: its where
// clause reordered and filters pushed down, plus whether it qualifies
// for the simple-subject-crawl fast path.
type Plan struct {
	Where        []query.Clause
	SubjectCrawl bool
	CrawlVar     query.VarID
}

// Planner turns a parsed query into a Plan using a snapshot's
// Optimizable capability for selectivity-driven reordering.
type Planner struct {
	opts PlannerOptions
	opt  Optimizable
}

// New creates a planner bound to a snapshot's selectivity estimator.
func New(opt Optimizable, opts PlannerOptions) *Planner {
	return &Planner{opt: opt, opts: opts}
}

// Plan produces an executable plan for q.
func (p *Planner) Plan(q *query.ParsedQuery) (*Plan, error) {
	where := q.Where
	if p.opts.EnableFilterPushdown {
		where = inlineAndPushdownFilters(where, q.Filter)
	}
	if p.opts.EnableReordering {
		where = reorderWithFences(where, p.opt)
	}

	plan := &Plan{Where: where}
	if p.opts.EnableSubjectCrawl {
		if v, ok := recognizeSubjectCrawl(q, where); ok {
			plan.SubjectCrawl = true
			plan.CrawlVar = v
		}
	}
	return plan, nil
}

// reorderWithFences implements the pattern-reorder rule: only the
// contiguous prefix of binding patterns (TuplePattern/ClassPattern/
// IRIPattern/FullTextPattern) is reordered by selectivity; a non-binding
// clause (optional/filter/bind/union/minus/values/graph/service) is a
// fence that cuts the run, is emitted unchanged, and starts a new run.
func reorderWithFences(where []query.Clause, opt Optimizable) []query.Clause {
	var out []query.Clause
	var run []query.Clause

	flushRun := func() {
		if len(run) == 0 {
			return
		}
		sorted := sortBySelectivity(run, opt)
		out = append(out, sorted...)
		run = nil
	}

	for _, c := range where {
		if isBindingPattern(c) {
			run = append(run, c)
			continue
		}
		flushRun()
		out = append(out, c)
	}
	flushRun()
	return out
}

func isBindingPattern(c query.Clause) bool {
	switch c.(type) {
	case query.TuplePattern, query.ClassPattern, query.IRIPattern, query.FullTextPattern:
		return true
	default:
		return false
	}
}

// sortBySelectivity orders a reorderable run so the pattern expected to
// emit the fewest flakes runs first, tie-breaking by the
// value-bound > ident > variable rule across s, p, o, then by
// lexicographic input order for stability.
func sortBySelectivity(run []query.Clause, opt Optimizable) []query.Clause {
	type scored struct {
		clause      query.Clause
		selectivity int64
		tieBreak    int
		origIndex   int
	}
	scoredRun := make([]scored, len(run))
	for i, c := range run {
		pat := toIndexPattern(c)
		sel := int64(1 << 62)
		if opt != nil && pat != nil {
			if n, err := opt.Selectivity(pat); err == nil {
				sel = n
			}
		}
		scoredRun[i] = scored{clause: c, selectivity: sel, tieBreak: boundness(c), origIndex: i}
	}
	sort.SliceStable(scoredRun, func(i, j int) bool {
		if scoredRun[i].selectivity != scoredRun[j].selectivity {
			return scoredRun[i].selectivity < scoredRun[j].selectivity
		}
		if scoredRun[i].tieBreak != scoredRun[j].tieBreak {
			return scoredRun[i].tieBreak < scoredRun[j].tieBreak
		}
		return scoredRun[i].origIndex < scoredRun[j].origIndex
	})
	out := make([]query.Clause, len(scoredRun))
	for i, s := range scoredRun {
		out[i] = s.clause
	}
	return out
}

// boundness scores a pattern's slots for the selectivity tie-break:
// lower is "more constrained" (value-bound beats ident beats variable).
func boundness(c query.Clause) int {
	score := func(t query.Term) int {
		if t == nil {
			return 2
		}
		if t.IsVariable() {
			return 2
		}
		if ct, ok := t.(query.ConstTerm); ok && ct.Value.Datatype == datatype.AnyURI {
			return 1
		}
		return 0
	}
	switch p := c.(type) {
	case query.TuplePattern:
		return score(p.Subject) + score(p.Predicate) + score(p.Object)
	case query.ClassPattern:
		return score(p.Subject) + score(p.Class)
	case query.IRIPattern:
		return score(p.Subject)
	default:
		return 1
	}
}

// toIndexPattern converts a binding-pattern clause into the index
// package's Pattern shape for a selectivity lookup; returns nil for
// anything the index layer cannot score directly (e.g. full text).
func toIndexPattern(c query.Clause) *index.Pattern {
	tp, ok := c.(query.TuplePattern)
	if !ok {
		return nil
	}
	pat := &index.Pattern{}
	if ct, ok := tp.Subject.(query.ConstTerm); ok {
		if s, ok := ct.Value.Value.(flake.Subject); ok {
			pat.S = index.BoundValue(s)
		}
	}
	if ct, ok := tp.Predicate.(query.ConstTerm); ok {
		if iri, ok := ct.Value.Value.(string); ok {
			pat.P = index.BoundValue(flake.NewPredicate(iri))
		}
	}
	if ct, ok := tp.Object.(query.ConstTerm); ok {
		pat.O = index.BoundValue(ct.Value)
	}
	return pat
}

package planner

import "github.com/wbrown/flakeql/query"

// recognizeSubjectCrawl recognizes the simple-subject-crawl shape:
// the select is exactly one variable with a select-map/
// tree specification, and every where pattern shares that variable in
// subject position. The planner-internal shape detection is grounded on
// the teacher's planner/planner_subqueries.go pattern-shape matching,
// simplified to a single-subject check since this engine has no nested
// subquery concept.
func recognizeSubjectCrawl(q *query.ParsedQuery, where []query.Clause) (query.VarID, bool) {
	if len(q.Select) != 1 || q.Select[0].Tree == nil {
		return 0, false
	}
	crawlVar := q.Select[0].Tree.Var

	for _, c := range where {
		var subj query.Term
		switch p := c.(type) {
		case query.TuplePattern:
			subj = p.Subject
		case query.ClassPattern:
			subj = p.Subject
		case query.IRIPattern:
			subj = p.Subject
		default:
			return 0, false
		}
		vt, ok := subj.(query.VarTerm)
		if !ok || vt.Var != crawlVar {
			return 0, false
		}
	}
	return crawlVar, true
}

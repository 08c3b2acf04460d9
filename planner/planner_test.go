package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wbrown/flakeql/query"
)

func TestReorderWithFencesKeepsFenceOrder(t *testing.T) {
	vt := query.NewVarTable()
	x := vt.Intern("?x")
	y := vt.Intern("?y")

	t1 := query.TuplePattern{Subject: query.VarTerm{Var: x, Name: "?x"}, Predicate: query.ConstTerm{}, Object: query.VarTerm{Var: y, Name: "?y"}}
	filter := query.FilterPattern{}
	t2 := query.TuplePattern{Subject: query.VarTerm{Var: y, Name: "?y"}, Predicate: query.ConstTerm{}, Object: query.ConstTerm{}}

	where := []query.Clause{t1, filter, t2}
	reordered := reorderWithFences(where, nil)

	assert.Len(t, reordered, 3)
	assert.Equal(t, filter, reordered[1], "fence position must not move")
}

func TestRecognizeSubjectCrawl(t *testing.T) {
	vt := query.NewVarTable()
	u := vt.Intern("?u")

	q := &query.ParsedQuery{
		Select: []query.SelectElement{{Tree: &query.SelectTree{Var: u, Wildcard: true}}},
		Where: []query.Clause{
			query.ClassPattern{Subject: query.VarTerm{Var: u, Name: "?u"}, Class: query.ConstTerm{}},
		},
	}

	v, ok := recognizeSubjectCrawl(q, q.Where)
	assert.True(t, ok)
	assert.Equal(t, u, v)
}

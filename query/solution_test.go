package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wbrown/flakeql/datatype"
)

func TestSolutionBindAndGet(t *testing.T) {
	vt := NewVarTable()
	x := vt.Intern("?x")

	s := NewSolution()
	assert.False(t, s.Bound(x))

	s2 := s.Bind(x, datatype.New("alice", datatype.String))
	assert.False(t, s.Bound(x), "Bind must not mutate the receiver")
	assert.True(t, s2.Bound(x))

	v, ok := s2.Get(x)
	assert.True(t, ok)
	assert.Equal(t, "alice", v.Value)
}

func TestSolutionMergeCompatible(t *testing.T) {
	vt := NewVarTable()
	x, y := vt.Intern("?x"), vt.Intern("?y")

	a := NewSolution().Bind(x, datatype.New(int64(1), datatype.Integer))
	b := NewSolution().Bind(y, datatype.New(int64(2), datatype.Integer))

	merged, ok := a.Merge(b)
	assert.True(t, ok)
	assert.True(t, merged.Bound(x))
	assert.True(t, merged.Bound(y))
}

func TestSolutionMergeConflicting(t *testing.T) {
	vt := NewVarTable()
	x := vt.Intern("?x")

	a := NewSolution().Bind(x, datatype.New(int64(1), datatype.Integer))
	b := NewSolution().Bind(x, datatype.New(int64(2), datatype.Integer))

	_, ok := a.Merge(b)
	assert.False(t, ok)
}

func TestBindingVarsUnionIntersection(t *testing.T) {
	vt := NewVarTable()
	x := vt.Intern("?x")
	y := vt.Intern("?y")

	union := UnionPattern{
		Branches: [][]Clause{
			{TuplePattern{Subject: VarTerm{Var: x, Name: "?x"}, Predicate: ConstTerm{}, Object: VarTerm{Var: y, Name: "?y"}}},
			{TuplePattern{Subject: VarTerm{Var: x, Name: "?x"}, Predicate: ConstTerm{}, Object: ConstTerm{}}},
		},
	}
	bound := BindingVars(union)
	assert.True(t, bound[x])
	assert.False(t, bound[y], "y is only bound in one branch")
}

package postprocess

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/query"
)

func TestOrderByAscendingStable(t *testing.T) {
	vars := query.NewVarTable()
	age := vars.Intern("age")

	solutions := []query.Solution{
		solutionOf(t, map[query.VarID]datatype.TypedValue{age: datatype.New(int64(30), datatype.Integer)}),
		solutionOf(t, map[query.VarID]datatype.TypedValue{age: datatype.New(int64(10), datatype.Integer)}),
		solutionOf(t, map[query.VarID]datatype.TypedValue{age: datatype.New(int64(20), datatype.Integer)}),
	}

	ordered := OrderBy(solutions, []query.OrderByClause{{Var: age, Direction: query.Asc}})
	require.Len(t, ordered, 3)
	v0, _ := ordered[0].Get(age)
	v1, _ := ordered[1].Get(age)
	v2, _ := ordered[2].Get(age)
	require.Equal(t, int64(10), v0.Value)
	require.Equal(t, int64(20), v1.Value)
	require.Equal(t, int64(30), v2.Value)
}

func TestOrderByDescending(t *testing.T) {
	vars := query.NewVarTable()
	age := vars.Intern("age")

	solutions := []query.Solution{
		solutionOf(t, map[query.VarID]datatype.TypedValue{age: datatype.New(int64(10), datatype.Integer)}),
		solutionOf(t, map[query.VarID]datatype.TypedValue{age: datatype.New(int64(30), datatype.Integer)}),
	}
	ordered := OrderBy(solutions, []query.OrderByClause{{Var: age, Direction: query.Desc}})
	v0, _ := ordered[0].Get(age)
	require.Equal(t, int64(30), v0.Value)
}

func TestDistinctDeduplicatesByProjectedVars(t *testing.T) {
	vars := query.NewVarTable()
	dept := vars.Intern("dept")

	solutions := []query.Solution{
		solutionOf(t, map[query.VarID]datatype.TypedValue{dept: datatype.New("eng", datatype.String)}),
		solutionOf(t, map[query.VarID]datatype.TypedValue{dept: datatype.New("eng", datatype.String)}),
		solutionOf(t, map[query.VarID]datatype.TypedValue{dept: datatype.New("sales", datatype.String)}),
	}
	out := Distinct(solutions, []query.VarID{dept})
	require.Len(t, out, 2)
}

func TestOffsetLimit(t *testing.T) {
	vars := query.NewVarTable()
	x := vars.Intern("x")
	var solutions []query.Solution
	for i := 0; i < 5; i++ {
		solutions = append(solutions, solutionOf(t, map[query.VarID]datatype.TypedValue{x: datatype.New(int64(i), datatype.Integer)}))
	}

	limit := int64(2)
	out := OffsetLimit(solutions, 1, &limit)
	require.Len(t, out, 2)
	v0, _ := out[0].Get(x)
	require.Equal(t, int64(1), v0.Value)

	require.Nil(t, OffsetLimit(solutions, 10, nil))
}

package postprocess

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/query"
)

func solutionOf(t *testing.T, binds map[query.VarID]datatype.TypedValue) query.Solution {
	t.Helper()
	sol := query.NewSolution()
	for v, tv := range binds {
		sol = sol.Bind(v, tv)
	}
	return sol
}

func TestGroupByPartitionsByKey(t *testing.T) {
	vars := query.NewVarTable()
	dept := vars.Intern("dept")
	amount := vars.Intern("amount")

	solutions := []query.Solution{
		solutionOf(t, map[query.VarID]datatype.TypedValue{dept: datatype.New("eng", datatype.String), amount: datatype.New(int64(10), datatype.Integer)}),
		solutionOf(t, map[query.VarID]datatype.TypedValue{dept: datatype.New("eng", datatype.String), amount: datatype.New(int64(20), datatype.Integer)}),
		solutionOf(t, map[query.VarID]datatype.TypedValue{dept: datatype.New("sales", datatype.String), amount: datatype.New(int64(5), datatype.Integer)}),
	}

	groups := GroupBy(solutions, []query.VarID{dept})
	require.Len(t, groups, 2)
	require.Len(t, groups[0].Members, 2)
	require.Len(t, groups[1].Members, 1)
}

func TestResolveAggregateBindingsSum(t *testing.T) {
	vars := query.NewVarTable()
	dept := vars.Intern("dept")
	amount := vars.Intern("amount")
	total := vars.Intern("total")

	solutions := []query.Solution{
		solutionOf(t, map[query.VarID]datatype.TypedValue{dept: datatype.New("eng", datatype.String), amount: datatype.New(int64(10), datatype.Integer)}),
		solutionOf(t, map[query.VarID]datatype.TypedValue{dept: datatype.New("eng", datatype.String), amount: datatype.New(int64(20), datatype.Integer)}),
	}
	groups := GroupBy(solutions, []query.VarID{dept})

	assignments := []query.BindAssignment{
		{Var: total, Name: "?total", Expr: &query.Expr{Op: "sum", Args: []*query.Expr{{Leaf: query.VarTerm{Var: amount, Name: "?amount"}}}}},
	}
	resolved, err := ResolveAggregateBindings(groups, assignments)
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	v, ok := resolved[0].Get(total)
	require.True(t, ok)
	require.Equal(t, int64(30), v.Value)
}

func TestEvalAggregateCountEmptyGroup(t *testing.T) {
	g := &Group{}
	v, err := EvalAggregate(&query.Expr{Op: "count", Args: []*query.Expr{{Leaf: query.VarTerm{Var: 0, Name: "?x"}}}}, g)
	require.NoError(t, err)
	require.Equal(t, int64(0), v.Value)
}

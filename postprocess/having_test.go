package postprocess

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/query"
)

func TestHavingFiltersByAggregateValue(t *testing.T) {
	vars := query.NewVarTable()
	total := vars.Intern("total")

	solutions := []query.Solution{
		solutionOf(t, map[query.VarID]datatype.TypedValue{total: datatype.New(int64(5), datatype.Integer)}),
		solutionOf(t, map[query.VarID]datatype.TypedValue{total: datatype.New(int64(50), datatype.Integer)}),
	}

	funcs := query.NewFunctionRegistry()
	exprs := []*query.Expr{
		{Op: ">", Args: []*query.Expr{
			{Leaf: query.VarTerm{Var: total, Name: "?total"}},
			{Leaf: query.ConstTerm{Value: datatype.New(int64(10), datatype.Integer)}},
		}},
	}

	out := Having(solutions, funcs, exprs)
	require.Len(t, out, 1)
	v, _ := out[0].Get(total)
	require.Equal(t, int64(50), v.Value)
}

func TestHavingNoExprsPassesThrough(t *testing.T) {
	vars := query.NewVarTable()
	total := vars.Intern("total")
	solutions := []query.Solution{
		solutionOf(t, map[query.VarID]datatype.TypedValue{total: datatype.New(int64(1), datatype.Integer)}),
	}
	out := Having(solutions, query.NewFunctionRegistry(), nil)
	require.Len(t, out, 1)
}

package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/query"
)

func TestIsVariable(t *testing.T) {
	require.True(t, isVariable("?x"))
	require.False(t, isVariable("x"))
	require.False(t, isVariable(""))
}

func TestParseTermInternsVariableOnce(t *testing.T) {
	vars := query.NewVarTable()
	a, err := parseTerm("?x", vars)
	require.NoError(t, err)
	b, err := parseTerm("?x", vars)
	require.NoError(t, err)

	av, ok := a.(query.VarTerm)
	require.True(t, ok)
	bv, ok := b.(query.VarTerm)
	require.True(t, ok)
	require.Equal(t, av.Var, bv.Var)
}

func TestParseTermBareStringIsIRI(t *testing.T) {
	vars := query.NewVarTable()
	term, err := parseTerm("person:alice", vars)
	require.NoError(t, err)
	ct, ok := term.(query.ConstTerm)
	require.True(t, ok)
	require.Equal(t, "person:alice", ct.Value.Value)
}

func TestParseTermRejectsNull(t *testing.T) {
	vars := query.NewVarTable()
	_, err := parseTerm(nil, vars)
	require.Error(t, err)
}

func TestParseLiteralTermInfersType(t *testing.T) {
	vars := query.NewVarTable()
	term, err := parseLiteralTerm(true, vars)
	require.NoError(t, err)
	ct, ok := term.(query.ConstTerm)
	require.True(t, ok)
	require.Equal(t, true, ct.Value.Value)
}

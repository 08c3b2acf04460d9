package sparql

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/query"
)

func newTestParser(t *testing.T, s string) *parser {
	t.Helper()
	toks, err := newLexer(s).tokenize()
	require.NoError(t, err)
	return newParser(toks)
}

func TestParseExpressionArithmeticPrecedence(t *testing.T) {
	p := newTestParser(t, "1 + 2 * 3")
	e, err := p.parseExpression()
	require.NoError(t, err)
	require.Equal(t, "+", e.Op)
	require.Equal(t, "*", e.Args[1].Op)
}

func TestParseExpressionRelationalAndLogical(t *testing.T) {
	p := newTestParser(t, "?age >= 18 && ?age <= 65")
	e, err := p.parseExpression()
	require.NoError(t, err)
	require.Equal(t, "and", e.Op)
	require.Equal(t, ">=", e.Args[0].Op)
	require.Equal(t, "<=", e.Args[1].Op)
}

func TestParseExpressionInList(t *testing.T) {
	p := newTestParser(t, `?status IN ("active", "pending")`)
	e, err := p.parseExpression()
	require.NoError(t, err)
	require.Equal(t, "in", e.Op)
	require.Len(t, e.Args, 3)
}

func TestParseExpressionNotIn(t *testing.T) {
	p := newTestParser(t, `?status NOT IN ("closed")`)
	e, err := p.parseExpression()
	require.NoError(t, err)
	require.Equal(t, "not", e.Op)
	require.Equal(t, "in", e.Args[0].Op)
}

func TestParseExpressionBuiltinFunctionNameMapping(t *testing.T) {
	p := newTestParser(t, `STRSTARTS(?name, "Al")`)
	e, err := p.parseExpression()
	require.NoError(t, err)
	require.Equal(t, "strStarts", e.Op)
	require.Len(t, e.Args, 2)
}

func TestParseExpressionUnknownFunctionErrors(t *testing.T) {
	p := newTestParser(t, `NOTAREALFUNCTION(?x)`)
	_, err := p.parseExpression()
	require.Error(t, err)
}

func TestParseExpressionCountStarSubstitutesFirstVar(t *testing.T) {
	p := newTestParser(t, `COUNT(*)`)
	p.internVar("?s") // simulate a variable bound earlier by WHERE
	e, err := p.parseExpression()
	require.NoError(t, err)
	require.Equal(t, "count", e.Op)
	require.Len(t, e.Args, 1)
	vt, ok := e.Args[0].Leaf.(query.VarTerm)
	require.True(t, ok)
	require.Equal(t, "?s", vt.Name)
}

func TestParseExpressionCountStarWithoutPriorVarErrors(t *testing.T) {
	p := newTestParser(t, `COUNT(*)`)
	_, err := p.parseExpression()
	require.Error(t, err)
}

func TestParseExpressionDistinctAggregateArgument(t *testing.T) {
	p := newTestParser(t, `COUNT(DISTINCT ?name)`)
	e, err := p.parseExpression()
	require.NoError(t, err)
	require.Equal(t, "count", e.Op)
	require.Equal(t, "distinct", e.Args[0].Op)
}

func TestParseExpressionUnaryNegation(t *testing.T) {
	p := newTestParser(t, "-?x")
	e, err := p.parseExpression()
	require.NoError(t, err)
	require.Equal(t, "-", e.Op)
	require.Equal(t, int64(0), e.Args[0].Leaf.(query.ConstTerm).Value.Value)
}

func TestParseExpressionLiteralWithLangTag(t *testing.T) {
	p := newTestParser(t, `"bonjour"@fr`)
	e, err := p.parseExpression()
	require.NoError(t, err)
	ct, ok := e.Leaf.(query.ConstTerm)
	require.True(t, ok)
	require.Equal(t, "bonjour", ct.Value.Value)
}

func TestParseExpressionParenthesizedGroup(t *testing.T) {
	p := newTestParser(t, "(1 + 2) * 3")
	e, err := p.parseExpression()
	require.NoError(t, err)
	require.Equal(t, "*", e.Op)
	require.Equal(t, "+", e.Args[0].Op)
}

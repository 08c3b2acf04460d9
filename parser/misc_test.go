package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/query"
)

func TestParseGroupBySingleVar(t *testing.T) {
	vars := query.NewVarTable()
	gb, err := parseGroupBy("?c", vars)
	require.NoError(t, err)
	require.Len(t, gb.Vars, 1)
}

func TestParseGroupByVector(t *testing.T) {
	vars := query.NewVarTable()
	gb, err := parseGroupBy([]interface{}{"?c", "?d"}, vars)
	require.NoError(t, err)
	require.Len(t, gb.Vars, 2)
}

func TestParseGroupByRejectsNonVariable(t *testing.T) {
	_, err := parseGroupBy("notavar", query.NewVarTable())
	require.Error(t, err)
}

func TestParseOrderBySingleVarAscending(t *testing.T) {
	vars := query.NewVarTable()
	ob, err := parseOrderBy("?name", vars)
	require.NoError(t, err)
	require.Len(t, ob, 1)
	require.Equal(t, query.Asc, ob[0].Direction)
}

func TestParseOrderByDescForm(t *testing.T) {
	vars := query.NewVarTable()
	ob, err := parseOrderBy([]interface{}{"desc", "?age"}, vars)
	require.NoError(t, err)
	require.Len(t, ob, 1)
	require.Equal(t, query.Desc, ob[0].Direction)
}

func TestParseOrderByVectorOfClauses(t *testing.T) {
	vars := query.NewVarTable()
	ob, err := parseOrderBy([]interface{}{
		"?name",
		[]interface{}{"desc", "?age"},
	}, vars)
	require.NoError(t, err)
	require.Len(t, ob, 2)
	require.Equal(t, query.Asc, ob[0].Direction)
	require.Equal(t, query.Desc, ob[1].Direction)
}

func TestParseExprListHaving(t *testing.T) {
	vars := query.NewVarTable()
	vars.Intern("?cnt")
	exprs, err := parseExprList([]interface{}{`(> ?cnt 1)`}, vars, "having")
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	require.Equal(t, ">", exprs[0].Op)
}

func TestParseExprListRejectsNonArray(t *testing.T) {
	_, err := parseExprList("not-an-array", query.NewVarTable(), "filter")
	require.Error(t, err)
}

func TestParseContext(t *testing.T) {
	ctx, err := parseContext(map[string]interface{}{
		"person": "https://schema.example/person/",
	})
	require.NoError(t, err)
	require.Equal(t, "https://schema.example/person/", ctx["person"])
}

func TestParseContextRejectsNonString(t *testing.T) {
	_, err := parseContext(map[string]interface{}{
		"person": 1.0,
	})
	require.Error(t, err)
}

func TestParseInScalar(t *testing.T) {
	vars := query.NewVarTable()
	in, err := parseIn(map[string]interface{}{
		"userId": "?u",
	}, vars)
	require.NoError(t, err)
	_, ok := in["userId"].(query.ScalarInput)
	require.True(t, ok)
}

func TestParseLimitOffset(t *testing.T) {
	q := &query.ParsedQuery{}
	err := parseLimitOffset(map[string]interface{}{
		"limit":  10.0,
		"offset": 5.0,
	}, q)
	require.NoError(t, err)
	require.NotNil(t, q.Limit)
	require.Equal(t, int64(10), *q.Limit)
	require.Equal(t, int64(5), q.Offset)
}

func TestParseLimitOffsetRejectsNegative(t *testing.T) {
	q := &query.ParsedQuery{}
	err := parseLimitOffset(map[string]interface{}{"limit": -1.0}, q)
	require.Error(t, err)
}

func TestParseOptsMaxFuelAndOutput(t *testing.T) {
	o, err := parseOpts(map[string]interface{}{
		"maxFuel": 1000.0,
		"output":  "table",
		"meta":    true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1000), o.MaxFuel)
	require.Equal(t, "table", o.Output)
	require.True(t, o.Meta)
}

func TestParseOptsRejectsNegativeFuel(t *testing.T) {
	_, err := parseOpts(map[string]interface{}{"maxFuel": -5.0})
	require.Error(t, err)
}

func TestToInt(t *testing.T) {
	n, ok := toInt(3.0)
	require.True(t, ok)
	require.Equal(t, 3, n)

	_, ok = toInt("nope")
	require.False(t, ok)
}

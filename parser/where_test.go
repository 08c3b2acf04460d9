package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/query"
)

func mustWhere(t *testing.T, doc []interface{}) ([]query.Clause, *query.VarTable) {
	t.Helper()
	vars := query.NewVarTable()
	clauses, err := parseWhere(doc, vars)
	require.NoError(t, err)
	return clauses, vars
}

func TestParseWhereTriple(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		[]interface{}{"?u", "person:name", "?name"},
	})
	require.Len(t, clauses, 1)
	tp, ok := clauses[0].(query.TuplePattern)
	require.True(t, ok)
	require.Nil(t, tp.Dataset)
	require.Equal(t, 0, tp.Repeat)
}

func TestParseWhereFourTupleNamedDataset(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		[]interface{}{"$wd", "?u", "person:name", "?name"},
	})
	tp, ok := clauses[0].(query.TuplePattern)
	require.True(t, ok)
	require.NotNil(t, tp.Dataset)
}

func TestParseWhereRdfTypePattern(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		[]interface{}{"?u", "rdf:type", "person:Person"},
	})
	_, ok := clauses[0].(query.ClassPattern)
	require.True(t, ok)
}

func TestParseWhereIRIPattern(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		[]interface{}{"?u", "@id", "?id"},
	})
	_, ok := clauses[0].(query.IRIPattern)
	require.True(t, ok)
}

func TestParseWhereFullTextPattern(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		[]interface{}{"?u", "fullText:person:bio", "golang expert"},
	})
	ft, ok := clauses[0].(query.FullTextPattern)
	require.True(t, ok)
	require.Equal(t, "person:bio", ft.PredicateOrClass)
	require.Equal(t, "golang expert", ft.Query)
}

func TestParseWhereRecursivePredicate(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		[]interface{}{"?a", "person:follows+3", "?b"},
	})
	tp, ok := clauses[0].(query.TuplePattern)
	require.True(t, ok)
	require.Equal(t, 3, tp.Repeat)
}

func TestParseWhereRecursivePredicateRejectsNonVariableObject(t *testing.T) {
	_, vars := mustWhereAllowError(t, []interface{}{
		[]interface{}{"?a", "person:follows+3", "person:bob"},
	})
	_ = vars
}

func mustWhereAllowError(t *testing.T, doc []interface{}) ([]query.Clause, error) {
	t.Helper()
	vars := query.NewVarTable()
	clauses, err := parseWhere(doc, vars)
	require.Error(t, err)
	return clauses, err
}

func TestParseWhereBindShorthand(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		[]interface{}{"?upper", `(ucase ?name)`},
	})
	bp, ok := clauses[0].(query.BindPattern)
	require.True(t, ok)
	require.Len(t, bp.Assignments, 1)
	require.Equal(t, "ucase", bp.Assignments[0].Expr.Op)
}

func TestParseWhereBindShorthandRejectsAggregate(t *testing.T) {
	_, err := parseWhere([]interface{}{
		[]interface{}{"?total", `#(sum ?x)`},
	}, query.NewVarTable())
	require.Error(t, err)
}

func TestParseWhereOptional(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		map[string]interface{}{
			"optional": []interface{}{
				[]interface{}{"?u", "person:nickname", "?nick"},
			},
		},
	})
	op, ok := clauses[0].(query.OptionalPattern)
	require.True(t, ok)
	require.Len(t, op.Inner, 1)
}

func TestParseWhereUnion(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		map[string]interface{}{
			"union": []interface{}{
				[]interface{}{[]interface{}{"?u", "person:name", "?n"}},
				[]interface{}{[]interface{}{"?u", "person:alias", "?n"}},
			},
		},
	})
	up, ok := clauses[0].(query.UnionPattern)
	require.True(t, ok)
	require.Len(t, up.Branches, 2)
}

func TestParseWhereUnionRequiresTwoBranches(t *testing.T) {
	_, err := parseWhere([]interface{}{
		map[string]interface{}{
			"union": []interface{}{
				[]interface{}{[]interface{}{"?u", "person:name", "?n"}},
			},
		},
	}, query.NewVarTable())
	require.Error(t, err)
}

func TestParseWhereBindMap(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		map[string]interface{}{
			"bind": map[string]interface{}{
				"?full": `(concat ?first ?last)`,
			},
		},
	})
	bp, ok := clauses[0].(query.BindPattern)
	require.True(t, ok)
	require.Equal(t, "concat", bp.Assignments[0].Expr.Op)
}

func TestParseWhereFilterMap(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		map[string]interface{}{
			"filter": []interface{}{`(> ?age 21)`},
		},
	})
	fp, ok := clauses[0].(query.FilterPattern)
	require.True(t, ok)
	require.Len(t, fp.Exprs, 1)
}

func TestParseWhereMinusExistsNotExists(t *testing.T) {
	for _, key := range []string{"minus", "exists", "not-exists"} {
		clauses, _ := mustWhere(t, []interface{}{
			map[string]interface{}{
				key: []interface{}{
					[]interface{}{"?u", "person:banned", true},
				},
			},
		})
		require.Len(t, clauses, 1)
	}
}

func TestParseWhereValues(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		map[string]interface{}{
			"values": map[string]interface{}{
				"?x": []interface{}{1.0, 2.0, nil},
			},
		},
	})
	vp, ok := clauses[0].(query.ValuesPattern)
	require.True(t, ok)
	require.Len(t, vp.Rows, 3)
	require.Nil(t, vp.Rows[2][0])
}

func TestParseWhereGraph(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		map[string]interface{}{
			"graph": map[string]interface{}{
				"name":  "?g",
				"where": []interface{}{[]interface{}{"?u", "person:name", "?n"}},
			},
		},
	})
	gp, ok := clauses[0].(query.GraphPattern)
	require.True(t, ok)
	require.Len(t, gp.Inner, 1)
}

func TestParseWhereService(t *testing.T) {
	clauses, _ := mustWhere(t, []interface{}{
		map[string]interface{}{
			"service": map[string]interface{}{
				"endpoint": "https://example.org/sparql",
				"silent":   true,
				"where":    []interface{}{[]interface{}{"?u", "person:name", "?n"}},
			},
		},
	})
	sp, ok := clauses[0].(query.ServicePattern)
	require.True(t, ok)
	require.True(t, sp.Silent)
}

func TestParseWhereRejectsBadArity(t *testing.T) {
	_, err := parseWhere([]interface{}{
		[]interface{}{"?u"},
	}, query.NewVarTable())
	require.Error(t, err)
}

func TestParseWhereRejectsUnknownMapKey(t *testing.T) {
	_, err := parseWhere([]interface{}{
		map[string]interface{}{"bogus": []interface{}{}},
	}, query.NewVarTable())
	require.Error(t, err)
}

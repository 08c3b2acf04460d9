package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/query"
)

func TestParseSelectBareVariables(t *testing.T) {
	vars := query.NewVarTable()
	spec, err := parseSelect(map[string]interface{}{
		"select": []interface{}{"?u", "?name"},
	}, vars)
	require.NoError(t, err)
	require.Equal(t, query.SelectMany, spec.mode)
	require.Len(t, spec.elements, 2)
	require.Empty(t, spec.aggregates)
}

func TestParseSelectModesAreMutuallyExclusive(t *testing.T) {
	_, err := parseSelect(map[string]interface{}{
		"select":    []interface{}{"?u"},
		"selectOne": []interface{}{"?u"},
	}, query.NewVarTable())
	require.Error(t, err)
}

func TestParseSelectRequiresOneMode(t *testing.T) {
	_, err := parseSelect(map[string]interface{}{}, query.NewVarTable())
	require.Error(t, err)
}

func TestParseSelectOneMode(t *testing.T) {
	spec, err := parseSelect(map[string]interface{}{
		"selectOne": []interface{}{"?u"},
	}, query.NewVarTable())
	require.NoError(t, err)
	require.Equal(t, query.SelectOne, spec.mode)
}

func TestParseSelectExpressionAlias(t *testing.T) {
	vars := query.NewVarTable()
	spec, err := parseSelect(map[string]interface{}{
		"select": []interface{}{`(as (ucase ?name) ?upper)`},
	}, vars)
	require.NoError(t, err)
	require.Len(t, spec.elements, 1)
	require.Equal(t, "ucase", spec.elements[0].Expr.Op)
	require.Equal(t, "?upper", spec.elements[0].Expr.As)
	require.Empty(t, spec.aggregates)
}

func TestParseSelectAggregateSynthesizesBinding(t *testing.T) {
	vars := query.NewVarTable()
	spec, err := parseSelect(map[string]interface{}{
		"select": []interface{}{"?c", `(count ?u)`},
	}, vars)
	require.NoError(t, err)
	require.Len(t, spec.elements, 2)
	require.Len(t, spec.aggregates, 1)

	// The second select element must be a bare-variable reference to the
	// synthesized aggregate binding's variable.
	require.Equal(t, spec.aggregates[0].Var, spec.elements[1].Var)
	require.Equal(t, "count", spec.aggregates[0].Expr.Op)
}

func TestParseSelectMapWildcard(t *testing.T) {
	vars := query.NewVarTable()
	spec, err := parseSelect(map[string]interface{}{
		"select": []interface{}{
			map[string]interface{}{"?u": []interface{}{"*"}},
		},
	}, vars)
	require.NoError(t, err)
	require.Len(t, spec.elements, 1)
	require.NotNil(t, spec.elements[0].Tree)
	require.True(t, spec.elements[0].Tree.Wildcard)
}

func TestParseSelectMapNestedAndReverse(t *testing.T) {
	vars := query.NewVarTable()
	spec, err := parseSelect(map[string]interface{}{
		"select": []interface{}{
			map[string]interface{}{
				"?u": []interface{}{
					"person:name",
					map[string]interface{}{"person:knows": []interface{}{"person:name"}},
					"_person:manages",
				},
			},
		},
	}, vars)
	require.NoError(t, err)
	tree := spec.elements[0].Tree
	require.Len(t, tree.Fields, 3)
	require.Equal(t, "person:name", tree.Fields[0].Predicate)
	require.NotNil(t, tree.Fields[1].Nested)
	require.Equal(t, "person:name", tree.Fields[1].Nested.Fields[0].Predicate)
	require.True(t, tree.Fields[2].Reverse)
}

func TestParseSelectBareSelectMapDocument(t *testing.T) {
	vars := query.NewVarTable()
	spec, err := parseSelect(map[string]interface{}{
		"select": map[string]interface{}{
			"?u": []interface{}{"*"},
		},
	}, vars)
	require.NoError(t, err)
	require.Len(t, spec.elements, 1)
	require.NotNil(t, spec.elements[0].Tree)
}

func TestParseSelectTreeRejectsNonVariableKey(t *testing.T) {
	_, err := parseSelect(map[string]interface{}{
		"select": []interface{}{
			map[string]interface{}{"notavar": []interface{}{"*"}},
		},
	}, query.NewVarTable())
	require.Error(t, err)
}

package parser

import (
	"fmt"

	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// selectSpec is the result of parsing whichever one of select/selectOne/
// selectDistinct/selectReduced key was present.
type selectSpec struct {
	elements   []query.SelectElement
	mode       query.SelectMode
	aggregates []query.BindAssignment
}

// parseSelect locates the query document's single select-mode key
// (exactly one of `select`/`selectOne`/`selectDistinct`/`selectReduced`
// may be present)
// and parses its value into the
// select list, synthesizing a fresh aggregate binding for every
// aggregate-valued select expression so postprocess.Run's existing
// group/aggregate resolution machinery can serve both `groupBy`-driven
// and select-list-only aggregate queries uniformly.
func parseSelect(doc map[string]interface{}, vars *query.VarTable) (*selectSpec, error) {
	keys := []struct {
		key  string
		mode query.SelectMode
	}{
		{"select", query.SelectMany},
		{"selectOne", query.SelectOne},
		{"selectDistinct", query.SelectDistinct},
		{"selectReduced", query.SelectReduced},
	}

	var found string
	var mode query.SelectMode
	var raw interface{}
	for _, k := range keys {
		if v, ok := doc[k.key]; ok {
			if found != "" {
				return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("%q and %q are mutually exclusive", found, k.key))
			}
			found = k.key
			mode = k.mode
			raw = v
		}
	}
	if found == "" {
		return nil, queryerr.New(queryerr.InvalidQuery, "query must have exactly one of select/selectOne/selectDistinct/selectReduced")
	}

	spec := &selectSpec{mode: mode}

	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			el, agg, err := parseSelectElement(item, vars)
			if err != nil {
				return nil, err
			}
			spec.elements = append(spec.elements, el)
			if agg != nil {
				spec.aggregates = append(spec.aggregates, *agg)
			}
		}
	case map[string]interface{}:
		// A bare select-map: {"?u": ["*"]} — one subject-crawl tree, no
		// surrounding array.
		for varName, fields := range v {
			tree, err := parseSelectTree(varName, fields, vars)
			if err != nil {
				return nil, err
			}
			spec.elements = append(spec.elements, query.SelectElement{Tree: tree})
		}
	default:
		return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("%q value must be an array or a select-map object", found))
	}

	return spec, nil
}

// parseSelectElement parses one entry of a select array: a bare
// variable, an expression/aggregate string, or a single-key {var:
// fields} select-map object.
func parseSelectElement(item interface{}, vars *query.VarTable) (query.SelectElement, *query.BindAssignment, error) {
	switch v := item.(type) {
	case string:
		if isVariable(v) {
			return query.SelectElement{Var: vars.Intern(v)}, nil, nil
		}
		e, err := ParseExprString(v, vars)
		if err != nil {
			return query.SelectElement{}, nil, err
		}
		return elementForExpr(e, vars)

	case map[string]interface{}:
		if len(v) != 1 {
			return query.SelectElement{}, nil, queryerr.New(queryerr.InvalidQuery, "select-map entry must have exactly one variable key")
		}
		for varName, fields := range v {
			tree, err := parseSelectTree(varName, fields, vars)
			if err != nil {
				return query.SelectElement{}, nil, err
			}
			return query.SelectElement{Tree: tree}, nil, nil
		}
	}
	return query.SelectElement{}, nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("invalid select element %v", item))
}

// elementForExpr turns a parsed expression into a select element. An
// aggregate-valued expression is replaced by a bare-variable reference to
// a synthetic (or `as`-aliased) variable, and the corresponding
// BindAssignment is returned for the caller to fold into
// query.ParsedQuery.Aggregates — so postprocess.Run resolves it exactly
// like a groupBy aggregate, whether or not a groupBy is present.
func elementForExpr(e *query.Expr, vars *query.VarTable) (query.SelectElement, *query.BindAssignment, error) {
	if !e.IsAggregate() {
		return query.SelectElement{Expr: e}, nil, nil
	}
	name := e.As
	if name == "" {
		name = "?" + e.String()
	}
	v := vars.Intern(name)
	return query.SelectElement{Var: v}, &query.BindAssignment{Var: v, Name: name, Expr: e}, nil
}

// parseSelectTree parses a select-map subject-crawl specification:
// {"?u": ["*"]} (wildcard), {"?u": ["name", {"knows": ["name"]}]}
// (nested reference expansion), or a reverse-reference field prefixed
// with "_".
func parseSelectTree(varName string, fields interface{}, vars *query.VarTable) (*query.SelectTree, error) {
	if !isVariable(varName) {
		return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("select-map key %q must be a \"?\"-prefixed variable", varName))
	}
	tree := &query.SelectTree{Var: vars.Intern(varName)}
	wildcard, selectFields, err := parseSelectFields(fields)
	if err != nil {
		return nil, err
	}
	tree.Wildcard = wildcard
	tree.Fields = selectFields
	return tree, nil
}

// parseSelectFields parses a select-map's field array. Nested reference
// specs recurse into a SelectTree whose Var is left unset: a nested
// subject has no surface-syntax variable name of its own, and Crawl
// reads the nested subject from the value it is expanding, never from
// SelectTree.Var.
func parseSelectFields(fields interface{}) (bool, []query.SelectField, error) {
	list, ok := fields.([]interface{})
	if !ok {
		return false, nil, queryerr.New(queryerr.InvalidQuery, "select-map value must be an array of predicates/nested specs")
	}

	var wildcard bool
	var out []query.SelectField
	for _, item := range list {
		switch f := item.(type) {
		case string:
			if f == "*" {
				wildcard = true
				continue
			}
			reverse := false
			pred := f
			if len(pred) > 0 && pred[0] == '_' {
				reverse = true
				pred = pred[1:]
			}
			out = append(out, query.SelectField{Predicate: pred, Reverse: reverse})

		case map[string]interface{}:
			if len(f) != 1 {
				return false, nil, queryerr.New(queryerr.InvalidQuery, "nested select-map field must have exactly one predicate key")
			}
			for pred, nested := range f {
				reverse := false
				if len(pred) > 0 && pred[0] == '_' {
					reverse = true
					pred = pred[1:]
				}
				nestedWildcard, nestedFields, err := parseSelectFields(nested)
				if err != nil {
					return false, nil, fmt.Errorf("nested select-map field %q: %w", pred, err)
				}
				out = append(out, query.SelectField{
					Predicate: pred,
					Reverse:   reverse,
					Nested:    &query.SelectTree{Wildcard: nestedWildcard, Fields: nestedFields},
				})
			}

		default:
			return false, nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("invalid select-map field %v", item))
		}
	}
	return wildcard, out, nil
}

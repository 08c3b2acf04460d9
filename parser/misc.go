package parser

import (
	"fmt"

	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// parseGroupBy accepts a single variable or a vector of variables.
// Whether those variables occur in `where` is not checked, here or in
// the planner.
func parseGroupBy(raw interface{}, vars *query.VarTable) (*query.GroupBy, error) {
	switch v := raw.(type) {
	case string:
		name, err := requireVarName(v)
		if err != nil {
			return nil, err
		}
		return &query.GroupBy{Vars: []query.VarID{vars.Intern(name)}}, nil
	case []interface{}:
		out := make([]query.VarID, 0, len(v))
		for _, item := range v {
			name, err := requireVarName(item)
			if err != nil {
				return nil, err
			}
			out = append(out, vars.Intern(name))
		}
		return &query.GroupBy{Vars: out}, nil
	default:
		return nil, queryerr.New(queryerr.InvalidQuery, "\"groupBy\" must be a variable or an array of variables")
	}
}

// parseOrderBy accepts a variable, a `(desc ?v)` form, or a vector of
// such. `(desc ?v)` arrives as the 2-element
// array ["desc", "?v"] in the map-shaped surface syntax.
func parseOrderBy(raw interface{}, vars *query.VarTable) ([]query.OrderByClause, error) {
	switch v := raw.(type) {
	case string:
		c, err := parseOrderByClause(v, vars)
		if err != nil {
			return nil, err
		}
		return []query.OrderByClause{c}, nil
	case []interface{}:
		if isDescForm(v) {
			c, err := parseOrderByClause(v, vars)
			if err != nil {
				return nil, err
			}
			return []query.OrderByClause{c}, nil
		}
		out := make([]query.OrderByClause, 0, len(v))
		for _, item := range v {
			c, err := parseOrderByClause(item, vars)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	default:
		return nil, queryerr.New(queryerr.InvalidQuery, "\"orderBy\" must be a variable, a [\"desc\", var] form, or an array of such")
	}
}

func isDescForm(v []interface{}) bool {
	if len(v) != 2 {
		return false
	}
	s, ok := v[0].(string)
	return ok && (s == "desc" || s == "asc")
}

func parseOrderByClause(raw interface{}, vars *query.VarTable) (query.OrderByClause, error) {
	switch v := raw.(type) {
	case string:
		name, err := requireVarName(v)
		if err != nil {
			return query.OrderByClause{}, err
		}
		return query.OrderByClause{Var: vars.Intern(name), Direction: query.Asc}, nil
	case []interface{}:
		if !isDescForm(v) {
			return query.OrderByClause{}, queryerr.New(queryerr.InvalidQuery, "orderBy direction form must be [\"desc\"|\"asc\", var]")
		}
		dirStr := v[0].(string)
		name, err := requireVarName(v[1])
		if err != nil {
			return query.OrderByClause{}, err
		}
		dir := query.Asc
		if dirStr == "desc" {
			dir = query.Desc
		}
		return query.OrderByClause{Var: vars.Intern(name), Direction: dir}, nil
	default:
		return query.OrderByClause{}, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("invalid orderBy clause %v", raw))
	}
}

func parseExprList(raw interface{}, vars *query.VarTable, key string) ([]*query.Expr, error) {
	arr, ok := raw.([]interface{})
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("%q must be an array of expression strings", key))
	}
	out := make([]*query.Expr, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("%q entries must be expression strings", key))
		}
		e, err := ParseExprString(s, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// parseContext parses an IRI-prefix compaction mapping, applied to
// expand "@id"/predicate strings at parse time and to compact them back
// at output time.
func parseContext(raw interface{}) (query.Context, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "\"context\" must be an object mapping alias to IRI prefix")
	}
	ctx := make(query.Context, len(m))
	for alias, v := range m {
		prefix, ok := v.(string)
		if !ok {
			return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("context alias %q must map to a string IRI prefix", alias))
		}
		ctx[alias] = prefix
	}
	return ctx, nil
}

// parseIn parses the `vars` declared-input map into query.InputSpec
// values. Each input name must map to a single variable string, which
// becomes a query.ScalarInput; the collection, tuple and relation shapes
// of the teacher's :in grammar ([?x ...], [?a ?b], [[?a ?b]]) are not
// accepted.
func parseIn(raw interface{}, vars *query.VarTable) (map[string]query.InputSpec, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "\"vars\" must be an object mapping input name to its shape")
	}
	out := make(map[string]query.InputSpec, len(m))
	for name, shapeRaw := range m {
		shape, ok := shapeRaw.(string)
		if !ok {
			return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("input %q's shape must be a variable or binding-form string", name))
		}
		varName, err := requireVarName(shape)
		if err != nil {
			return nil, err
		}
		out[name] = query.ScalarInput{Var: vars.Intern(varName)}
	}
	return out, nil
}

func parseLimitOffset(m map[string]interface{}, q *query.ParsedQuery) error {
	if raw, ok := m["limit"]; ok {
		n, ok := toInt64(raw)
		if !ok || n <= 0 {
			return queryerr.New(queryerr.InvalidQuery, "\"limit\" must be a positive integer")
		}
		q.Limit = &n
	}
	if raw, ok := m["offset"]; ok {
		n, ok := toInt64(raw)
		if !ok || n < 0 {
			return queryerr.New(queryerr.InvalidQuery, "\"offset\" must be a non-negative integer")
		}
		q.Offset = n
	}
	return nil
}

func parseOpts(raw interface{}) (*query.Options, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "\"opts\"/\"options\" must be an object")
	}
	o := &query.Options{}
	if b, ok := m["parseJSON"].(bool); ok {
		o.ParseJSON = b
	}
	if b, ok := m["prettyPrint"].(bool); ok {
		o.PrettyPrint = b
	}
	if b, ok := m["component"].(bool); ok {
		o.Component = b
	}
	if n, ok := m["maxFuel"]; ok {
		v, ok := toInt64(n)
		if !ok || v <= 0 {
			return nil, queryerr.New(queryerr.InvalidQuery, "\"fuel\"/\"maxFuel\" must be positive")
		}
		o.MaxFuel = v
	} else if n, ok := m["fuel"]; ok {
		v, ok := toInt64(n)
		if !ok || v <= 0 {
			return nil, queryerr.New(queryerr.InvalidQuery, "\"fuel\"/\"maxFuel\" must be positive")
		}
		o.MaxFuel = v
	}
	if b, ok := m["meta"].(bool); ok {
		o.Meta = b
	}
	if s, ok := m["output"].(string); ok {
		o.Output = s
	}
	if s, ok := m["identity"].(string); ok {
		o.Identity = s
	}
	if s, ok := m["policy"].(string); ok {
		o.Policy = s
	}
	if s, ok := m["policy-class"].(string); ok {
		o.PolicyClass = s
	}
	if arr, ok := m["policy-values"].([]interface{}); ok {
		o.PolicyValues = toStringSlice(arr)
	}
	if arr, ok := m["reasoner-methods"].([]interface{}); ok {
		o.ReasonerMethods = toStringSlice(arr)
	}
	if arr, ok := m["rule-sources"].([]interface{}); ok {
		o.RuleSources = toStringSlice(arr)
	}
	if s, ok := m["from"].(string); ok {
		o.From = s
	}
	if arr, ok := m["from-named"].([]interface{}); ok {
		o.FromNamed = toStringSlice(arr)
	}
	if n, ok := m["t"]; ok {
		if v, ok := toInt64(n); ok {
			o.T = v
		}
	}
	return o, nil
}

func toStringSlice(arr []interface{}) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

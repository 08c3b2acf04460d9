package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// parseWhere parses the `where` array into the ordered clause sequence
// the planner/executor consume.
func parseWhere(raw []interface{}, vars *query.VarTable) ([]query.Clause, error) {
	clauses := make([]query.Clause, 0, len(raw))
	for i, item := range raw {
		c, err := parsePattern(item, vars)
		if err != nil {
			return nil, queryerr.Wrap(queryerr.InvalidQuery, fmt.Sprintf("where element %d", i), err)
		}
		clauses = append(clauses, c)
	}
	return clauses, nil
}

func parsePattern(item interface{}, vars *query.VarTable) (query.Clause, error) {
	switch v := item.(type) {
	case []interface{}:
		return parseTuple(v, vars)
	case map[string]interface{}:
		return parseMapPattern(v, vars)
	default:
		return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("where pattern must be a tuple or map, got %T", item))
	}
}

// parseTuple dispatches a where-clause array element by arity: a 2-tuple
// is a binding form, a 3-tuple an ordinary triple pattern, a 4-tuple a
// named-dataset triple pattern.
func parseTuple(elems []interface{}, vars *query.VarTable) (query.Clause, error) {
	switch len(elems) {
	case 2:
		return parseBindTuple(elems, vars)
	case 3:
		return parseTriple(nil, elems[0], elems[1], elems[2], vars)
	case 4:
		datasetTerm, err := parseTerm(elems[0], vars)
		if err != nil {
			return nil, err
		}
		return parseTriple(datasetTerm, elems[1], elems[2], elems[3], vars)
	default:
		return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("where tuple must have 2, 3, or 4 elements, got %d", len(elems)))
	}
}

// parseBindTuple parses a `[var, (expr|aggregate)]` inline bind shorthand.
// Aggregate-valued inline binds are rejected: aggregates resolve against
// a post-grouping Group, which does not exist while the where clause is
// still executing per-solution (see postprocess's Aggregates design).
func parseBindTuple(elems []interface{}, vars *query.VarTable) (query.Clause, error) {
	name, err := requireVarName(elems[0])
	if err != nil {
		return nil, err
	}
	exprStr, ok := elems[1].(string)
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "2-tuple binding's second element must be an expression string")
	}
	e, err := ParseExprString(exprStr, vars)
	if err != nil {
		return nil, err
	}
	if e.IsAggregate() {
		return nil, queryerr.New(queryerr.InvalidQuery, "aggregate expressions are not allowed in an inline where binding; use a top-level select or groupBy aggregate instead")
	}
	return query.BindPattern{Assignments: []query.BindAssignment{
		{Var: vars.Intern(name), Name: name, Expr: e},
	}}, nil
}

// parseTriple builds the appropriate binding-pattern clause for a
// 3-slot (subject, predicate, object) triple, recognizing the rdf:type,
// "@id", "fullText:", and "pred+n" recursive-predicate special forms.
func parseTriple(dataset query.Term, subjRaw, predRaw, objRaw interface{}, vars *query.VarTable) (query.Clause, error) {
	subj, err := parseTerm(subjRaw, vars)
	if err != nil {
		return nil, err
	}

	if predStr, ok := predRaw.(string); ok {
		switch {
		case predStr == "rdf:type" || predStr == "a":
			class, err := parseTerm(objRaw, vars)
			if err != nil {
				return nil, err
			}
			return query.ClassPattern{Subject: subj, Class: class}, nil

		case predStr == "@id":
			return query.IRIPattern{Subject: subj}, nil

		case strings.HasPrefix(predStr, "fullText:"):
			q, ok := objRaw.(string)
			if !ok {
				return nil, queryerr.New(queryerr.InvalidQuery, "fullText pattern's object must be a search-query string")
			}
			return query.FullTextPattern{
				Subject:          subj,
				PredicateOrClass: strings.TrimPrefix(predStr, "fullText:"),
				Query:            q,
			}, nil
		}

		if idx := strings.IndexByte(predStr, '+'); idx > 0 && !isVariable(predStr) {
			base := predStr[:idx]
			repeatStr := predStr[idx+1:]
			if repeatStr == "" {
				return nil, queryerr.New(queryerr.InvalidQuery, "recursive predicate \"+\" must be followed by an integer depth")
			}
			n, err := strconv.Atoi(repeatStr)
			if err != nil || n < 1 {
				return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("invalid recursive predicate depth %q", repeatStr))
			}
			obj, err := parseTerm(objRaw, vars)
			if err != nil {
				return nil, err
			}
			if _, isVar := obj.(query.VarTerm); !isVar {
				return nil, queryerr.New(queryerr.InvalidQuery, "invalid-recursion: recursive predicate's object must be a variable")
			}
			return query.TuplePattern{
				Dataset:   dataset,
				Subject:   subj,
				Predicate: query.ConstTerm{Value: ConstIRI(base)},
				Object:    obj,
				Repeat:    n,
			}, nil
		}
	}

	pred, err := parseTerm(predRaw, vars)
	if err != nil {
		return nil, err
	}
	obj, err := parseLiteralTerm(objRaw, vars)
	if err != nil {
		return nil, err
	}

	return query.TuplePattern{Dataset: dataset, Subject: subj, Predicate: pred, Object: obj}, nil
}

// parseMapPattern parses a single-key map-pattern clause (optional,
// union, bind, filter, minus, exists, not-exists, values, graph,
// service).
func parseMapPattern(m map[string]interface{}, vars *query.VarTable) (query.Clause, error) {
	if len(m) != 1 {
		return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("map-pattern must have exactly one key, got %d", len(m)))
	}
	for key, val := range m {
		switch key {
		case "optional":
			inner, err := parseNestedWhere(val, vars)
			if err != nil {
				return nil, err
			}
			return query.OptionalPattern{Inner: inner}, nil

		case "union":
			branchesRaw, ok := val.([]interface{})
			if !ok || len(branchesRaw) < 2 {
				return nil, queryerr.New(queryerr.InvalidQuery, "\"union\" requires an array of at least 2 where-clause branches")
			}
			branches := make([][]query.Clause, 0, len(branchesRaw))
			for _, b := range branchesRaw {
				inner, err := parseNestedWhere(b, vars)
				if err != nil {
					return nil, err
				}
				branches = append(branches, inner)
			}
			return query.UnionPattern{Branches: branches}, nil

		case "bind":
			bindMap, ok := val.(map[string]interface{})
			if !ok {
				return nil, queryerr.New(queryerr.InvalidQuery, "\"bind\" value must be a {var: expr} map")
			}
			assignments, err := parseBindAssignments(bindMap, vars)
			if err != nil {
				return nil, err
			}
			return query.BindPattern{Assignments: assignments}, nil

		case "filter":
			exprsRaw, ok := val.([]interface{})
			if !ok {
				return nil, queryerr.New(queryerr.InvalidQuery, "\"filter\" value must be an array of expression strings")
			}
			exprs := make([]*query.Expr, 0, len(exprsRaw))
			for _, e := range exprsRaw {
				s, ok := e.(string)
				if !ok {
					return nil, queryerr.New(queryerr.InvalidQuery, "filter expression must be a string")
				}
				expr, err := ParseExprString(s, vars)
				if err != nil {
					return nil, err
				}
				exprs = append(exprs, expr)
			}
			return query.FilterPattern{Exprs: exprs}, nil

		case "minus":
			inner, err := parseNestedWhere(val, vars)
			if err != nil {
				return nil, err
			}
			return query.MinusPattern{Inner: inner}, nil

		case "exists":
			inner, err := parseNestedWhere(val, vars)
			if err != nil {
				return nil, err
			}
			return query.ExistsPattern{Inner: inner}, nil

		case "not-exists":
			inner, err := parseNestedWhere(val, vars)
			if err != nil {
				return nil, err
			}
			return query.NotExistsPattern{Inner: inner}, nil

		case "values":
			valuesMap, ok := val.(map[string]interface{})
			if !ok {
				return nil, queryerr.New(queryerr.InvalidQuery, "\"values\" value must be a {var: [value, …]} map")
			}
			return parseValues(valuesMap, vars)

		case "graph":
			return parseGraphPattern(val, vars)

		case "service":
			return parseServicePattern(val, vars)

		default:
			return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("unknown map-pattern key %q", key))
		}
	}
	panic("unreachable")
}

func parseNestedWhere(val interface{}, vars *query.VarTable) ([]query.Clause, error) {
	arr, ok := val.([]interface{})
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "expected a nested where-clause array")
	}
	return parseWhere(arr, vars)
}

func parseBindAssignments(m map[string]interface{}, vars *query.VarTable) ([]query.BindAssignment, error) {
	assignments := make([]query.BindAssignment, 0, len(m))
	for name, exprRaw := range m {
		if !isVariable(name) {
			return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("bind target %q must be a \"?\"-prefixed variable", name))
		}
		exprStr, ok := exprRaw.(string)
		if !ok {
			return nil, queryerr.New(queryerr.InvalidQuery, "bind expression must be a string")
		}
		e, err := ParseExprString(exprStr, vars)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, query.BindAssignment{Var: vars.Intern(name), Name: name, Expr: e})
	}
	return assignments, nil
}

func parseValues(m map[string]interface{}, vars *query.VarTable) (query.Clause, error) {
	varNames := make([]string, 0, len(m))
	for name := range m {
		if !isVariable(name) {
			return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("values variable %q must be \"?\"-prefixed", name))
		}
		varNames = append(varNames, name)
	}

	varIDs := make([]query.VarID, len(varNames))
	columns := make([][]interface{}, len(varNames))
	rowCount := -1
	for i, name := range varNames {
		varIDs[i] = vars.Intern(name)
		col, ok := m[name].([]interface{})
		if !ok {
			return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("values column %q must be an array", name))
		}
		columns[i] = col
		if rowCount == -1 {
			rowCount = len(col)
		} else if rowCount != len(col) {
			return nil, queryerr.New(queryerr.InvalidQuery, "values columns must all have the same length")
		}
	}

	rows := make([]query.ValuesRow, rowCount)
	for r := 0; r < rowCount; r++ {
		row := make(query.ValuesRow, len(varIDs))
		for c := range varIDs {
			v := columns[c][r]
			if v == nil {
				row[c] = nil
				continue
			}
			term, err := parseLiteralTerm(v, vars)
			if err != nil {
				return nil, err
			}
			ct, ok := term.(query.ConstTerm)
			if !ok {
				return nil, queryerr.New(queryerr.InvalidQuery, "values row entries must be bound literals")
			}
			tv := ct.Value
			row[c] = &tv
		}
		rows[r] = row
	}

	return query.ValuesPattern{Vars: varIDs, Rows: rows}, nil
}

func parseGraphPattern(val interface{}, vars *query.VarTable) (query.Clause, error) {
	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "\"graph\" value must be a {name, where} map")
	}
	nameTerm, err := parseTerm(m["name"], vars)
	if err != nil {
		return nil, err
	}
	inner, err := parseNestedWhere(m["where"], vars)
	if err != nil {
		return nil, err
	}
	return query.GraphPattern{Name: nameTerm, Inner: inner}, nil
}

func parseServicePattern(val interface{}, vars *query.VarTable) (query.Clause, error) {
	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "\"service\" value must be a {endpoint, silent?, where} map")
	}
	endpoint, err := parseTerm(m["endpoint"], vars)
	if err != nil {
		return nil, err
	}
	inner, err := parseNestedWhere(m["where"], vars)
	if err != nil {
		return nil, err
	}
	silent, _ := m["silent"].(bool)
	return query.ServicePattern{Endpoint: endpoint, Silent: silent, Inner: inner}, nil
}

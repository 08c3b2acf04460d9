// Package parser turns a FlakeQL query document — a native map-shaped
// value (JSON object, or the Go map[string]interface{}/[]interface{}
// tree a JSON decoder produces) — into a validated query.ParsedQuery,
// the single representation the planner and executor consume regardless
// of whether it arrived as FQL or was translated from SPARQL.
// Grounded on the teacher's parser/parser.go: a recursive-descent walk
// over a generic parsed value keyed by reserved keyword/key names,
// adapted from Datalog's :find/:in/:where vocabulary to FQL's
// select/where/groupBy/... map surface.
package parser

import (
	"fmt"

	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// Parse validates and converts a decoded FQL query document into a
// query.ParsedQuery. doc is typically the result of json.Unmarshal into
// an interface{} (so maps are map[string]interface{} and arrays are
// []interface{}), but any equivalent Go value tree is accepted.
func Parse(doc interface{}) (*query.ParsedQuery, error) {
	m, ok := doc.(map[string]interface{})
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("query document must be an object, got %T", doc))
	}
	m = normalizeLegacy(m)

	vars := query.NewVarTable()
	q := &query.ParsedQuery{Vars: vars}

	whereRaw, _ := m["where"].([]interface{})
	where, err := parseWhere(whereRaw, vars)
	if err != nil {
		return nil, err
	}
	q.Where = where

	spec, err := parseSelect(m, vars)
	if err != nil {
		return nil, err
	}
	q.Select = spec.elements
	q.SelectMode = spec.mode
	q.Aggregates = append(q.Aggregates, spec.aggregates...)

	if raw, ok := m["groupBy"]; ok {
		gb, err := parseGroupBy(raw, vars)
		if err != nil {
			return nil, err
		}
		q.GroupBy = gb
	}

	if raw, ok := m["having"]; ok {
		exprs, err := parseExprList(raw, vars, "having")
		if err != nil {
			return nil, err
		}
		q.Having = exprs
	}

	if raw, ok := m["filter"]; ok {
		exprs, err := parseExprList(raw, vars, "filter")
		if err != nil {
			return nil, err
		}
		q.Filter = exprs
	}

	if raw, ok := m["orderBy"]; ok {
		ob, err := parseOrderBy(raw, vars)
		if err != nil {
			return nil, err
		}
		q.OrderBy = ob
	}

	if raw, ok := m["context"]; ok {
		ctx, err := parseContext(raw)
		if err != nil {
			return nil, err
		}
		q.Context = ctx
	}

	if raw, ok := m["vars"]; ok {
		in, err := parseIn(raw, vars)
		if err != nil {
			return nil, err
		}
		q.In = in
	}

	if raw, ok := m["depth"]; ok {
		n, ok := toInt(raw)
		if !ok || n < 0 {
			return nil, queryerr.New(queryerr.InvalidQuery, "\"depth\" must be a non-negative integer")
		}
		q.Depth = n
	}

	if err := parseLimitOffset(m, q); err != nil {
		return nil, err
	}

	opts, ok := m["opts"]
	if !ok {
		opts, ok = m["options"]
	}
	if ok {
		o, err := parseOpts(opts)
		if err != nil {
			return nil, err
		}
		q.Opts = *o
	}

	if err := validate(q); err != nil {
		return nil, err
	}

	return q, nil
}

// normalizeLegacy recognizes the legacy "basic query" shape
// (select+from+where-string) and transpiles it into the analytical
// select/where shape before the rest of Parse runs.
func normalizeLegacy(m map[string]interface{}) map[string]interface{} {
	fromRaw, hasFrom := m["from"]
	whereStr, hasWhereStr := m["where"].(string)
	if !hasFrom && !hasWhereStr {
		return m
	}
	if _, hasWhereArray := m["where"].([]interface{}); hasWhereArray {
		return m
	}

	out := make(map[string]interface{}, len(m)+2)
	for k, v := range m {
		out[k] = v
	}

	var where []interface{}
	if hasFrom {
		if from, ok := fromRaw.(string); ok {
			where = append(where, []interface{}{"?s", "rdf:type", from})
		}
		delete(out, "from")
	}
	if hasWhereStr {
		// A legacy basic query's where-string is used whole as the
		// predicate of a triple against the implicit subject variable,
		// with the boolean true as its bound object.
		where = append(where, []interface{}{"?s", whereStr, true})
	}
	out["where"] = where
	if _, hasSelect := out["select"]; !hasSelect {
		out["select"] = []interface{}{"?s"}
	}
	return out
}

func validate(q *query.ParsedQuery) error {
	modes := 0
	switch q.SelectMode {
	case query.SelectOne, query.SelectDistinct, query.SelectReduced, query.SelectMany:
		modes++
	}
	_ = modes // mutual exclusion already enforced during key lookup in parseSelect

	if q.SelectMode == query.SelectOne {
		one := int64(1)
		q.Limit = &one
	}
	if q.Limit != nil && *q.Limit < 0 {
		return queryerr.New(queryerr.InvalidQuery, "\"limit\" must be a positive integer")
	}
	if q.Offset < 0 {
		return queryerr.New(queryerr.InvalidQuery, "\"offset\" must not be negative")
	}
	if q.Opts.MaxFuel < 0 {
		return queryerr.New(queryerr.InvalidQuery, "\"fuel\"/\"maxFuel\" must be positive")
	}
	return nil
}

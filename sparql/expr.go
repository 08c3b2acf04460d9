package sparql

import (
	"strconv"
	"strings"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// funcNameMap translates a SPARQL built-in call name (matched
// case-insensitively per the grammar) to the FQL function-registry name
// it shares an implementation with (query/builtins.go), so a translated
// expression runs through the exact same FunctionRegistry the native FQL
// dialect uses — no SPARQL-specific evaluator exists or is needed.
var funcNameMap = map[string]string{
	"str": "str", "lang": "lang", "datatype": "datatype", "bound": "bound",
	"iri": "iri", "uri": "iri", "bnode": "bnode", "rand": "rand",
	"coalesce": "coalesce", "if": "if", "sameterm": "sameTerm",
	"isiri": "isIri", "isuri": "isIri", "isliteral": "isLiteral",
	"isnumeric": "isNumeric", "isblank": "isBlank",
	"regex": "regex", "contains": "contains", "strstarts": "strStarts",
	"strends": "strEnds", "strbefore": "strBefore", "strafter": "strAfter",
	"substr": "substr", "strlen": "strLen", "strlang": "strLang",
	"strdt": "strDt", "ucase": "ucase", "lcase": "lcase",
	"encode_for_uri": "encodeForUri", "now": "now", "uuid": "uuid",
	"md5": "md5", "sha1": "sha1", "sha256": "sha256", "sha512": "sha512",
	"year": "year", "month": "month", "day": "day",
	"hours": "hour", "minutes": "minute", "seconds": "second",
	"count": "count", "sum": "sum", "avg": "avg", "min": "min", "max": "max",
	"sample": "sample", "group_concat": "groupconcat",
}

var aggregateCallNames = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"sample": true, "group_concat": true,
}

// parseExpression parses the full ConditionalOrExpression grammar via a
// standard precedence-climbing descent: ||, then &&, then relational
// (=,!=,<,<=,>,>=,IN/NOT IN), then additive (+,-), then multiplicative
// (*,/), then unary (!,+,-), bottoming out at parsePrimaryExpression.
func (p *parser) parseExpression() (*query.Expr, error) {
	return p.parseOrExpr()
}

func (p *parser) parseOrExpr() (*query.Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.peekPunct("||") {
		p.next()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &query.Expr{Op: "or", Args: []*query.Expr{left, right}}
	}
	return left, nil
}

func (p *parser) parseAndExpr() (*query.Expr, error) {
	left, err := p.parseRelationalExpr()
	if err != nil {
		return nil, err
	}
	for p.peekPunct("&&") {
		p.next()
		right, err := p.parseRelationalExpr()
		if err != nil {
			return nil, err
		}
		left = &query.Expr{Op: "and", Args: []*query.Expr{left, right}}
	}
	return left, nil
}

var relOps = map[string]bool{"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseRelationalExpr() (*query.Expr, error) {
	left, err := p.parseAdditiveExpr()
	if err != nil {
		return nil, err
	}
	if t := p.cur(); t.kind == tPunct && relOps[t.text] {
		op := t.text
		p.next()
		right, err := p.parseAdditiveExpr()
		if err != nil {
			return nil, err
		}
		return &query.Expr{Op: op, Args: []*query.Expr{left, right}}, nil
	}
	if p.peekKeyword("IN") {
		return p.parseInExpr(left, false)
	}
	if p.peekKeyword("NOT") {
		save := p.pos
		p.next()
		if p.peekKeyword("IN") {
			return p.parseInExpr(left, true)
		}
		p.pos = save
	}
	return left, nil
}

func (p *parser) parseInExpr(left *query.Expr, negate bool) (*query.Expr, error) {
	p.next() // IN
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	args := []*query.Expr{left}
	if !p.peekPunct(")") {
		for {
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if p.peekPunct(",") {
				p.next()
				continue
			}
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	e := &query.Expr{Op: "in", Args: args}
	if negate {
		return &query.Expr{Op: "not", Args: []*query.Expr{e}}, nil
	}
	return e, nil
}

func (p *parser) parseAdditiveExpr() (*query.Expr, error) {
	left, err := p.parseMultiplicativeExpr()
	if err != nil {
		return nil, err
	}
	for p.peekPunct("+") || p.peekPunct("-") {
		op := p.cur().text
		p.next()
		right, err := p.parseMultiplicativeExpr()
		if err != nil {
			return nil, err
		}
		left = &query.Expr{Op: op, Args: []*query.Expr{left, right}}
	}
	return left, nil
}

func (p *parser) parseMultiplicativeExpr() (*query.Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}
	for p.peekPunct("*") || p.peekPunct("/") {
		op := p.cur().text
		p.next()
		right, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		left = &query.Expr{Op: op, Args: []*query.Expr{left, right}}
	}
	return left, nil
}

func (p *parser) parseUnaryExpr() (*query.Expr, error) {
	if p.peekPunct("!") {
		p.next()
		inner, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &query.Expr{Op: "not", Args: []*query.Expr{inner}}, nil
	}
	if p.peekPunct("+") {
		p.next()
		return p.parseUnaryExpr()
	}
	if p.peekPunct("-") {
		p.next()
		inner, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		zero := &query.Expr{Leaf: query.ConstTerm{Value: datatype.New(int64(0), datatype.Integer)}}
		return &query.Expr{Op: "-", Args: []*query.Expr{zero, inner}}, nil
	}
	return p.parsePrimaryExpr()
}

func (p *parser) parsePrimaryExpr() (*query.Expr, error) {
	t := p.cur()
	switch {
	case t.kind == tPunct && t.text == "(":
		p.next()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil

	case t.kind == tVar:
		p.next()
		return &query.Expr{Leaf: query.VarTerm{Var: p.vars.Intern(t.text), Name: t.text}}, nil

	case t.kind == tString:
		p.next()
		id := datatype.String
		if t.lang != "" {
			id = datatype.LangString
		}
		return &query.Expr{Leaf: query.ConstTerm{Value: datatype.New(t.text, id)}}, nil

	case t.kind == tNumber:
		p.next()
		return &query.Expr{Leaf: query.ConstTerm{Value: numberLiteral(t.text)}}, nil

	case t.kind == tIRI:
		p.next()
		return &query.Expr{Leaf: query.ConstTerm{Value: datatype.New(t.text, datatype.AnyURI)}}, nil

	case t.kind == tPName:
		p.next()
		iri, err := p.resolvePName(t.text)
		if err != nil {
			return nil, err
		}
		return &query.Expr{Leaf: query.ConstTerm{Value: datatype.New(iri, datatype.AnyURI)}}, nil

	case t.kind == tIdent:
		lower := strings.ToLower(t.text)
		if lower == "true" || lower == "false" {
			p.next()
			return &query.Expr{Leaf: query.ConstTerm{Value: datatype.New(lower == "true", datatype.Boolean)}}, nil
		}
		return p.parseBuiltInOrFunctionCall()
	}
	return nil, queryerr.New(queryerr.InvalidQuery, "expected an expression")
}

// parseBuiltInOrFunctionCall parses `IDENT "(" [DISTINCT] ArgList? ")"`,
// mapping the built-in name through funcNameMap; COUNT(*) is rewritten to
// count the first variable interned anywhere in the query before the
// call is parsed (a variable projected earlier in SELECT, or a WHERE
// variable when the call follows WHERE), since postprocess.EvalAggregate
// requires its aggregate argument to be an actual variable term. With no
// such variable, COUNT(*) is an error.
func (p *parser) parseBuiltInOrFunctionCall() (*query.Expr, error) {
	name := p.cur().text
	lower := strings.ToLower(name)
	p.next()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	isAgg := aggregateCallNames[lower]
	distinct := false
	if isAgg && p.peekKeyword("DISTINCT") {
		distinct = true
		p.next()
	}

	var args []*query.Expr
	if isAgg && p.peekPunct("*") {
		p.next()
		if !p.firstVarSet {
			return nil, queryerr.New(queryerr.InvalidQuery, "COUNT(*) requires at least one variable bound earlier in the query")
		}
		args = []*query.Expr{{Leaf: query.VarTerm{Var: p.firstVar, Name: p.varName(p.firstVar)}}}
	} else if !p.peekPunct(")") {
		for {
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if p.peekPunct(",") {
				p.next()
				continue
			}
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	fqlName, ok := funcNameMap[lower]
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "unknown function \""+name+"\"")
	}
	if distinct && len(args) == 1 {
		args[0] = &query.Expr{Op: "distinct", Args: []*query.Expr{args[0]}}
	}
	return &query.Expr{Op: fqlName, Args: args}, nil
}

func numberLiteral(text string) datatype.TypedValue {
	if strings.ContainsAny(text, ".eE") {
		f, _ := strconv.ParseFloat(text, 64)
		return datatype.New(f, datatype.Double)
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(text, 64)
		return datatype.New(f, datatype.Double)
	}
	return datatype.New(i, datatype.Integer)
}

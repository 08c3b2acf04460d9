package sparql

import (
	"strconv"
	"strings"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// parseGroupGraphPattern parses `"{" (TriplesBlock | GraphPatternNotTriples
// | Filter)* "}"`, translating straight into the []query.Clause sequence
// the executor consumes, mirroring where.go's parser.parseWhere shape but
// driven by SPARQL's brace-delimited, dot/semicolon-punctuated grammar
// instead of a where-array.
func (p *parser) parseGroupGraphPattern() ([]query.Clause, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var clauses []query.Clause
	for !p.peekPunct("}") {
		switch {
		case p.peekKeyword("OPTIONAL"):
			p.next()
			inner, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, query.OptionalPattern{Inner: inner})

		case p.peekKeyword("MINUS"):
			p.next()
			inner, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, query.MinusPattern{Inner: inner, FromSPARQL: true})

		case p.peekKeyword("GRAPH"):
			p.next()
			name, err := p.parseVarOrTerm()
			if err != nil {
				return nil, err
			}
			inner, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, query.GraphPattern{Name: name, Inner: inner})

		case p.peekKeyword("SERVICE"):
			p.next()
			silent := false
			if p.peekKeyword("SILENT") {
				silent = true
				p.next()
			}
			endpoint, err := p.parseVarOrTerm()
			if err != nil {
				return nil, err
			}
			inner, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, query.ServicePattern{Endpoint: endpoint, Silent: silent, Inner: inner})

		case p.peekKeyword("FILTER"):
			p.next()
			e, err := p.parseConstraint()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, query.FilterPattern{Exprs: []*query.Expr{e}})

		case p.peekKeyword("BIND"):
			p.next()
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectKeyword("AS"); err != nil {
				return nil, err
			}
			if p.cur().kind != tVar {
				return nil, queryerr.New(queryerr.InvalidQuery, "expected a variable after AS in BIND")
			}
			t := p.next()
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			v := p.internVar(t.text)
			clauses = append(clauses, query.BindPattern{Assignments: []query.BindAssignment{
				{Var: v, Name: t.text, Expr: e},
			}})

		case p.peekKeyword("VALUES"):
			p.next()
			vp, err := p.parseValuesClause()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, vp)

		case p.peekPunct("{"):
			branches, err := p.parseUnionBranches()
			if err != nil {
				return nil, err
			}
			if len(branches) == 1 {
				clauses = append(clauses, branches[0]...)
			} else {
				clauses = append(clauses, query.UnionPattern{Branches: branches})
			}

		default:
			block, err := p.parseTriplesBlock()
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, block...)
		}

		if p.peekPunct(".") {
			p.next()
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return clauses, nil
}

// parseUnionBranches parses a GroupGraphPattern already known to start
// with "{", followed by any number of "UNION {...}" continuations,
// collapsing to a single branch (no UnionPattern) when there is exactly
// one, matching the grammar's "GroupGraphPattern ('UNION'
// GroupGraphPattern)*" production.
func (p *parser) parseUnionBranches() ([][]query.Clause, error) {
	first, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	branches := [][]query.Clause{first}
	for p.peekKeyword("UNION") {
		p.next()
		branch, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	return branches, nil
}

func (p *parser) parseConstraint() (*query.Expr, error) {
	if p.peekPunct("(") {
		p.next()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	}
	return p.parsePrimaryExpr()
}

func (p *parser) parseValuesClause() (query.Clause, error) {
	var varNames []string
	if p.peekPunct("(") {
		p.next()
		for p.cur().kind == tVar {
			t := p.next()
			varNames = append(varNames, t.text)
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	} else if p.cur().kind == tVar {
		t := p.next()
		varNames = append(varNames, t.text)
	} else {
		return nil, queryerr.New(queryerr.InvalidQuery, "VALUES requires a variable or parenthesized variable list")
	}

	varIDs := make([]query.VarID, len(varNames))
	for i, n := range varNames {
		varIDs[i] = p.internVar(n)
	}

	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var rows []query.ValuesRow
	for !p.peekPunct("}") {
		var row query.ValuesRow
		if len(varNames) == 1 && !p.peekPunct("(") {
			v, err := p.parseDataBlockValue()
			if err != nil {
				return nil, err
			}
			row = query.ValuesRow{v}
		} else {
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			for len(row) < len(varNames) {
				v, err := p.parseDataBlockValue()
				if err != nil {
					return nil, err
				}
				row = append(row, v)
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return query.ValuesPattern{Vars: varIDs, Rows: rows}, nil
}

func (p *parser) parseDataBlockValue() (*datatype.TypedValue, error) {
	if p.peekKeyword("UNDEF") {
		p.next()
		return nil, nil
	}
	term, err := p.parseGraphTerm()
	if err != nil {
		return nil, err
	}
	ct, ok := term.(query.ConstTerm)
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "VALUES row entries must be bound literals")
	}
	v := ct.Value
	return &v, nil
}

// parseTriplesBlock parses one `.`-terminated TriplesSameSubjectPath:
// a subject followed by one or more `;`-separated predicate-object lists,
// each with one or more `,`-separated objects.
func (p *parser) parseTriplesBlock() ([]query.Clause, error) {
	subj, err := p.parseVarOrTerm()
	if err != nil {
		return nil, err
	}
	var clauses []query.Clause
	for {
		predClauses, err := p.parsePredicateObjectList(subj)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, predClauses...)
		if p.peekPunct(";") {
			p.next()
			if p.peekPunct(".") || p.peekPunct("}") {
				break
			}
			continue
		}
		break
	}
	return clauses, nil
}

func (p *parser) parsePredicateObjectList(subj query.Term) ([]query.Clause, error) {
	predTok, repeat, err := p.parsePropertyPath()
	if err != nil {
		return nil, err
	}
	var clauses []query.Clause
	for {
		obj, err := p.parseVarOrTerm()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, buildTriplePattern(subj, predTok, obj, repeat))
		if p.peekPunct(",") {
			p.next()
			continue
		}
		break
	}
	return clauses, nil
}

func buildTriplePattern(subj query.Term, pred termOrClass, obj query.Term, repeat int) query.Clause {
	if pred.isType {
		return query.ClassPattern{Subject: subj, Class: obj}
	}
	if pred.isID {
		return query.IRIPattern{Subject: subj}
	}
	return query.TuplePattern{Subject: subj, Predicate: pred.term, Object: obj, Repeat: repeat}
}

// termOrClass distinguishes the "a" (rdf:type) and ordinary predicate
// shapes a parsed property path can take.
type termOrClass struct {
	term   query.Term
	isType bool
	isID   bool
}

// parsePropertyPath parses the predicate position: the "a" keyword
// (rdf:type shorthand), an ordinary IRI/prefixed-name/variable predicate,
// or an IRI immediately followed by "+" and an integer repeat count; any
// other path operator is rejected.
func (p *parser) parsePropertyPath() (termOrClass, int, error) {
	if p.peekKeyword("a") {
		p.next()
		return termOrClass{isType: true}, 0, nil
	}
	term, err := p.parseVarOrTerm()
	if err != nil {
		return termOrClass{}, 0, err
	}
	if ct, ok := term.(query.ConstTerm); ok {
		if s, ok := ct.Value.Value.(string); ok && s == "@id" {
			return termOrClass{isID: true}, 0, nil
		}
	}
	if p.peekPunct("+") {
		p.next()
		n, err := p.expectNumber()
		if err != nil {
			return termOrClass{}, 0, queryerr.New(queryerr.InvalidQuery, "only IRI+N property paths are supported, found an unbounded or complex path")
		}
		return termOrClass{term: term}, int(n), nil
	}
	if p.peekPunct("/") || p.peekPunct("|") || p.peekPunct("*") || p.peekPunct("^") || p.peekPunct("!") {
		return termOrClass{}, 0, queryerr.New(queryerr.InvalidQuery, "property paths beyond a predicate IRI with optional \"+N\" are not supported")
	}
	return termOrClass{term: term}, 0, nil
}

// parseVarOrTerm parses one subject/object-position term: a variable, an
// IRI/prefixed name, an RDF literal, a numeric/boolean literal, or a
// blank node (anonymous "[]" or a labeled "_:id"), each blank node
// becoming a fresh synthetic variable since the engine has no blank-node
// identity distinct from a variable within one query's scope.
func (p *parser) parseVarOrTerm() (query.Term, error) {
	t := p.cur()
	switch {
	case t.kind == tVar:
		p.next()
		return query.VarTerm{Var: p.internVar(t.text), Name: t.text}, nil
	case t.kind == tPunct && t.text == "[":
		p.next()
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		name := p.newBlankVar()
		return query.VarTerm{Var: p.internVar(name), Name: name}, nil
	default:
		if t.kind == tPName && strings.HasPrefix(t.text, "_:") {
			p.next()
			name := "?" + t.text
			return query.VarTerm{Var: p.internVar(name), Name: name}, nil
		}
		return p.parseGraphTerm()
	}
}

// parseGraphTerm parses a bound term only: IRI, prefixed name, or RDF
// literal (string with optional @lang/^^datatype, number, boolean).
func (p *parser) parseGraphTerm() (query.Term, error) {
	t := p.next()
	switch t.kind {
	case tIRI:
		return query.ConstTerm{Value: datatype.New(t.text, datatype.AnyURI)}, nil
	case tPName:
		iri, err := p.resolvePName(t.text)
		if err != nil {
			return nil, err
		}
		return query.ConstTerm{Value: datatype.New(iri, datatype.AnyURI)}, nil
	case tString:
		if t.datatype != "" {
			return query.ConstTerm{Value: datatype.New(t.text, datatype.String)}, nil
		}
		if t.lang != "" {
			return query.ConstTerm{Value: datatype.New(t.text, datatype.LangString)}, nil
		}
		return query.ConstTerm{Value: datatype.New(t.text, datatype.String)}, nil
	case tNumber:
		return query.ConstTerm{Value: numberLiteral(t.text)}, nil
	case tIdent:
		lower := strings.ToLower(t.text)
		if lower == "true" || lower == "false" {
			return query.ConstTerm{Value: datatype.New(lower == "true", datatype.Boolean)}, nil
		}
		if lower == "a" {
			return query.ConstTerm{Value: datatype.New("rdf:type", datatype.AnyURI)}, nil
		}
	}
	return nil, queryerr.New(queryerr.InvalidQuery, "expected a term, got \""+t.text+"\" (offset token "+strconv.Itoa(p.pos)+")")
}

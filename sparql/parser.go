// Package sparql translates a supported fragment of SPARQL 1.1 SELECT
// queries into a query.ParsedQuery, the same representation parser.Parse
// produces from native FQL documents, so the planner and executor consume
// either surface identically.
//
// No SPARQL grammar exists anywhere in the example pack, so this is a
// from-scratch grammar-directed recursive-descent parser, authored in the
// teacher's own parser idiom (parser/parser.go's one-method-per-nonterminal
// shape: parseX reads exactly the nonterminal X and nothing more) rather
// than adapting a generated-grammar library the teacher never uses.
package sparql

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// parser walks the flat token stream produced by lexer.tokenize, building
// query.Clause/query.Expr values directly rather than through an
// intermediate AST, mirroring the teacher's direct-to-domain-type parser
// style (no separate untyped parse tree stage).
type parser struct {
	toks []token
	pos  int

	vars     *query.VarTable
	prefixes map[string]string
	base     string

	// firstVar/firstVarSet track the first variable interned anywhere in
	// the query so far, used as COUNT(*)'s implicit argument (see expr.go).
	firstVar    query.VarID
	firstVarSet bool
}

func newParser(toks []token) *parser {
	return &parser{toks: toks, vars: query.NewVarTable(), prefixes: map[string]string{}}
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) peekPunct(text string) bool {
	t := p.cur()
	return t.kind == tPunct && t.text == text
}

// peekKeyword reports whether the current token is a bare identifier
// matching kw case-insensitively, the convention SPARQL keywords use
// throughout the grammar.
func (p *parser) peekKeyword(kw string) bool {
	t := p.cur()
	return t.kind == tIdent && strings.EqualFold(t.text, kw)
}

func (p *parser) expectPunct(text string) error {
	if !p.peekPunct(text) {
		return queryerr.New(queryerr.InvalidQuery, "expected \""+text+"\", got \""+p.cur().text+"\"")
	}
	p.next()
	return nil
}

func (p *parser) expectKeyword(kw string) error {
	if !p.peekKeyword(kw) {
		return queryerr.New(queryerr.InvalidQuery, "expected \""+kw+"\", got \""+p.cur().text+"\"")
	}
	p.next()
	return nil
}

func (p *parser) varName(id query.VarID) string { return p.vars.Name(id) }

func (p *parser) internVar(name string) query.VarID {
	id := p.vars.Intern(name)
	if !p.firstVarSet {
		p.firstVar = id
		p.firstVarSet = true
	}
	return id
}

func (p *parser) resolvePName(pname string) (string, error) {
	idx := strings.IndexByte(pname, ':')
	if idx < 0 {
		return "", queryerr.New(queryerr.InvalidQuery, "malformed prefixed name \""+pname+"\"")
	}
	prefix, local := pname[:idx], pname[idx+1:]
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", queryerr.New(queryerr.InvalidQuery, "undefined prefix \""+prefix+"\"")
	}
	return ns + local, nil
}

// newBlankVar synthesizes a variable name for one blank node encountered
// while parsing, backed by a real UUID rather than a hand-rolled
// monotonic counter.
func (p *parser) newBlankVar() string {
	return "?_bnode_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// parseQuery is the grammar's top-level nonterminal: a Prologue followed
// by exactly one of SelectQuery/ConstructQuery/a SPARQL Update form. Only
// SELECT is translated to a query.ParsedQuery; CONSTRUCT, ASK, DESCRIBE,
// and the update forms are recognized and rejected with a clear error
// rather than silently mistranslated.
func (p *parser) parseQuery() (*query.ParsedQuery, error) {
	if err := p.parsePrologue(); err != nil {
		return nil, err
	}
	switch {
	case p.peekKeyword("SELECT"):
		return p.parseSelectQuery()
	case p.peekKeyword("CONSTRUCT"):
		return nil, queryerr.New(queryerr.Unsupported, "CONSTRUCT queries are not supported by this translator")
	case p.peekKeyword("ASK"):
		return nil, queryerr.New(queryerr.Unsupported, "ASK queries are not supported")
	case p.peekKeyword("DESCRIBE"):
		return nil, queryerr.New(queryerr.Unsupported, "DESCRIBE queries are not supported")
	case p.peekKeyword("DELETE"), p.peekKeyword("INSERT"), p.peekKeyword("WITH"), p.peekKeyword("USING"):
		return nil, queryerr.New(queryerr.Unsupported, "SPARQL Update execution is not supported")
	default:
		return nil, queryerr.New(queryerr.InvalidQuery, "expected SELECT, CONSTRUCT, ASK, or DESCRIBE")
	}
}

// parsePrologue consumes any number of PREFIX/BASE declarations,
// building the prefix map used to expand every qname in the query body.
func (p *parser) parsePrologue() error {
	for {
		switch {
		case p.peekKeyword("PREFIX"):
			p.next()
			nameTok := p.next()
			if nameTok.kind != tPName {
				return queryerr.New(queryerr.InvalidQuery, "expected a prefix label after PREFIX")
			}
			prefix := strings.TrimSuffix(nameTok.text, ":")
			iriTok := p.next()
			if iriTok.kind != tIRI {
				return queryerr.New(queryerr.InvalidQuery, "expected an IRI after PREFIX "+prefix+":")
			}
			p.prefixes[prefix] = iriTok.text
		case p.peekKeyword("BASE"):
			p.next()
			iriTok := p.next()
			if iriTok.kind != tIRI {
				return queryerr.New(queryerr.InvalidQuery, "expected an IRI after BASE")
			}
			p.base = iriTok.text
		default:
			return nil
		}
	}
}

// parseSelectQuery parses SELECT (DISTINCT|REDUCED)? (* | Var+)
// DatasetClause* WhereClause SolutionModifier.
func (p *parser) parseSelectQuery() (*query.ParsedQuery, error) {
	p.next() // SELECT
	q := &query.ParsedQuery{Vars: p.vars}

	switch {
	case p.peekKeyword("DISTINCT"):
		p.next()
		q.SelectMode = query.SelectDistinct
	case p.peekKeyword("REDUCED"):
		p.next()
		q.SelectMode = query.SelectReduced
	default:
		q.SelectMode = query.SelectMany
	}

	if p.peekPunct("*") {
		p.next()
		q.Select = nil // resolved to "every projected variable" below, once WHERE is parsed
	} else {
		for p.cur().kind == tVar || (p.cur().kind == tPunct && p.cur().text == "(") {
			el, err := p.parseSelectElement()
			if err != nil {
				return nil, err
			}
			q.Select = append(q.Select, el)
		}
		if len(q.Select) == 0 {
			return nil, queryerr.New(queryerr.InvalidQuery, "SELECT requires \"*\" or at least one projected variable")
		}
	}

	for p.peekKeyword("FROM") {
		p.next()
		named := false
		if p.peekKeyword("NAMED") {
			return nil, queryerr.New(queryerr.InvalidQuery, "FROM NAMED is not supported")
		}
		iri, err := p.parseIRIValue()
		if err != nil {
			return nil, err
		}
		if !named {
			q.Opts.From = iri
		}
	}

	if err := p.expectKeyword("WHERE"); nonFatalWhere(p, err) {
		// WHERE is optional-keyword per the grammar (bare "{" is legal),
		// so a missing keyword is not itself an error so long as a
		// group graph pattern follows.
	} else if err != nil {
		return nil, err
	}

	where, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	q.Where = where

	if q.Select == nil {
		for _, id := range projectedVarOrder(where) {
			q.Select = append(q.Select, query.SelectElement{Var: id})
		}
	}

	if err := p.parseSolutionModifier(q); err != nil {
		return nil, err
	}
	return q, nil
}

// nonFatalWhere lets the optional WHERE keyword be skipped without
// consuming a token when it is absent, since expectKeyword already
// advanced nothing on failure.
func nonFatalWhere(p *parser, err error) bool {
	return err != nil && p.peekPunct("{")
}

// parseSelectElement parses one SELECT projection entry: a bare variable,
// or `(Expression AS ?var)`.
func (p *parser) parseSelectElement() (query.SelectElement, error) {
	if p.cur().kind == tVar {
		t := p.next()
		return query.SelectElement{Var: p.internVar(t.text)}, nil
	}
	if err := p.expectPunct("("); err != nil {
		return query.SelectElement{}, err
	}
	e, err := p.parseExpression()
	if err != nil {
		return query.SelectElement{}, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return query.SelectElement{}, err
	}
	if p.cur().kind != tVar {
		return query.SelectElement{}, queryerr.New(queryerr.InvalidQuery, "expected a variable after AS")
	}
	alias := p.next()
	if err := p.expectPunct(")"); err != nil {
		return query.SelectElement{}, err
	}
	e.As = alias.text
	if e.IsAggregate() {
		v := p.internVar(alias.text)
		return query.SelectElement{Var: v}, nil
	}
	return query.SelectElement{Expr: e}, nil
}

func (p *parser) parseIRIValue() (string, error) {
	t := p.next()
	switch t.kind {
	case tIRI:
		return t.text, nil
	case tPName:
		return p.resolvePName(t.text)
	default:
		return "", queryerr.New(queryerr.InvalidQuery, "expected an IRI, got \""+t.text+"\"")
	}
}

// projectedVarOrder returns every variable bound by a binding pattern in
// where, in first-occurrence order, used for `SELECT *`'s implicit
// projection list.
func projectedVarOrder(where []query.Clause) []query.VarID {
	seen := map[query.VarID]bool{}
	var out []query.VarID
	var visitTerm func(t query.Term)
	visitTerm = func(t query.Term) {
		if vt, ok := t.(query.VarTerm); ok {
			if !seen[vt.Var] {
				seen[vt.Var] = true
				out = append(out, vt.Var)
			}
		}
	}
	var visit func(c query.Clause)
	visit = func(c query.Clause) {
		switch p := c.(type) {
		case query.TuplePattern:
			visitTerm(p.Subject)
			visitTerm(p.Predicate)
			visitTerm(p.Object)
		case query.ClassPattern:
			visitTerm(p.Subject)
		case query.IRIPattern:
			visitTerm(p.Subject)
		case query.FullTextPattern:
			visitTerm(p.Subject)
		case query.OptionalPattern:
			for _, inner := range p.Inner {
				visit(inner)
			}
		case query.UnionPattern:
			for _, branch := range p.Branches {
				for _, inner := range branch {
					visit(inner)
				}
			}
		case query.MinusPattern:
			for _, inner := range p.Inner {
				visit(inner)
			}
		case query.BindPattern:
			for _, a := range p.Assignments {
				if !seen[a.Var] {
					seen[a.Var] = true
					out = append(out, a.Var)
				}
			}
		case query.GraphPattern:
			for _, inner := range p.Inner {
				visit(inner)
			}
		case query.ServicePattern:
			for _, inner := range p.Inner {
				visit(inner)
			}
		}
	}
	for _, c := range where {
		visit(c)
	}
	return out
}

// parseSolutionModifier parses GROUP BY, HAVING, ORDER BY, LIMIT, OFFSET
// in the grammar's fixed order.
func (p *parser) parseSolutionModifier(q *query.ParsedQuery) error {
	if p.peekKeyword("GROUP") {
		p.next()
		if err := p.expectKeyword("BY"); err != nil {
			return err
		}
		var gb query.GroupBy
		for p.cur().kind == tVar || p.peekPunct("(") {
			if p.cur().kind == tVar {
				t := p.next()
				gb.Vars = append(gb.Vars, p.internVar(t.text))
				continue
			}
			p.next()
			e, err := p.parseExpression()
			if err != nil {
				return err
			}
			if err := p.expectPunct(")"); err != nil {
				return err
			}
			alias := e.As
			if alias == "" {
				alias = "?_group" + strconv.Itoa(len(gb.Vars))
			}
			v := p.internVar(alias)
			q.Aggregates = append(q.Aggregates, query.BindAssignment{Var: v, Name: alias, Expr: e})
			gb.Vars = append(gb.Vars, v)
		}
		q.GroupBy = &gb
	}

	if p.peekKeyword("HAVING") {
		p.next()
		if err := p.expectPunct("("); err != nil {
			return err
		}
		e, err := p.parseExpression()
		if err != nil {
			return err
		}
		if err := p.expectPunct(")"); err != nil {
			return err
		}
		q.Having = append(q.Having, e)
	}

	if p.peekKeyword("ORDER") {
		p.next()
		if err := p.expectKeyword("BY"); err != nil {
			return err
		}
		for p.cur().kind == tVar || p.peekKeyword("ASC") || p.peekKeyword("DESC") || p.peekPunct("(") {
			clause, err := p.parseOrderCondition(len(q.OrderBy))
			if err != nil {
				return err
			}
			if clause.bind != nil {
				q.Aggregates = append(q.Aggregates, *clause.bind)
			}
			q.OrderBy = append(q.OrderBy, query.OrderByClause{Var: clause.v, Direction: clause.dir})
		}
	}

	if p.peekKeyword("LIMIT") {
		p.next()
		n, err := p.expectNumber()
		if err != nil {
			return err
		}
		q.Limit = &n
	}
	if p.peekKeyword("OFFSET") {
		p.next()
		n, err := p.expectNumber()
		if err != nil {
			return err
		}
		q.Offset = n
	}
	return nil
}

// orderCondition is one parsed ORDER BY clause; bind is set when the
// condition was a bare/ASC/DESC-wrapped expression rather than a plain
// variable, carrying the synthetic binding the caller must fold into
// q.Aggregates so the variable it sorts by actually exists.
type orderCondition struct {
	v    query.VarID
	dir  query.OrderDirection
	bind *query.BindAssignment
}

func (p *parser) parseOrderCondition(index int) (orderCondition, error) {
	dir := query.Asc
	wantParen := false
	if p.peekKeyword("ASC") {
		p.next()
		wantParen = true
	} else if p.peekKeyword("DESC") {
		dir = query.Desc
		p.next()
		wantParen = true
	}

	if !wantParen && p.cur().kind == tVar {
		t := p.next()
		return orderCondition{v: p.internVar(t.text), dir: dir}, nil
	}

	if err := p.expectPunct("("); err != nil {
		return orderCondition{}, err
	}
	e, err := p.parseExpression()
	if err != nil {
		return orderCondition{}, err
	}
	if err := p.expectPunct(")"); err != nil {
		return orderCondition{}, err
	}
	alias := e.As
	if alias == "" {
		alias = "?_order" + strconv.Itoa(index)
	}
	v := p.internVar(alias)
	bind := query.BindAssignment{Var: v, Name: alias, Expr: e}
	return orderCondition{v: v, dir: dir, bind: &bind}, nil
}

func (p *parser) expectNumber() (int64, error) {
	t := p.next()
	if t.kind != tNumber {
		return 0, queryerr.New(queryerr.InvalidQuery, "expected a number, got \""+t.text+"\"")
	}
	n, err := strconv.ParseInt(t.text, 10, 64)
	if err != nil {
		return 0, queryerr.New(queryerr.InvalidQuery, "expected an integer, got \""+t.text+"\"")
	}
	return n, nil
}

package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// exprTokenizer splits a single top-level s-expression string into atoms,
// parens, and quoted strings, the same shallow hand-rolled lexer shape
// the teacher uses for EDN (datalog/edn's rune-at-a-time scanner)
// specialized to the much smaller "(fn arg …)" grammar expressions use.
type exprTokenizer struct {
	s   string
	pos int
}

func newExprTokenizer(s string) *exprTokenizer { return &exprTokenizer{s: s} }

func (t *exprTokenizer) skipSpace() {
	for t.pos < len(t.s) && unicode.IsSpace(rune(t.s[t.pos])) {
		t.pos++
	}
}

func (t *exprTokenizer) peek() (byte, bool) {
	t.skipSpace()
	if t.pos >= len(t.s) {
		return 0, false
	}
	return t.s[t.pos], true
}

// next returns the next token: "(" / ")" as themselves, a quoted string
// (with surrounding quotes preserved so the caller can tell it apart from
// a bare atom), or a bare atom run up to the next space/paren.
func (t *exprTokenizer) next() (string, bool) {
	t.skipSpace()
	if t.pos >= len(t.s) {
		return "", false
	}
	c := t.s[t.pos]
	if c == '(' || c == ')' {
		t.pos++
		return string(c), true
	}
	if c == '"' {
		start := t.pos
		t.pos++
		for t.pos < len(t.s) && t.s[t.pos] != '"' {
			if t.s[t.pos] == '\\' && t.pos+1 < len(t.s) {
				t.pos++
			}
			t.pos++
		}
		t.pos++ // closing quote
		return t.s[start:t.pos], true
	}
	start := t.pos
	for t.pos < len(t.s) && !unicode.IsSpace(rune(t.s[t.pos])) && t.s[t.pos] != '(' && t.s[t.pos] != ')' {
		t.pos++
	}
	return t.s[start:t.pos], true
}

// ParseExprString parses a single top-level s-expression ("(fn arg1 arg2
// …)"), optionally prefixed with "#" marking an aggregate binding; the
// "#" is stripped before the function
// name is read, since query.Expr.IsAggregate dispatches on Op name alone.
// Variable atoms are interned against vars so they share VarIDs with the
// rest of the parsed query.
func ParseExprString(s string, vars *query.VarTable) (*query.Expr, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	tk := newExprTokenizer(s)
	e, err := parseExprForm(tk, vars)
	if err != nil {
		return nil, err
	}
	if tok, ok := tk.next(); ok {
		return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("unexpected trailing token %q in expression", tok))
	}
	return e, nil
}

func parseExprForm(tk *exprTokenizer, vars *query.VarTable) (*query.Expr, error) {
	tok, ok := tk.next()
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "empty expression")
	}
	if tok != "(" {
		return nil, queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("expression must be a parenthesized call, got %q", tok))
	}

	fn, ok := tk.next()
	if !ok || fn == "(" || fn == ")" {
		return nil, queryerr.New(queryerr.InvalidQuery, "expression call is missing a function name")
	}

	var args []*query.Expr
	for {
		b, ok := tk.peek()
		if !ok {
			return nil, queryerr.New(queryerr.InvalidQuery, "unterminated expression: missing \")\"")
		}
		if b == ')' {
			tk.next()
			break
		}
		arg, err := parseExprArg(tk, vars)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	// `(as <expr> ?alias)` wraps the inner expression with a projection
	// alias rather than being a function call itself.
	if fn == "as" {
		if len(args) != 2 {
			return nil, queryerr.New(queryerr.InvalidQuery, "\"as\" requires exactly 2 arguments: expression and alias variable")
		}
		inner := args[0]
		alias, ok := args[1].Leaf.(query.VarTerm)
		if !ok {
			return nil, queryerr.New(queryerr.InvalidQuery, "\"as\" alias must be a variable")
		}
		inner.As = alias.Name
		return inner, nil
	}

	if strings.HasPrefix(fn, "distinct ") || fn == "distinct" {
		// `(count (distinct ?x))` nests the aggregate-argument wrapper as
		// its own form; it parses to the same expression as the bare
		// `distinct ?x` argument handled in parseExprArg.
		if fn != "distinct" || len(args) != 1 {
			return nil, queryerr.New(queryerr.InvalidQuery, "\"distinct\" takes exactly one argument")
		}
		return &query.Expr{Op: "distinct", Args: args}, nil
	}

	return &query.Expr{Op: fn, Args: args}, nil
}

// parseExprArg parses one call argument: a nested "(...)" form, a quoted
// string literal, the "distinct ?v" aggregate-argument wrapper, or a bare
// atom (variable, number, boolean, or a bare symbol treated as a string
// constant).
func parseExprArg(tk *exprTokenizer, vars *query.VarTable) (*query.Expr, error) {
	b, _ := tk.peek()
	if b == '(' {
		return parseExprForm(tk, vars)
	}
	atom, ok := tk.next()
	if !ok {
		return nil, queryerr.New(queryerr.InvalidQuery, "unexpected end of expression")
	}
	if atom == "distinct" {
		inner, err := parseExprArg(tk, vars)
		if err != nil {
			return nil, err
		}
		return &query.Expr{Op: "distinct", Args: []*query.Expr{inner}}, nil
	}
	return atomToExpr(atom, vars), nil
}

func atomToExpr(atom string, vars *query.VarTable) *query.Expr {
	if strings.HasPrefix(atom, "\"") && strings.HasSuffix(atom, "\"") && len(atom) >= 2 {
		unquoted := unescapeString(atom[1 : len(atom)-1])
		return &query.Expr{Leaf: query.ConstTerm{Value: datatype.New(unquoted, datatype.String)}}
	}
	if isVariable(atom) {
		v := VarID0
		if vars != nil {
			v = vars.Intern(atom)
		}
		return &query.Expr{Leaf: query.VarTerm{Var: v, Name: atom}}
	}
	if atom == "true" || atom == "false" {
		return &query.Expr{Leaf: query.ConstTerm{Value: datatype.New(atom == "true", datatype.Boolean)}}
	}
	if i, err := strconv.ParseInt(atom, 10, 64); err == nil {
		return &query.Expr{Leaf: query.ConstTerm{Value: datatype.New(i, datatype.Integer)}}
	}
	if f, err := strconv.ParseFloat(atom, 64); err == nil {
		return &query.Expr{Leaf: query.ConstTerm{Value: datatype.New(f, datatype.Double)}}
	}
	return &query.Expr{Leaf: query.ConstTerm{Value: datatype.New(atom, datatype.String)}}
}

func unescapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// VarID0 is the zero value of query.VarID, used when an expression atom
// is a variable but no VarTable was supplied (diagnostic-only parsing).
const VarID0 = query.VarID(0)

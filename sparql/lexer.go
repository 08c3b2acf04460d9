package sparql

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/wbrown/flakeql/queryerr"
)

// lexer turns a SPARQL query string into a flat token stream consumed by
// parser.go's recursive-descent methods. It is a rune-at-a-time scanner
// in the same spirit as the teacher's EDN reader, sized down to the
// punctuation/keyword surface SPARQL 1.1's supported fragment needs
// rather than a generated-grammar lexer.
type lexer struct {
	s    string
	pos  int
	toks []token
}

func newLexer(s string) *lexer { return &lexer{s: s} }

func (l *lexer) tokenize() ([]token, error) {
	for {
		l.skipSpaceAndComments()
		if l.pos >= len(l.s) {
			l.toks = append(l.toks, token{kind: tEOF})
			return l.toks, nil
		}
		c := l.s[l.pos]
		switch {
		case c == '<' && l.pos+1 < len(l.s) && l.s[l.pos+1] == '=':
			l.pos += 2
			l.toks = append(l.toks, token{kind: tPunct, text: "<="})
		case c == '<' && l.pos+1 < len(l.s) && !unicode.IsSpace(rune(l.s[l.pos+1])):
			tok, err := l.readIRI()
			if err != nil {
				return nil, err
			}
			l.toks = append(l.toks, tok)
		case c == '?' || c == '$':
			l.toks = append(l.toks, l.readVar())
		case c == '"' || c == '\'':
			tok, err := l.readString()
			if err != nil {
				return nil, err
			}
			l.toks = append(l.toks, tok)
		case unicode.IsDigit(rune(c)) || (c == '.' && l.pos+1 < len(l.s) && unicode.IsDigit(rune(l.s[l.pos+1]))):
			l.toks = append(l.toks, l.readNumber())
		case isNameStartChar(c) || c == ':':
			l.toks = append(l.toks, l.readNameOrIdent())
		default:
			tok, err := l.readPunct()
			if err != nil {
				return nil, err
			}
			l.toks = append(l.toks, tok)
		}
	}
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.s) {
		c := l.s[l.pos]
		if unicode.IsSpace(rune(c)) {
			l.pos++
			continue
		}
		if c == '#' {
			for l.pos < len(l.s) && l.s[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

func (l *lexer) readIRI() (token, error) {
	start := l.pos
	l.pos++ // consume '<'
	for l.pos < len(l.s) && l.s[l.pos] != '>' {
		l.pos++
	}
	if l.pos >= len(l.s) {
		return token{}, queryerr.New(queryerr.InvalidQuery, "unterminated IRI starting at offset "+strconv.Itoa(start))
	}
	iri := l.s[start+1 : l.pos]
	l.pos++ // consume '>'
	return token{kind: tIRI, text: iri}, nil
}

func (l *lexer) readVar() token {
	start := l.pos
	l.pos++ // consume '?'/'$'
	for l.pos < len(l.s) && isNameChar(l.s[l.pos]) {
		l.pos++
	}
	return token{kind: tVar, text: "?" + l.s[start+1:l.pos]}
}

func (l *lexer) readString() (token, error) {
	quote := l.s[l.pos]
	triple := strings.HasPrefix(l.s[l.pos:], strings.Repeat(string(quote), 3))
	delim := string(quote)
	if triple {
		delim = strings.Repeat(string(quote), 3)
	}
	l.pos += len(delim)
	start := l.pos
	for l.pos < len(l.s) {
		if strings.HasPrefix(l.s[l.pos:], delim) {
			break
		}
		if l.s[l.pos] == '\\' && l.pos+1 < len(l.s) {
			l.pos++
		}
		l.pos++
	}
	if l.pos >= len(l.s) {
		return token{}, queryerr.New(queryerr.InvalidQuery, "unterminated string literal starting at offset "+strconv.Itoa(start))
	}
	value := unescapeSPARQLString(l.s[start:l.pos])
	l.pos += len(delim)

	tok := token{kind: tString, text: value}
	if l.pos < len(l.s) && l.s[l.pos] == '@' {
		l.pos++
		langStart := l.pos
		for l.pos < len(l.s) && (isNameChar(l.s[l.pos]) || l.s[l.pos] == '-') {
			l.pos++
		}
		tok.lang = l.s[langStart:l.pos]
	} else if strings.HasPrefix(l.s[l.pos:], "^^") {
		l.pos += 2
		if l.pos < len(l.s) && l.s[l.pos] == '<' {
			iriTok, err := l.readIRI()
			if err != nil {
				return token{}, err
			}
			tok.datatype = iriTok.text
		} else {
			nameTok := l.readNameOrIdent()
			tok.datatype = nameTok.text
		}
	}
	return tok, nil
}

func unescapeSPARQLString(s string) string {
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
			case '"', '\'', '\\':
				sb.WriteByte(s[i])
			default:
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func (l *lexer) readNumber() token {
	start := l.pos
	for l.pos < len(l.s) && (unicode.IsDigit(rune(l.s[l.pos])) || l.s[l.pos] == '.') {
		l.pos++
	}
	if l.pos < len(l.s) && (l.s[l.pos] == 'e' || l.s[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.s) && (l.s[l.pos] == '+' || l.s[l.pos] == '-') {
			l.pos++
		}
		for l.pos < len(l.s) && unicode.IsDigit(rune(l.s[l.pos])) {
			l.pos++
		}
	}
	return token{kind: tNumber, text: l.s[start:l.pos]}
}

// readNameOrIdent reads a bare word: a prefixed name (prefix:local,
// possibly with an empty prefix ":local" or no local part "prefix:"), or
// a plain keyword/identifier when no ':' is present. At most one ':' is
// consumed, matching the PNAME_NS/PNAME_LN grammar's single colon.
func (l *lexer) readNameOrIdent() token {
	start := l.pos
	l.pos++
	for l.pos < len(l.s) && isNameChar(l.s[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.s) && l.s[l.pos] == ':' {
		l.pos++
		for l.pos < len(l.s) && isNameChar(l.s[l.pos]) {
			l.pos++
		}
	}
	text := l.s[start:l.pos]
	if strings.Contains(text, ":") {
		return token{kind: tPName, text: text}
	}
	return token{kind: tIdent, text: text}
}

func (l *lexer) readPunct() (token, error) {
	two := ""
	if l.pos+1 < len(l.s) {
		two = l.s[l.pos : l.pos+2]
	}
	switch two {
	case "&&", "||", "!=", "<=", ">=":
		l.pos += 2
		return token{kind: tPunct, text: two}, nil
	}
	c := l.s[l.pos]
	switch c {
	case '{', '}', '(', ')', '.', ',', ';', '=', '<', '>', '!', '+', '-', '*', '/', '^', '[', ']', '|':
		l.pos++
		return token{kind: tPunct, text: string(c)}, nil
	}
	return token{}, queryerr.New(queryerr.InvalidQuery, "unexpected character "+strconv.QuoteRune(rune(c))+" at offset "+strconv.Itoa(l.pos))
}

func isNameStartChar(c byte) bool {
	return unicode.IsLetter(rune(c)) || c == '_'
}

func isNameChar(c byte) bool {
	return unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) || c == '_' || c == '-' || c == '.'
}

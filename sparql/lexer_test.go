package sparql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, s string) []token {
	t.Helper()
	toks, err := newLexer(s).tokenize()
	require.NoError(t, err)
	return toks
}

func TestLexerIRI(t *testing.T) {
	toks := tokenize(t, "<http://example.org/Person>")
	require.Equal(t, tIRI, toks[0].kind)
	require.Equal(t, "http://example.org/Person", toks[0].text)
	require.Equal(t, tEOF, toks[1].kind)
}

func TestLexerPrefixedNameSingleColon(t *testing.T) {
	toks := tokenize(t, "person:name")
	require.Len(t, toks, 2)
	require.Equal(t, tPName, toks[0].kind)
	require.Equal(t, "person:name", toks[0].text)
}

func TestLexerPrefixDeclarationLabel(t *testing.T) {
	toks := tokenize(t, "PREFIX ex: <http://example.org/>")
	require.Equal(t, tIdent, toks[0].kind)
	require.Equal(t, "PREFIX", toks[0].text)
	require.Equal(t, tPName, toks[1].kind)
	require.Equal(t, "ex:", toks[1].text)
	require.Equal(t, tIRI, toks[2].kind)
}

func TestLexerVariable(t *testing.T) {
	toks := tokenize(t, "?age $name")
	require.Equal(t, tVar, toks[0].kind)
	require.Equal(t, "?age", toks[0].text)
	require.Equal(t, tVar, toks[1].kind)
	require.Equal(t, "?name", toks[1].text)
}

func TestLexerStringWithLangAndDatatype(t *testing.T) {
	toks := tokenize(t, `"hello"@en "42"^^<http://www.w3.org/2001/XMLSchema#integer>`)
	require.Equal(t, tString, toks[0].kind)
	require.Equal(t, "hello", toks[0].text)
	require.Equal(t, "en", toks[0].lang)
	require.Equal(t, tString, toks[1].kind)
	require.Equal(t, "42", toks[1].text)
	require.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", toks[1].datatype)
}

func TestLexerNumber(t *testing.T) {
	toks := tokenize(t, "42 3.14 2.5e10")
	require.Equal(t, tNumber, toks[0].kind)
	require.Equal(t, "42", toks[0].text)
	require.Equal(t, "3.14", toks[1].text)
	require.Equal(t, "2.5e10", toks[2].text)
}

func TestLexerLessEqualIsNotAnIRI(t *testing.T) {
	toks := tokenize(t, "?age <= 30")
	require.Equal(t, tVar, toks[0].kind)
	require.Equal(t, tPunct, toks[1].kind)
	require.Equal(t, "<=", toks[1].text)
	require.Equal(t, tNumber, toks[2].kind)
}

func TestLexerLessThanStillStartsAnIRI(t *testing.T) {
	toks := tokenize(t, "<http://a> < <http://b>")
	require.Equal(t, tIRI, toks[0].kind)
	require.Equal(t, tPunct, toks[1].kind)
	require.Equal(t, "<", toks[1].text)
	require.Equal(t, tIRI, toks[2].kind)
}

func TestLexerBlankNodeBracketsAndPipe(t *testing.T) {
	toks := tokenize(t, "[ ] |")
	require.Equal(t, tPunct, toks[0].kind)
	require.Equal(t, "[", toks[0].text)
	require.Equal(t, tPunct, toks[1].kind)
	require.Equal(t, "]", toks[1].text)
	require.Equal(t, tPunct, toks[2].kind)
	require.Equal(t, "|", toks[2].text)
}

func TestLexerLabeledBlankNode(t *testing.T) {
	toks := tokenize(t, "_:b0")
	require.Equal(t, tPName, toks[0].kind)
	require.Equal(t, "_:b0", toks[0].text)
}

func TestLexerUnterminatedIRIErrors(t *testing.T) {
	_, err := newLexer("<http://example.org/unterminated").tokenize()
	require.Error(t, err)
}

func TestLexerSkipsCommentsAndWhitespace(t *testing.T) {
	toks := tokenize(t, "# a comment\n?x # trailing\n")
	require.Equal(t, tVar, toks[0].kind)
	require.Equal(t, tEOF, toks[1].kind)
}

package sparql

// tokenKind enumerates the lexical classes the hand-rolled SPARQL
// tokenizer recognizes, grounded on the teacher's own lexer-less
// rune-scanning EDN reader (datalog/edn) generalized to SPARQL's richer
// punctuation and keyword vocabulary.
type tokenKind int

const (
	tEOF tokenKind = iota
	tIRI           // <...>
	tPName         // prefix:local or bare :local
	tVar           // ?x or $x
	tString        // "..."/'...'/"""..."""/'''...'''
	tNumber
	tIdent // bare word: keyword or boolean literal
	tPunct // single/double-char punctuation and operators
)

type token struct {
	kind tokenKind
	text string
	// lang/datatype are populated for tString tokens carrying an "@lang"
	// or "^^<iri>"/"^^prefix:local" suffix.
	lang     string
	datatype string
}

package sparql

import "github.com/wbrown/flakeql/query"

// Translate parses a supported fragment of SPARQL 1.1 SELECT queries
// into a query.ParsedQuery, the same entry point parser.Parse provides
// for the native FQL document surface. Both surfaces hand the planner an
// identical representation; the one dialect-specific exception is minus,
// which this translator marks with MinusPattern.FromSPARQL so the
// executor can reject it when it instead arrived through the FQL parser.
func Translate(src string) (*query.ParsedQuery, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return nil, err
	}
	return newParser(toks).parseQuery()
}

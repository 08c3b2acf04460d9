package parser

import (
	"fmt"
	"strings"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// isVariable reports whether s is a FlakeQL variable occurrence: a string
// starting with "?". Other spellings (":?x", "'?x") are not recognized
// as variables.
func isVariable(s string) bool {
	return strings.HasPrefix(s, "?")
}

// parseTerm converts one JSON-decoded where-tuple slot into a query.Term,
// interning variable occurrences against vars so repeated "?x" spellings
// share one VarID.
func parseTerm(v interface{}, vars *query.VarTable) (query.Term, error) {
	switch val := v.(type) {
	case string:
		if isVariable(val) {
			return query.VarTerm{Var: vars.Intern(val), Name: val}, nil
		}
		return query.ConstTerm{Value: datatype.New(val, datatype.AnyURI)}, nil
	case nil:
		return nil, queryerr.New(queryerr.InvalidQuery, "pattern term cannot be null")
	default:
		tv := datatype.Infer(val, "")
		return query.ConstTerm{Value: tv}, nil
	}
}

// parseLiteralTerm is like parseTerm but never treats a bound value as an
// IRI reference — used for object-position literals whose datatype should
// be inferred by value rather than assumed to be anyURI.
func parseLiteralTerm(v interface{}, vars *query.VarTable) (query.Term, error) {
	switch val := v.(type) {
	case string:
		if isVariable(val) {
			return query.VarTerm{Var: vars.Intern(val), Name: val}, nil
		}
		return query.ConstTerm{Value: datatype.New(val, datatype.String)}, nil
	case nil:
		return nil, queryerr.New(queryerr.InvalidQuery, "pattern term cannot be null")
	default:
		return query.ConstTerm{Value: datatype.Infer(val, "")}, nil
	}
}

// ConstIRI builds a bound anyURI typed value, used when the parser
// synthesizes a term from a plain predicate string (e.g. the base
// predicate name stripped out of a "pred+n" recursive-path form).
func ConstIRI(iri string) datatype.TypedValue {
	return datatype.New(iri, datatype.AnyURI)
}

func requireVarName(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok || !isVariable(s) {
		return "", queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("expected a \"?\"-prefixed variable, got %v", v))
	}
	return s, nil
}

package postprocess

import (
	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/query"
)

// Document is a JSON-LD-style nested result: "@id" plus whatever
// predicates the select tree asked for, each either a scalar, a nested
// Document (reference expansion), or a slice of either for multi-valued
// predicates.
type Document map[string]interface{}

// Crawl expands a bound subject into a JSON-LD-style document per its
// select tree: fetch the subject's full spot slice once,
// then walk the tree depth-first, expanding references into nested
// documents where the tree nests a selection under a predicate and depth
// is below maxDepth.
func Crawl(snap *index.Snapshot, subj flake.Subject, tree *query.SelectTree, depth int, maxDepth int) (Document, error) {
	flakes, err := index.ResolveFlakeRange(snap, &index.Pattern{S: index.BoundValue(subj)})
	if err != nil {
		return nil, err
	}

	doc := Document{"@id": subj.String()}

	if tree.Wildcard {
		byPred := map[string][]datatype.TypedValue{}
		var order []string
		for _, f := range flakes {
			p := f.P.String()
			if _, ok := byPred[p]; !ok {
				order = append(order, p)
			}
			byPred[p] = append(byPred[p], f.O)
		}
		for _, p := range order {
			doc[p] = collapseSingle(flattenValues(byPred[p]))
		}
		return doc, nil
	}

	for _, field := range tree.Fields {
		values := valuesForPredicate(flakes, field.Predicate, field.Reverse, snap, subj)
		if field.Nested != nil && depth < maxDepth {
			nested := make([]interface{}, 0, len(values))
			for _, v := range values {
				s, ok := v.Value.(flake.Subject)
				if iri, isIRI := v.Value.(string); isIRI && v.Datatype == datatype.AnyURI {
					s, ok = flake.NewSubject(iri), true
				}
				if ok {
					sub, err := Crawl(snap, s, field.Nested, depth+1, maxDepth)
					if err != nil {
						return nil, err
					}
					nested = append(nested, sub)
				} else {
					nested = append(nested, datatype.Serialize(v))
				}
			}
			doc[field.Predicate] = collapseSingle(nested)
			continue
		}
		doc[field.Predicate] = collapseSingle(flattenValues(values))
	}
	return doc, nil
}

func valuesForPredicate(flakes []flake.Flake, predicate string, reverse bool, snap *index.Snapshot, subj flake.Subject) []datatype.TypedValue {
	if !reverse {
		var out []datatype.TypedValue
		for _, f := range flakes {
			if f.P.String() == predicate {
				out = append(out, f.O)
			}
		}
		return out
	}

	// Reverse reference: find every subject whose predicate points back
	// at this one, via a post-ordered scan (predicate bound, object bound).
	objTV := datatype.New(subj, datatype.AnyURI)
	reverseFlakes, err := index.ResolveFlakeRange(snap, &index.Pattern{
		P: index.BoundValue(flake.NewPredicate(predicate)),
		O: index.BoundValue(objTV),
	})
	if err != nil {
		return nil
	}
	out := make([]datatype.TypedValue, 0, len(reverseFlakes))
	for _, f := range reverseFlakes {
		out = append(out, datatype.New(f.S, datatype.AnyURI))
	}
	return out
}

func flattenValues(values []datatype.TypedValue) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, datatype.Serialize(v))
	}
	return out
}

// collapseSingle follows JSON-LD-ish convention: a single-valued field
// renders as a scalar/document, not a one-element array; cardinality-many
// values stay an array.
func collapseSingle(values []interface{}) interface{} {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

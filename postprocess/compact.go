package postprocess

import "strings"

// Compact rewrites an IRI using the query context's prefix map, the
// inverse of parse-time context expansion. The longest matching prefix
// wins so overlapping prefixes compact predictably.
func Compact(iri string, ctx map[string]string) string {
	bestPrefix, bestAlias := "", ""
	for alias, prefix := range ctx {
		if strings.HasPrefix(iri, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix, bestAlias = prefix, alias
		}
	}
	if bestPrefix == "" {
		return iri
	}
	return bestAlias + ":" + iri[len(bestPrefix):]
}

// CompactDocument recursively compacts every "@id" and predicate key in a
// crawled document.
func CompactDocument(doc Document, ctx map[string]string) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		key := k
		if k == "@id" {
			if s, ok := v.(string); ok {
				out[k] = Compact(s, ctx)
				continue
			}
		} else {
			key = Compact(k, ctx)
		}
		out[key] = compactValue(v, ctx)
	}
	return out
}

func compactValue(v interface{}, ctx map[string]string) interface{} {
	switch val := v.(type) {
	case Document:
		return CompactDocument(val, ctx)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = compactValue(e, ctx)
		}
		return out
	case string:
		return val
	default:
		return val
	}
}

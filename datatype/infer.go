package datatype

import (
	"time"
)

// Infer classifies a raw Go value that arrived without an explicit
// datatype annotation (e.g. a bare JSON literal in a query or a value
// asserted without a schema hint), following the JSON-LD-compatible
// inference rules from the data model:
//
//	plain string              -> string (or langString if lang != "")
//	integer-valued number     -> integer
//	non-integer number        -> double
//	boolean                   -> boolean
//
// Unknown Go types are accepted as opaque values tagged Unknown; they are
// never coerced further (Compare orders two Unknown values by a collated
// comparison of their string forms).
func Infer(v interface{}, lang string) TypedValue {
	switch val := v.(type) {
	case string:
		if lang != "" {
			return TypedValue{Value: LangValue{Text: val, Lang: lang}, Datatype: LangString}
		}
		return TypedValue{Value: val, Datatype: String}
	case bool:
		return TypedValue{Value: val, Datatype: Boolean}
	case int:
		return TypedValue{Value: int64(val), Datatype: Integer}
	case int32:
		return TypedValue{Value: int64(val), Datatype: Integer}
	case int64:
		return TypedValue{Value: val, Datatype: Integer}
	case float32:
		return inferFloat(float64(val))
	case float64:
		return inferFloat(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return TypedValue{Value: val, Datatype: Date}
		}
		return TypedValue{Value: val, Datatype: DateTime}
	case []byte:
		return TypedValue{Value: val, Datatype: Base64Binary}
	case Ref:
		return TypedValue{Value: val, Datatype: AnyURI}
	case map[string]interface{}:
		return TypedValue{Value: val, Datatype: JSON}
	case []interface{}:
		return TypedValue{Value: val, Datatype: JSON}
	case nil:
		return Undef
	default:
		return TypedValue{Value: v, Datatype: Unknown}
	}
}

// inferFloat distinguishes integer-valued doubles from true doubles, per
// the JSON-LD inference rule: "integer-valued number -> integer;
// non-integer number -> double".
func inferFloat(f float64) TypedValue {
	if f == float64(int64(f)) {
		return TypedValue{Value: int64(f), Datatype: Integer}
	}
	return TypedValue{Value: f, Datatype: Double}
}

// LangValue is the payload of an rdf:langString value: text plus an
// RFC 5646 language tag.
type LangValue struct {
	Text string
	Lang string
}

func (l LangValue) String() string { return l.Text }

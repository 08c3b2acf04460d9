package datatype

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// CoercionError reports a failed attempt to coerce a serialized value into
// a target datatype. Per the error-handling design, a coercion failure is
// fatal to the query that triggered it (it is not swallowed like a filter
// evaluation error).
type CoercionError struct {
	Target ID
	Input  string
	Cause  error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot coerce %q to %s: %v", e.Input, e.Target, e.Cause)
}

func (e *CoercionError) Unwrap() error { return e.Cause }

// Coerce parses the canonical serialized form of a datatype back into a
// TypedValue. Coerce(Serialize(v), d) round-trips canonical values of the
// string, boolean, integer, floating-point, decimal, date/time, binary and
// JSON datatypes. For any other target datatype (a dense vector, for
// example) Coerce returns the serialized text as a string tagged Unknown,
// so such values do not round-trip.
func Coerce(serialized string, target ID) (TypedValue, error) {
	switch target {
	case String, NormalizedString, Token, Language, AnyURI:
		return TypedValue{Value: serialized, Datatype: target}, nil
	case LangString:
		text, lang := splitLangString(serialized)
		return TypedValue{Value: LangValue{Text: text, Lang: lang}, Datatype: LangString}, nil
	case Boolean:
		b, err := strconv.ParseBool(serialized)
		if err != nil {
			return TypedValue{}, &CoercionError{target, serialized, err}
		}
		return TypedValue{Value: b, Datatype: Boolean}, nil
	case Integer, Long, Short, Byte:
		n, err := strconv.ParseInt(serialized, 10, 64)
		if err != nil {
			return TypedValue{}, &CoercionError{target, serialized, err}
		}
		return TypedValue{Value: n, Datatype: target}, nil
	case UnsignedInt, UnsignedLong:
		n, err := strconv.ParseUint(serialized, 10, 64)
		if err != nil {
			return TypedValue{}, &CoercionError{target, serialized, err}
		}
		return TypedValue{Value: n, Datatype: target}, nil
	case Double, Float:
		f, err := strconv.ParseFloat(serialized, 64)
		if err != nil {
			return TypedValue{}, &CoercionError{target, serialized, err}
		}
		return TypedValue{Value: f, Datatype: target}, nil
	case Decimal:
		d, _, err := apd.NewFromString(serialized)
		if err != nil {
			return TypedValue{}, &CoercionError{target, serialized, err}
		}
		return TypedValue{Value: d, Datatype: Decimal}, nil
	case Date:
		t, err := time.Parse("2006-01-02", serialized)
		if err != nil {
			return TypedValue{}, &CoercionError{target, serialized, err}
		}
		return TypedValue{Value: t, Datatype: Date}, nil
	case DateTime:
		t, err := time.Parse(time.RFC3339Nano, serialized)
		if err != nil {
			return TypedValue{}, &CoercionError{target, serialized, err}
		}
		return TypedValue{Value: t, Datatype: DateTime}, nil
	case Time:
		t, err := time.Parse("15:04:05", serialized)
		if err != nil {
			return TypedValue{}, &CoercionError{target, serialized, err}
		}
		return TypedValue{Value: t, Datatype: Time}, nil
	case HexBinary:
		return TypedValue{Value: serialized, Datatype: HexBinary}, nil
	case Base64Binary:
		return TypedValue{Value: serialized, Datatype: Base64Binary}, nil
	case JSON:
		return TypedValue{Value: serialized, Datatype: JSON}, nil
	default:
		return TypedValue{Value: serialized, Datatype: Unknown}, nil
	}
}

// Serialize renders a TypedValue to the canonical string form that Coerce
// can parse back. Every supported datatype has a canonical serialization;
// Unknown datatypes serialize via fmt and cannot be guaranteed to round-trip.
func Serialize(tv TypedValue) string {
	switch v := tv.Value.(type) {
	case string:
		return v
	case LangValue:
		return v.Text + "@" + v.Lang
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case *apd.Decimal:
		return v.String()
	case time.Time:
		switch tv.Datatype {
		case Date:
			return v.Format("2006-01-02")
		case Time:
			return v.Format("15:04:05")
		default:
			return v.Format(time.RFC3339Nano)
		}
	default:
		return fmt.Sprintf("%v", v)
	}
}

func splitLangString(s string) (text, lang string) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '@' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

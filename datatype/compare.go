package datatype

import (
	"time"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collator backs ORDER BY on xsd:string columns containing non-ASCII
// content; a plain byte-wise strings.Compare does not sort accented and
// multi-script text the way a human expects.
var collator = collate.New(language.Und)

// Compare orders two typed values for ORDER BY / MIN / MAX, following the
// datatype-aware comparator from the post-processing spec: same-datatype
// values compare by their natural order; numeric datatypes are mutually
// comparable; across any other pair of datatypes, the datatype id orders
// first. UNDEF sorts before every defined value.
func Compare(a, b TypedValue) int {
	if a.IsUndef() && b.IsUndef() {
		return 0
	}
	if a.IsUndef() {
		return -1
	}
	if b.IsUndef() {
		return 1
	}

	if a.Datatype.IsNumeric() && b.Datatype.IsNumeric() {
		return compareNumeric(a, b)
	}

	if a.Datatype != b.Datatype {
		if a.Datatype < b.Datatype {
			return -1
		}
		return 1
	}

	switch a.Datatype {
	case String, NormalizedString, Token, Language, AnyURI, HexBinary, Base64Binary, JSON, Unknown:
		return collator.CompareString(toString(a.Value), toString(b.Value))
	case LangString:
		la, _ := a.Value.(LangValue)
		lb, _ := b.Value.(LangValue)
		return collator.CompareString(la.Text, lb.Text)
	case Boolean:
		ba, _ := a.Value.(bool)
		bb, _ := b.Value.(bool)
		if ba == bb {
			return 0
		}
		if !ba {
			return -1
		}
		return 1
	case Date, DateTime, Time:
		ta, _ := a.Value.(time.Time)
		tb, _ := b.Value.(time.Time)
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		default:
			return 0
		}
	default:
		return compareNumeric(a, b)
	}
}

// Equal reports value equality under the same rules Compare uses.
func Equal(a, b TypedValue) bool { return Compare(a, b) == 0 }

func compareNumeric(a, b TypedValue) int {
	da, aIsDecimal := a.Value.(*apd.Decimal)
	db, bIsDecimal := b.Value.(*apd.Decimal)
	if aIsDecimal || bIsDecimal {
		if !aIsDecimal {
			da = toDecimal(a.Value)
		}
		if !bIsDecimal {
			db = toDecimal(b.Value)
		}
		return da.Cmp(db)
	}

	fa, fb := toFloat64(a.Value), toFloat64(b.Value)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}

func toDecimal(v interface{}) *apd.Decimal {
	d, _, _ := apd.NewFromString(Serialize(TypedValue{Value: v}))
	return d
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if r, ok := v.(Ref); ok {
		return r.String()
	}
	return Serialize(TypedValue{Value: v})
}

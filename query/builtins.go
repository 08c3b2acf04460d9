package query

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wbrown/flakeql/datatype"
)

// aggregateFunctions names every aggregate recognized by the postprocess
// pipeline; kept here, not in FunctionRegistry, because
// aggregates operate over a group's worth of values rather than a single
// solution and so are resolved by a different evaluator (postprocess).
var aggregateFunctions = map[string]bool{
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"sample": true, "groupconcat": true, "median": true, "variance": true,
	"stddev": true, "count-distinct": true,
}

func str(v datatype.TypedValue) string {
	if s, ok := v.Value.(string); ok {
		return s
	}
	return datatype.Serialize(v)
}

func boolVal(b bool) datatype.TypedValue { return datatype.New(b, datatype.Boolean) }
func strVal(s string) datatype.TypedValue {
	return datatype.New(s, datatype.String)
}

func registerBuiltins(r *FunctionRegistry) {
	r.Register("bound", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return boolVal(len(args) == 1 && !args[0].IsUndef()), nil
	})
	r.Register("str", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return strVal(str(args[0])), nil
	})
	r.Register("lang", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		if lv, ok := args[0].Value.(datatype.LangValue); ok {
			return strVal(lv.Lang), nil
		}
		return strVal(""), nil
	})
	r.Register("datatype", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return strVal(args[0].Datatype.String()), nil
	})
	r.Register("iri", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return datatype.New(str(args[0]), datatype.AnyURI), nil
	})
	r.Register("coalesce", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		for _, a := range args {
			if !a.IsUndef() {
				return a, nil
			}
		}
		return datatype.Undef, nil
	})
	r.Register("if", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		if len(args) != 3 {
			return datatype.Undef, fmt.Errorf("if requires 3 arguments")
		}
		b, _ := args[0].Value.(bool)
		if b {
			return args[1], nil
		}
		return args[2], nil
	})
	r.Register("regex", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		re, err := regexp.Compile(str(args[1]))
		if err != nil {
			return datatype.Undef, err
		}
		return boolVal(re.MatchString(str(args[0]))), nil
	})
	r.Register("contains", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return boolVal(strings.Contains(str(args[0]), str(args[1]))), nil
	})
	r.Register("strStarts", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return boolVal(strings.HasPrefix(str(args[0]), str(args[1]))), nil
	})
	r.Register("strEnds", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return boolVal(strings.HasSuffix(str(args[0]), str(args[1]))), nil
	})
	r.Register("strBefore", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		s, sep := str(args[0]), str(args[1])
		if i := strings.Index(s, sep); i >= 0 {
			return strVal(s[:i]), nil
		}
		return strVal(""), nil
	})
	r.Register("strAfter", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		s, sep := str(args[0]), str(args[1])
		if i := strings.Index(s, sep); i >= 0 {
			return strVal(s[i+len(sep):]), nil
		}
		return strVal(""), nil
	})
	r.Register("substr", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		s := []rune(str(args[0]))
		start := int(toInt(args[1]))
		if start < 1 {
			start = 1
		}
		end := len(s) + 1
		if len(args) > 2 {
			end = start + int(toInt(args[2]))
		}
		if start > len(s)+1 {
			return strVal(""), nil
		}
		if end > len(s)+1 {
			end = len(s) + 1
		}
		return strVal(string(s[start-1 : end-1])), nil
	})
	r.Register("strLen", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return datatype.New(int64(len([]rune(str(args[0])))), datatype.Integer), nil
	})
	r.Register("strLang", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return datatype.New(datatype.LangValue{Text: str(args[0]), Lang: str(args[1])}, datatype.LangString), nil
	})
	r.Register("strDt", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		serialized := str(args[0])
		target := datatype.ID(toInt(args[1]))
		tv, err := datatype.Coerce(serialized, target)
		if err != nil {
			return datatype.Undef, err
		}
		return tv, nil
	})
	r.Register("ucase", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return strVal(strings.ToUpper(str(args[0]))), nil
	})
	r.Register("lcase", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return strVal(strings.ToLower(str(args[0]))), nil
	})
	r.Register("encodeForUri", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return strVal(url.QueryEscape(str(args[0]))), nil
	})
	r.Register("and", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		for _, a := range args {
			b, _ := a.Value.(bool)
			if !b {
				return boolVal(false), nil
			}
		}
		return boolVal(true), nil
	})
	r.Register("or", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		for _, a := range args {
			b, _ := a.Value.(bool)
			if b {
				return boolVal(true), nil
			}
		}
		return boolVal(false), nil
	})
	r.Register("not", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		b, _ := args[0].Value.(bool)
		return boolVal(!b), nil
	})
	r.Register("sameTerm", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return boolVal(datatype.Equal(args[0], args[1])), nil
	})
	r.Register("isIri", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return boolVal(args[0].Datatype == datatype.AnyURI), nil
	})
	r.Register("isLiteral", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return boolVal(args[0].Datatype != datatype.AnyURI && !args[0].IsUndef()), nil
	})
	r.Register("isNumeric", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return boolVal(args[0].Datatype.IsNumeric()), nil
	})
	r.Register("isBlank", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return boolVal(strings.HasPrefix(str(args[0]), "_:")), nil
	})
	r.Register("in", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		for _, a := range args[1:] {
			if datatype.Equal(args[0], a) {
				return boolVal(true), nil
			}
		}
		return boolVal(false), nil
	})
	for _, name := range []string{"md5", "sha1", "sha256", "sha512"} {
		name := name
		r.Register(name, func(args []datatype.TypedValue) (datatype.TypedValue, error) {
			data := []byte(str(args[0]))
			var sum []byte
			switch name {
			case "md5":
				s := md5.Sum(data)
				sum = s[:]
			case "sha1":
				s := sha1.Sum(data)
				sum = s[:]
			case "sha256":
				s := sha256.Sum256(data)
				sum = s[:]
			case "sha512":
				s := sha512.Sum512(data)
				sum = s[:]
			}
			return strVal(hex.EncodeToString(sum)), nil
		})
	}
	for _, field := range []string{"year", "month", "day", "hour", "minute", "second"} {
		field := field
		r.Register(field, func(args []datatype.TypedValue) (datatype.TypedValue, error) {
			t, ok := args[0].Value.(time.Time)
			if !ok {
				return datatype.Undef, fmt.Errorf("%s: not a time value", field)
			}
			var n int
			switch field {
			case "year":
				n = t.Year()
			case "month":
				n = int(t.Month())
			case "day":
				n = t.Day()
			case "hour":
				n = t.Hour()
			case "minute":
				n = t.Minute()
			case "second":
				n = t.Second()
			}
			return datatype.New(int64(n), datatype.Integer), nil
		})
	}
	r.Register("now", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return datatype.New(time.Now().UTC(), datatype.DateTime), nil
	})
	r.Register("uuid", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return datatype.New("urn:uuid:"+uuid.NewString(), datatype.AnyURI), nil
	})
	r.Register("bnode", func(args []datatype.TypedValue) (datatype.TypedValue, error) {
		return datatype.New("_:"+uuid.NewString(), datatype.AnyURI), nil
	})

	registerComparisons(r)
	registerArithmetic(r)
}

func toInt(v datatype.TypedValue) int64 {
	switch n := v.Value.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func registerComparisons(r *FunctionRegistry) {
	cmp := func(op string) ScalarFunc {
		return func(args []datatype.TypedValue) (datatype.TypedValue, error) {
			if len(args) != 2 {
				return datatype.Undef, fmt.Errorf("%s requires 2 arguments", op)
			}
			c := datatype.Compare(args[0], args[1])
			var result bool
			switch op {
			case "=":
				result = c == 0
			case "!=":
				result = c != 0
			case "<":
				result = c < 0
			case "<=":
				result = c <= 0
			case ">":
				result = c > 0
			case ">=":
				result = c >= 0
			}
			return boolVal(result), nil
		}
	}
	for _, op := range []string{"=", "!=", "<", "<=", ">", ">="} {
		r.Register(op, cmp(op))
	}
}

func registerArithmetic(r *FunctionRegistry) {
	arith := func(op string) ScalarFunc {
		return func(args []datatype.TypedValue) (datatype.TypedValue, error) {
			if len(args) != 2 {
				return datatype.Undef, fmt.Errorf("%s requires 2 arguments", op)
			}
			a, aIsFloat := numericValue(args[0])
			b, bIsFloat := numericValue(args[1])
			switch op {
			case "+":
				return numericResult(a+b, aIsFloat || bIsFloat), nil
			case "-":
				return numericResult(a-b, aIsFloat || bIsFloat), nil
			case "*":
				return numericResult(a*b, aIsFloat || bIsFloat), nil
			case "/":
				if b == 0 {
					return datatype.Undef, fmt.Errorf("division by zero")
				}
				return numericResult(a/b, true), nil
			default:
				return datatype.Undef, fmt.Errorf("unknown operator %q", op)
			}
		}
	}
	for _, op := range []string{"+", "-", "*", "/"} {
		r.Register(op, arith(op))
	}
}

func numericValue(v datatype.TypedValue) (float64, bool) {
	switch n := v.Value.(type) {
	case int64:
		return float64(n), false
	case int:
		return float64(n), false
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func numericResult(f float64, isFloat bool) datatype.TypedValue {
	if isFloat {
		return datatype.New(f, datatype.Double)
	}
	return datatype.New(int64(f), datatype.Integer)
}

// Package datatype implements the typed-value model shared by the flake
// store, the parser, and the where executor: coercion, JSON-LD-compatible
// inference, datatype-aware comparison, and serialization of the closed set
// of datatypes a flake's object may carry.
package datatype

// ID is a member of the closed set of datatypes a typed value may carry.
// The set mirrors the XSD/JSON-LD datatypes the analytical engine must
// reason about; unknown datatypes are accepted as opaque strings, numbers,
// or booleans but are never coerced (see Infer).
type ID int

const (
	Unknown ID = iota
	String
	LangString
	Boolean
	Date
	DateTime
	Time
	Decimal
	Double
	Float
	Integer
	Long
	Short
	Byte
	UnsignedInt
	UnsignedLong
	NormalizedString
	Token
	Language
	HexBinary
	Base64Binary
	JSON
	Vector // dense-vector, e.g. embeddings
	AnyURI // @id / anyURI / subject reference
)

// String returns the canonical XSD/JSON-LD-ish name for the datatype,
// used when compacting results and when reporting coercion errors.
func (id ID) String() string {
	switch id {
	case String:
		return "xsd:string"
	case LangString:
		return "rdf:langString"
	case Boolean:
		return "xsd:boolean"
	case Date:
		return "xsd:date"
	case DateTime:
		return "xsd:dateTime"
	case Time:
		return "xsd:time"
	case Decimal:
		return "xsd:decimal"
	case Double:
		return "xsd:double"
	case Float:
		return "xsd:float"
	case Integer:
		return "xsd:integer"
	case Long:
		return "xsd:long"
	case Short:
		return "xsd:short"
	case Byte:
		return "xsd:byte"
	case UnsignedInt:
		return "xsd:unsignedInt"
	case UnsignedLong:
		return "xsd:unsignedLong"
	case NormalizedString:
		return "xsd:normalizedString"
	case Token:
		return "xsd:token"
	case Language:
		return "xsd:language"
	case HexBinary:
		return "xsd:hexBinary"
	case Base64Binary:
		return "xsd:base64Binary"
	case JSON:
		return "rdf:JSON"
	case Vector:
		return "fql:vector"
	case AnyURI:
		return "xsd:anyURI"
	default:
		return "xsd:unknown"
	}
}

// IsNumeric reports whether values of this datatype participate in the
// "numeric datatypes are mutually comparable" rule from the order-by spec.
func (id ID) IsNumeric() bool {
	switch id {
	case Decimal, Double, Float, Integer, Long, Short, Byte, UnsignedInt, UnsignedLong:
		return true
	default:
		return false
	}
}

// Ref is implemented by any value type that can stand in the object
// position as a reference to another subject (flake.Subject satisfies
// this without datatype importing the flake package, avoiding a cycle).
type Ref interface {
	Bytes() []byte
	String() string
}

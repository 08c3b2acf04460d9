package flake

// Predicate identifies a predicate IRI (e.g. "schema:name", "rdf:type").
// Unlike Subject, predicates are small and human-readable, so they are
// interned as plain strings rather than hashed.
type Predicate struct {
	iri string
}

// NewPredicate wraps a predicate IRI.
func NewPredicate(iri string) Predicate { return Predicate{iri: iri} }

// String returns the predicate's IRI.
func (p Predicate) String() string { return p.iri }

// Bytes returns the predicate IRI as bytes, used directly in index keys.
func (p Predicate) Bytes() []byte { return []byte(p.iri) }

// Compare orders two predicates lexicographically by IRI.
func (p Predicate) Compare(other Predicate) int {
	switch {
	case p.iri < other.iri:
		return -1
	case p.iri > other.iri:
		return 1
	default:
		return 0
	}
}

// IsRDFType reports whether this predicate is the rdf:type predicate used
// by class patterns.
func (p Predicate) IsRDFType() bool { return p.iri == "rdf:type" }

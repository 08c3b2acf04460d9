package index

import "github.com/wbrown/flakeql/datatype"

// Cardinality distinguishes single-valued predicates from multi-valued
// ones, mirroring a predicate's schema declaration.
type Cardinality int

const (
	CardinalityOne Cardinality = iota
	CardinalityMany
)

// PredicateMeta carries the schema metadata the data model requires for
// every predicate: its id, datatype class, cardinality, whether it is a
// reference (object position holds a subject), whether it participates in
// range indexing, and whether it is full-text indexed.
type PredicateMeta struct {
	ID          int
	IRI         string
	Datatype    datatype.ID
	Cardinality Cardinality
	IsRef       bool
	Indexed     bool
	FullText    bool
}

// ClassMeta records a class's direct superclasses; Schema.Subclasses
// computes the transitive closure from this adjacency map and caches it.
type ClassMeta struct {
	IRI             string
	DirectSupers    []string
	DirectSubclasses []string
}

// Schema is the predicate and class metadata attached to a snapshot. It is
// immutable for the snapshot's lifetime; the transitive-subclass closure is
// computed once per schema version and cached via ristretto (see
// subclass_cache.go), as SPEC_FULL.md's re-architecture note for cyclic
// class references recommends.
type Schema struct {
	predicates map[string]*PredicateMeta
	classes    map[string]*ClassMeta
	cache      *subclassCache
}

// NewSchema builds a schema from predicate and class metadata.
func NewSchema(predicates []*PredicateMeta, classes []*ClassMeta) *Schema {
	s := &Schema{
		predicates: make(map[string]*PredicateMeta, len(predicates)),
		classes:    make(map[string]*ClassMeta, len(classes)),
		cache:      newSubclassCache(),
	}
	for _, p := range predicates {
		s.predicates[p.IRI] = p
	}
	for _, c := range classes {
		s.classes[c.IRI] = c
	}
	return s
}

// Predicate looks up a predicate's metadata by IRI. The bool reports
// whether the predicate is known to the schema at all; an unknown
// predicate is not itself an error — raising invalid-predicate is the
// resolver's job once a query actually tries to use it.
func (s *Schema) Predicate(iri string) (*PredicateMeta, bool) {
	p, ok := s.predicates[iri]
	return p, ok
}

// Subclasses returns the transitive closure of subclasses of the named
// class, including the class itself, computed from the direct-subclass
// adjacency map and cached per schema instance.
func (s *Schema) Subclasses(classIRI string) []string {
	if cached, ok := s.cache.get(classIRI); ok {
		return cached
	}

	seen := map[string]bool{classIRI: true}
	queue := []string{classIRI}
	result := []string{classIRI}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		cls, ok := s.classes[cur]
		if !ok {
			continue
		}
		for _, sub := range cls.DirectSubclasses {
			if !seen[sub] {
				seen[sub] = true
				result = append(result, sub)
				queue = append(queue, sub)
			}
		}
	}

	s.cache.set(classIRI, result)
	return result
}

package index

import (
	"sync"

	"github.com/wbrown/flakeql/flake"
)

// InternRegistry is the concrete Resolver: a process-wide, lock-free-read
// intern table mapping subject hashes and predicate key encodings back to
// their user-facing flake.Subject / flake.Predicate forms, grounded on the
// teacher's KeywordIntern/IdentityIntern (datalog/intern.go). Every subject
// or predicate minted via NewSubject/NewPredicate anywhere in the engine
// should be registered here once so that later index scans, which only
// carry the hashed/fixed-width key form, can recover the original IRI.
type InternRegistry struct {
	subjects   sync.Map // [20]byte -> flake.Subject
	predicates sync.Map // [32]byte -> flake.Predicate
}

// NewInternRegistry creates an empty registry.
func NewInternRegistry() *InternRegistry {
	return &InternRegistry{}
}

// RegisterSubject records a subject so it can later be resolved from its
// hash alone.
func (r *InternRegistry) RegisterSubject(s flake.Subject) {
	r.subjects.LoadOrStore(s.Hash(), s)
}

// RegisterPredicate records a predicate so it can later be resolved from
// its fixed-width key encoding alone.
func (r *InternRegistry) RegisterPredicate(p flake.Predicate) {
	r.predicates.LoadOrStore(encodePredicate(p), p)
}

// ResolveSubject implements Resolver.
func (r *InternRegistry) ResolveSubject(hash [20]byte) flake.Subject {
	if v, ok := r.subjects.Load(hash); ok {
		return v.(flake.Subject)
	}
	return flake.SubjectFromHash(hash)
}

// ResolvePredicate implements Resolver. If the encoded bytes were never
// registered (can happen for predicates recovered purely from a foreign
// snapshot dump), it falls back to trimming NUL padding, which recovers
// the original IRI whenever it fit directly (<=32 bytes) and was not
// SHA256-hashed.
func (r *InternRegistry) ResolvePredicate(encoded []byte) flake.Predicate {
	var key [predicateKeySize]byte
	copy(key[:], encoded)
	if v, ok := r.predicates.Load(key); ok {
		return v.(flake.Predicate)
	}
	return flake.NewPredicate(trimPredicateKey(encoded))
}

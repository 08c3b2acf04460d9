package index

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/flake"
)

// predicateKeySize is the fixed width a predicate IRI occupies in an index
// key: stored directly (null-padded) when it fits, else SHA256-hashed,
// exactly as the teacher's storage.Attribute does for datalog.Keyword.
// A fixed width is required because SPOT/PSOT keys otherwise contain two
// variable-length components (predicate IRI and object value) with no way
// to tell where one ends and the other begins.
const predicateKeySize = 32

// encodePredicate renders a predicate IRI into its fixed-width key form.
func encodePredicate(p flake.Predicate) [predicateKeySize]byte {
	var out [predicateKeySize]byte
	iri := p.String()
	if len(iri) <= predicateKeySize {
		copy(out[:], iri)
	} else {
		hash := sha256.Sum256([]byte(iri))
		copy(out[:], hash[:])
	}
	return out
}

func predicateKeyBytes(p flake.Predicate) []byte {
	enc := encodePredicate(p)
	return enc[:]
}

// trimPredicateKey strips trailing NUL padding from a direct (non-hashed)
// predicate key encoding, returning the original IRI when recoverable.
func trimPredicateKey(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}

// Order identifies one of the four sort orders the index maintains. The
// same set of flakes is kept equivalent across all four at any snapshot
// time, per the data model invariant.
type Order byte

const (
	// SPOT orders by subject, predicate, object, tx. Chosen whenever the
	// subject is bound.
	SPOT Order = iota
	// POST orders by predicate, object, subject, tx. Chosen when predicate
	// and object are bound and the predicate is range-indexed.
	POST
	// PSOT orders by predicate, subject, object, tx. Chosen when only the
	// predicate is bound.
	PSOT
	// OPST orders by object, predicate, subject, tx. Chosen when only the
	// object is bound.
	OPST
)

func (o Order) String() string {
	switch o {
	case SPOT:
		return "spot"
	case POST:
		return "post"
	case PSOT:
		return "psot"
	case OPST:
		return "opst"
	default:
		return "unknown"
	}
}

func concatBytes(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, size)
	offset := 0
	for _, p := range parts {
		copy(out[offset:], p)
		offset += len(p)
	}
	return out
}

// valueBytes returns a type-tagged byte encoding of an object value,
// suitable for embedding in an index key: a 1-byte datatype tag followed
// by the datatype's canonical byte encoding, so that distinct datatypes
// never collide in sort order.
func valueBytes(v datatype.TypedValue) []byte {
	tag := byte(v.Datatype)
	data := []byte(datatype.Serialize(v))
	return concatBytes([]byte{tag}, data)
}

// EncodeKey renders a flake as a binary key in the given index order. Each
// index has a 1-byte order prefix so the four namespaces never collide
// within a single Badger keyspace.
func EncodeKey(order Order, f *flake.Flake) []byte {
	prefix := []byte{byte(order)}
	s := f.S.Bytes()
	p := predicateKeyBytes(f.P)
	v := valueBytes(f.O)
	tx := txBytes(f.Tx)

	switch order {
	case SPOT:
		return concatBytes(prefix, s, p, v, tx)
	case POST:
		return concatBytes(prefix, p, v, s, tx)
	case PSOT:
		return concatBytes(prefix, p, s, v, tx)
	case OPST:
		return concatBytes(prefix, v, p, s, tx)
	default:
		panic(fmt.Sprintf("unknown index order: %v", order))
	}
}

func txBytes(tx uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(tx)
		tx >>= 8
	}
	return b
}

const (
	subjectKeySize = 20
	txKeySize      = 8
)

// decodeKey splits an encoded index key (prefix already stripped) back into
// its subject/predicate/value/tx byte components, the inverse of EncodeKey.
// Entity and predicate are fixed-width; value is recovered by subtracting
// the other components' widths from the remaining key length, matching the
// teacher's BinaryKeyEncoder.DecodeKey approach.
func decodeKey(order Order, key []byte) (s, p, v, tx []byte, err error) {
	const minFixed = subjectKeySize + predicateKeySize + txKeySize
	if len(key) < minFixed {
		return nil, nil, nil, nil, fmt.Errorf("index key too short for %s: %d bytes", order, len(key))
	}

	switch order {
	case SPOT:
		s = key[0:subjectKeySize]
		p = key[subjectKeySize : subjectKeySize+predicateKeySize]
		tx = key[len(key)-txKeySize:]
		v = key[subjectKeySize+predicateKeySize : len(key)-txKeySize]
	case POST:
		p = key[0:predicateKeySize]
		tx = key[len(key)-txKeySize:]
		s = key[len(key)-txKeySize-subjectKeySize : len(key)-txKeySize]
		v = key[predicateKeySize : len(key)-txKeySize-subjectKeySize]
	case PSOT:
		p = key[0:predicateKeySize]
		s = key[predicateKeySize : predicateKeySize+subjectKeySize]
		tx = key[len(key)-txKeySize:]
		v = key[predicateKeySize+subjectKeySize : len(key)-txKeySize]
	case OPST:
		tx = key[len(key)-txKeySize:]
		s = key[len(key)-txKeySize-subjectKeySize : len(key)-txKeySize]
		p = key[len(key)-txKeySize-subjectKeySize-predicateKeySize : len(key)-txKeySize-subjectKeySize]
		v = key[0 : len(key)-txKeySize-subjectKeySize-predicateKeySize]
	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown index order: %v", order)
	}
	return s, p, v, tx, nil
}

// decodeValueBytes parses a type-tagged value encoding back into a typed
// value, the inverse of valueBytes.
func decodeValueBytes(b []byte) (datatype.TypedValue, error) {
	if len(b) < 1 {
		return datatype.TypedValue{}, fmt.Errorf("empty value encoding")
	}
	tag := datatype.ID(b[0])
	return datatype.Coerce(string(b[1:]), tag)
}

func decodeTxBytes(b []byte) uint64 {
	var tx uint64
	for _, by := range b {
		tx = (tx << 8) | uint64(by)
	}
	return tx
}

// EncodePrefix builds a prefix key for a range scan from already-encoded
// components (subject/predicate/value bytes, in the order the chosen index
// expects them).
func EncodePrefix(order Order, parts ...[]byte) []byte {
	prefix := []byte{byte(order)}
	all := append([][]byte{prefix}, parts...)
	return concatBytes(all...)
}

// PrefixRange derives [start, end) bracketing keys for a prefix scan: end
// is start with its last byte incremented (carrying as needed), matching
// the teacher's BinaryKeyEncoder.EncodePrefixRange.
func PrefixRange(prefix []byte) (start, end []byte) {
	start = prefix
	end = make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return start, end
		}
		if i == 0 {
			end = append(end, 0x00)
		}
	}
	return start, end
}

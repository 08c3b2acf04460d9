package index

import (
	"fmt"

	"github.com/wbrown/flakeql/flake"
)

// encodeFlakeValue serializes the part of a flake not already captured by
// its index key (subject, predicate, object, and tx all live in the key;
// only the assertion/retraction flag needs a value byte).
func encodeFlakeValue(f *flake.Flake) ([]byte, error) {
	return []byte{byte(f.Op)}, nil
}

// decodeFlakeValue reconstructs a flake from one index order's key and
// value bytes, using resolver to recover the subject and predicate's
// user-facing forms from their fixed-width key encodings.
func decodeFlakeValue(order Order, key, value []byte, resolver Resolver) (*flake.Flake, error) {
	if len(key) < 1 {
		return nil, fmt.Errorf("empty index key")
	}
	s, p, v, tx, err := decodeKey(order, key[1:]) // strip 1-byte order prefix
	if err != nil {
		return nil, err
	}

	var subjectHash [20]byte
	copy(subjectHash[:], s)

	tv, err := decodeValueBytes(v)
	if err != nil {
		return nil, fmt.Errorf("failed to decode flake value: %w", err)
	}

	op := flake.Assert
	if len(value) > 0 && value[0] == byte(flake.Retract) {
		op = flake.Retract
	}

	return &flake.Flake{
		S:  resolver.ResolveSubject(subjectHash),
		P:  resolver.ResolvePredicate(p),
		O:  tv,
		Tx: decodeTxBytes(tx),
		Op: op,
	}, nil
}

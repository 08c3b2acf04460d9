package index

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/wbrown/flakeql/flake"
)

// BadgerStore is the durable, BadgerDB-backed implementation of Store. It
// keeps one Badger keyspace holding all four index orders, distinguished
// by their 1-byte order prefix, exactly as the teacher's single-database,
// multi-index-prefix layout in storage/badger_store.go.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if necessary) a BadgerDB-backed store at
// path, tuned for the engine's read-heavy analytical workload.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.MemTableSize = 128 << 20
	opts.BlockCacheSize = 256 << 20
	opts.IndexCacheSize = 100 << 20
	opts.DetectConflicts = false
	opts.NumCompactors = 4
	opts.ValueThreshold = 1 << 10

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the store's resources.
func (s *BadgerStore) Close() error { return s.db.Close() }

// orders lists every index order a flake is written to and removed from.
var orders = [...]Order{SPOT, POST, PSOT, OPST}

// Assert durably writes flakes to all four index orders.
func (s *BadgerStore) Assert(flakes []flake.Flake) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for i := range flakes {
			if err := writeFlake(txn, &flakes[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeFlake(txn *badger.Txn, f *flake.Flake) error {
	value, err := encodeFlakeValue(f)
	if err != nil {
		return err
	}
	for _, order := range orders {
		key := EncodeKey(order, f)
		if err := txn.Set(key, value); err != nil {
			return fmt.Errorf("failed to write %s index: %w", order, err)
		}
	}
	return nil
}

// Retract removes a flake's assertion from all four index orders. It does
// not write a tombstone; the caller is expected to have already recorded
// the retraction in the novelty layer if it must remain visible to
// in-flight snapshots.
func (s *BadgerStore) Retract(flakes []flake.Flake) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for i := range flakes {
			for _, order := range orders {
				key := EncodeKey(order, &flakes[i])
				if err := txn.Delete(key); err != nil && err != badger.ErrKeyNotFound {
					return fmt.Errorf("failed to retract from %s index: %w", order, err)
				}
			}
		}
		return nil
	})
}

// Scan opens a leaf-chunked range iterator over one index order between
// [start, end). The returned iterator owns a read transaction and must be
// closed by the caller; closing releases the snapshot pin, satisfying the
// cancellation/leaf-release requirement of the concurrency model.
func (s *BadgerStore) Scan(order Order, start, end []byte) (*LeafIterator, error) {
	txn := s.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = 1000
	opts.PrefetchValues = true
	it := txn.NewIterator(opts)
	return &LeafIterator{txn: txn, it: it, start: start, end: end, order: order}, nil
}

// LeafIterator streams flakes from a single index-order range scan,
// chunked by the underlying store's natural iteration granularity
// ("leaves" in the spec's B+-tree framing; Badger's LSM iterator plays the
// same role).
type LeafIterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	start   []byte
	end     []byte
	order   Order
	started bool
}

// Next advances to the next matching key; it returns false once the range
// is exhausted or the iterator has been closed.
func (it *LeafIterator) Next() bool {
	if !it.started {
		it.it.Seek(it.start)
		it.started = true
	} else {
		it.it.Next()
	}
	if !it.it.Valid() {
		return false
	}
	if it.end != nil && bytes.Compare(it.it.Item().Key(), it.end) >= 0 {
		return false
	}
	return true
}

// Flake decodes the current position into a flake, using resolver to turn
// hashed subject/predicate bytes back into their user-facing forms.
func (it *LeafIterator) Flake(resolver Resolver) (*flake.Flake, error) {
	item := it.it.Item()
	var result *flake.Flake
	err := item.Value(func(val []byte) error {
		f, err := decodeFlakeValue(it.order, item.Key(), val, resolver)
		if err != nil {
			return err
		}
		result = f
		return nil
	})
	return result, err
}

// Close releases the iterator's snapshot pin. Must be called exactly once,
// whether the scan ran to completion or was cancelled.
func (it *LeafIterator) Close() error {
	it.it.Close()
	it.txn.Discard()
	return nil
}

// Resolver maps the raw index-key byte components of a flake back to
// user-facing identifiers. The concrete resolver is owned by whatever
// maintains the subject/predicate IRI tables; the index package only
// depends on the interface.
type Resolver interface {
	ResolveSubject(hash [20]byte) flake.Subject
	ResolvePredicate(iriBytes []byte) flake.Predicate
}

package index

import (
	"github.com/wbrown/flakeql/flake"
)

// FullTextSearcher is the external full-text search collaborator. This
// engine does not implement indexed search itself; it only depends on
// this interface, so any searcher implementation can be plugged in.
type FullTextSearcher interface {
	Search(ctx SearchContext, predicateOrClass string, query string) ([]flake.Subject, error)
}

// SearchContext carries whatever identifies "which dataset" to a full-text
// searcher; kept abstract since the engine does not implement search.
type SearchContext interface{}

// Optimizable is the capability a snapshot exposes to the planner: a
// selectivity estimate for a pattern and a total-triple count.
type Optimizable interface {
	Selectivity(pattern *Pattern) (int64, error)
	TotalFlakes() int64
}

// Snapshot is a read-only handle capturing (schema, indexes, novelty, t).
// It is immutable for its entire life: every index-range read and every
// novelty lookup it serves reflects exactly the data committed at or
// before t.
type Snapshot struct {
	Schema   *Schema
	Store    *BadgerStore
	Novelty  *Novelty
	T        int64
	Resolver Resolver
	FullText FullTextSearcher
	Policy   PolicyHook
}

// PolicyHook is the permission/policy enforcement seam: this engine does
// not implement authorization itself, but a caller can attach a hook to
// filter which flakes are visible. The default, returned by AllowAll,
// permits everything.
type PolicyHook interface {
	AllowFlake(f flake.Flake) bool
}

type allowAllPolicy struct{}

func (allowAllPolicy) AllowFlake(flake.Flake) bool { return true }

// AllowAll is the no-op policy hook used when a snapshot is constructed
// without an explicit policy.
var AllowAll PolicyHook = allowAllPolicy{}

// TotalFlakes implements Optimizable using the store's key-count scan of
// the PSOT order's full range (an arbitrary but stable choice of index for
// a whole-store estimate).
func (s *Snapshot) TotalFlakes() int64 {
	prefix := EncodePrefix(PSOT)
	start, end := PrefixRange(prefix)
	n, err := s.Store.CountKeys(PSOT, start, end)
	if err != nil {
		return 0
	}
	return n
}

// Selectivity implements Optimizable: the expected number of flakes a
// pattern will emit, estimated from a fast key-only count over the chosen
// index rather than a full value-materializing scan.
func (s *Snapshot) Selectivity(pattern *Pattern) (int64, error) {
	order, start, end, err := pattern.Range()
	if err != nil {
		return 0, err
	}
	return s.Store.CountKeys(order, start, end)
}

// CountKeys counts keys in [start, end) on the given index without
// fetching values, used by Selectivity and by TotalFlakes.
func (s *BadgerStore) CountKeys(order Order, start, end []byte) (int64, error) {
	it, err := s.Scan(order, start, end)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	var n int64
	for it.Next() {
		n++
	}
	return n, nil
}

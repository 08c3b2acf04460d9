package index

import (
	"bytes"
	"sort"
	"sync"

	"github.com/wbrown/flakeql/flake"
)

// Novelty holds in-memory flakes asserted since the last durable index
// refresh. It is layered on top of durable index reads by ResolveFlakeRange:
// assertions are added to a scan's results, retractions subtract matching
// durable flakes, in flake order, per the index-range resolver contract.
type Novelty struct {
	mu     sync.RWMutex
	flakes []flake.Flake
}

// NewNovelty creates an empty novelty layer.
func NewNovelty() *Novelty { return &Novelty{} }

// Add appends flakes to the novelty layer; assertions and retractions are
// both recorded here until compacted into the durable indexes.
func (n *Novelty) Add(flakes ...flake.Flake) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flakes = append(n.flakes, flakes...)
}

// Matching returns every novelty flake whose (subject, predicate) matches
// the supplied predicate function, ordered the way the chosen index would
// order them, so the caller can merge-join it against a durable scan.
func (n *Novelty) Matching(keep func(flake.Flake) bool, order Order) []flake.Flake {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var out []flake.Flake
	for _, f := range n.flakes {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return indexLess(order, out[i], out[j])
	})
	return out
}

func indexLess(order Order, a, b flake.Flake) bool {
	switch order {
	case SPOT, POST, PSOT, OPST:
		return bytes.Compare(EncodeKey(order, &a), EncodeKey(order, &b)) < 0
	default:
		return false
	}
}

func cmpBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// Merge combines a durable scan's results with the novelty layer: novelty
// assertions not already present in the durable result are appended,
// novelty retractions remove their durable counterpart. Flakes are
// compared by (subject, predicate, object) only — the transaction id is
// irrelevant once both layers agree whether the triple currently holds.
func Merge(durable []flake.Flake, novel []flake.Flake) []flake.Flake {
	if len(novel) == 0 {
		return durable
	}

	retracted := make(map[string]bool)
	var asserted []flake.Flake
	for _, f := range novel {
		key := tripleKey(f)
		if f.Op == flake.Retract {
			retracted[key] = true
		} else {
			asserted = append(asserted, f)
		}
	}

	out := make([]flake.Flake, 0, len(durable)+len(asserted))
	present := make(map[string]bool, len(durable))
	for _, f := range durable {
		key := tripleKey(f)
		if !retracted[key] {
			out = append(out, f)
			present[key] = true
		}
	}
	for _, f := range asserted {
		key := tripleKey(f)
		if !present[key] {
			out = append(out, f)
			present[key] = true
		}
	}
	return out
}

func tripleKey(f flake.Flake) string {
	return string(f.S.Bytes()) + "\x00" + f.P.String() + "\x00" + string(valueBytes(f.O))
}

package index

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/queryerr"
)

// Slot is one position (subject, predicate, or object) of a triple
// pattern: either a bound value, unbound, or guarded by a filter
// function evaluated against each candidate's value.
type Slot struct {
	Bound   bool
	Value   interface{} // flake.Subject, flake.Predicate, or datatype.TypedValue depending on position
	Filter  func(datatype.TypedValue) bool
	IsClass bool // object position only: expand to the transitive subclass set
}

// Unbound is a convenience constructor for an unconstrained slot.
func Unbound() Slot { return Slot{} }

// BoundValue constructs a bound slot.
func BoundValue(v interface{}) Slot { return Slot{Bound: true, Value: v} }

// Pattern is a triple pattern whose three slots are each bound, unbound,
// or filter-guarded, the unit the index-range resolver consumes.
type Pattern struct {
	S, P, O Slot
}

var warnOnce = color.New(color.FgYellow)

// Range computes the (order, start, end) bracketing scan for a pattern,
// implementing the deterministic index-choice rule from the component
// design:
//
//	s bound                          -> spot
//	p and o bound, p range-indexed    -> post
//	only p bound                      -> psot
//	only o bound                      -> opst
//	none bound                        -> spot
//
// A bound object against a non-indexed predicate with an unbound subject
// falls back to psot with a post-scan object filter, logging an advisory.
func (p *Pattern) Range() (Order, []byte, []byte, error) {
	order, err := p.chooseOrder()
	if err != nil {
		return 0, nil, nil, err
	}
	prefix := p.prefixBytes(order)
	start, end := PrefixRange(EncodePrefix(order, prefix...))
	return order, start, end, nil
}

// RangeWithSchema is Range but additionally consults the schema to decide
// whether a bound-object, bound-predicate, unbound-subject pattern can use
// post (predicate is range-indexed) or must fall back to psot with a
// post-scan filter.
func (p *Pattern) RangeWithSchema(schema *Schema) (Order, []byte, []byte, *Slot, error) {
	if p.S.Bound {
		order, start, end, err := p.Range()
		return order, start, end, nil, err
	}

	if p.P.Bound && p.O.Bound {
		pred, ok := p.P.Value.(flake.Predicate)
		if !ok {
			return 0, nil, nil, nil, queryerr.New(queryerr.InvalidPredicate, "predicate slot did not carry a predicate value")
		}
		meta, known := schema.Predicate(pred.String())
		if known && meta.Indexed {
			order, start, end, err := p.Range()
			return order, start, end, nil, err
		}

		// Advisory fallback: non-indexed predicate queried with a bound
		// object and unbound subject. Fall back to psot, pushing the
		// object constraint into a post-scan filter instead.
		warnOnce.Printf("advisory: predicate %q is not range-indexed; falling back to psot with a post-scan object filter\n", pred.String())
		fallback := Pattern{S: Unbound(), P: p.P, O: Unbound()}
		order, start, end, err := fallback.Range()
		objectFilter := p.O
		return order, start, end, &objectFilter, err
	}

	order, start, end, err := p.Range()
	return order, start, end, nil, err
}

func (p *Pattern) chooseOrder() (Order, error) {
	switch {
	case p.S.Bound:
		return SPOT, nil
	case p.P.Bound && p.O.Bound:
		return POST, nil
	case p.P.Bound:
		return PSOT, nil
	case p.O.Bound:
		return OPST, nil
	default:
		return SPOT, nil
	}
}

func (p *Pattern) prefixBytes(order Order) [][]byte {
	sBytes := func() []byte {
		s, ok := p.S.Value.(flake.Subject)
		if !ok {
			return nil
		}
		return s.Bytes()
	}
	pBytes := func() []byte {
		pr, ok := p.P.Value.(flake.Predicate)
		if !ok {
			return nil
		}
		b := predicateKeyBytes(pr)
		return b
	}
	oBytes := func() []byte {
		tv, ok := p.O.Value.(datatype.TypedValue)
		if !ok {
			return nil
		}
		return valueBytes(tv)
	}

	switch order {
	case SPOT:
		parts := [][]byte{}
		if p.S.Bound {
			parts = append(parts, sBytes())
			if p.P.Bound {
				parts = append(parts, pBytes())
			}
		}
		return parts
	case POST:
		parts := [][]byte{pBytes()}
		if p.O.Bound {
			parts = append(parts, oBytes())
		}
		return parts
	case PSOT:
		return [][]byte{pBytes()}
	case OPST:
		return [][]byte{oBytes()}
	default:
		return nil
	}
}

// Matches reports whether a fully-decoded flake satisfies every bound slot
// and filter of this pattern, used for the post-scan filtering the psot
// fallback (and any filter-fn slot) requires.
func (p *Pattern) Matches(f flake.Flake) bool {
	if p.S.Bound {
		s, ok := p.S.Value.(flake.Subject)
		if !ok || !s.Equal(f.S) {
			return false
		}
	}
	if p.S.Filter != nil && !p.S.Filter(datatype.New(f.S, datatype.AnyURI)) {
		return false
	}
	if p.P.Bound {
		pr, ok := p.P.Value.(flake.Predicate)
		if !ok || pr.String() != f.P.String() {
			return false
		}
	}
	if p.O.Bound {
		tv, ok := p.O.Value.(datatype.TypedValue)
		if !ok || !datatype.Equal(tv, f.O) {
			return false
		}
	}
	if p.O.Filter != nil && !p.O.Filter(f.O) {
		return false
	}
	return true
}

// ResolveFlakeRange streams the exact subset of flakes in the snapshot
// that match all bound slots of pattern and satisfy any object filter,
// merging in novelty, in the chosen index's order. This is the index-range
// resolver's whole contract: resolve_flake_range(snapshot, pattern, opts).
func ResolveFlakeRange(snap *Snapshot, pattern *Pattern) ([]flake.Flake, error) {
	order, start, end, objFilter, err := pattern.RangeWithSchema(snap.Schema)
	if err != nil {
		return nil, err
	}

	it, err := snap.Store.Scan(order, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s scan: %w", order, err)
	}
	defer it.Close()

	effective := *pattern
	if objFilter != nil {
		effective.O = *objFilter
	}

	var durable []flake.Flake
	for it.Next() {
		f, ferr := it.Flake(snap.Resolver)
		if ferr != nil {
			return nil, fmt.Errorf("failed to decode flake: %w", ferr)
		}
		if f.Op == flake.Retract {
			continue
		}
		if !effective.Matches(*f) {
			continue
		}
		if !snap.Policy.AllowFlake(*f) {
			continue
		}
		durable = append(durable, *f)
	}

	novel := snap.Novelty.Matching(func(f flake.Flake) bool {
		return effective.Matches(f) && snap.Policy.AllowFlake(f)
	}, order)

	merged := Merge(durable, novel)
	if len(novel) > 0 {
		sort.SliceStable(merged, func(i, j int) bool {
			return indexLess(order, merged[i], merged[j])
		})
	}
	return merged, nil
}

package query

import "github.com/wbrown/flakeql/datatype"

// Solution is one variable-to-typed-value binding produced by the
// where-executor, the typed-systems replacement for the teacher's
// dynamic `map[Symbol]interface{}` row (see SPEC_FULL.md's design-notes
// carry-forward of "dynamic return shapes"). It is sparse: an unbound
// variable is simply absent, matching SPARQL's `bound()` semantics.
type Solution struct {
	bindings map[VarID]datatype.TypedValue
}

// NewSolution creates an empty solution.
func NewSolution() Solution {
	return Solution{bindings: make(map[VarID]datatype.TypedValue)}
}

// Bind returns a new solution with v bound to val, leaving the receiver
// untouched; solutions are treated as immutable once produced so they can
// be fanned out across channel-chained pattern matchers without races.
func (s Solution) Bind(v VarID, val datatype.TypedValue) Solution {
	out := make(map[VarID]datatype.TypedValue, len(s.bindings)+1)
	for k, vv := range s.bindings {
		out[k] = vv
	}
	out[v] = val
	return Solution{bindings: out}
}

// Get returns the value bound to v and whether it is bound at all.
func (s Solution) Get(v VarID) (datatype.TypedValue, bool) {
	val, ok := s.bindings[v]
	return val, ok
}

// Bound reports whether v has a binding in this solution, the direct
// analogue of SPARQL's bound(?v).
func (s Solution) Bound(v VarID) bool {
	_, ok := s.bindings[v]
	return ok
}

// Vars returns every variable bound in this solution.
func (s Solution) Vars() []VarID {
	out := make([]VarID, 0, len(s.bindings))
	for v := range s.bindings {
		out = append(out, v)
	}
	return out
}

// Merge combines two solutions that agree on every variable they share,
// returning (merged, true); if they disagree on any shared variable it
// returns (zero, false) per the join-compatibility rule the executor's
// hash/nested-loop joins both rely on.
func (s Solution) Merge(other Solution) (Solution, bool) {
	out := make(map[VarID]datatype.TypedValue, len(s.bindings)+len(other.bindings))
	for k, v := range s.bindings {
		out[k] = v
	}
	for k, v := range other.bindings {
		if existing, ok := out[k]; ok {
			if !datatype.Equal(existing, v) {
				return Solution{}, false
			}
			continue
		}
		out[k] = v
	}
	return Solution{bindings: out}, true
}

// Clone returns an independent copy of s.
func (s Solution) Clone() Solution {
	out := make(map[VarID]datatype.TypedValue, len(s.bindings))
	for k, v := range s.bindings {
		out[k] = v
	}
	return Solution{bindings: out}
}

// Package flake defines the smallest storage unit of the graph store —
// the flake — and the subject/predicate identifiers it is built from.
// A flake carries a subject id, a predicate id, a typed object value, a
// transaction/version id, and an assertion/retraction flag. The same set
// of flakes is maintained in four sorted index orders by package index;
// this package only defines the unit and its in-memory comparators.
package flake

import (
	"fmt"

	"github.com/wbrown/flakeql/datatype"
)

// Op distinguishes an asserted flake from a retracted one. A flake and its
// retraction share every other field; retraction removes the assertion's
// effect as of the retracting transaction.
type Op byte

const (
	Assert Op = iota
	Retract
)

func (op Op) String() string {
	if op == Retract {
		return "retract"
	}
	return "assert"
}

// Flake is one time-stamped triple assertion or retraction.
type Flake struct {
	S  Subject
	P  Predicate
	O  datatype.TypedValue
	Tx uint64
	Op Op
}

// String renders a flake for diagnostics, matching the teacher's
// "[s p v tx]" datom rendering.
func (f Flake) String() string {
	sign := ""
	if f.Op == Retract {
		sign = "-"
	}
	return fmt.Sprintf("%s[%s %s %v %d]", sign, f.S.String(), f.P.String(), f.O.Value, f.Tx)
}

// New builds an asserted flake with an inferred datatype for the object
// when none is supplied.
func New(s Subject, p Predicate, o interface{}, tx uint64) Flake {
	var ov datatype.TypedValue
	if tv, ok := o.(datatype.TypedValue); ok {
		ov = tv
	} else {
		ov = datatype.Infer(o, "")
	}
	return Flake{S: s, P: p, O: ov, Tx: tx, Op: Assert}
}

// Retracted builds a retracting flake for the given subject/predicate/value.
func Retracted(s Subject, p Predicate, o interface{}, tx uint64) Flake {
	f := New(s, p, o, tx)
	f.Op = Retract
	return f
}

// Package queryerr carries the stable error-code/status vocabulary shared
// by every layer of the query engine (parser, planner, executor,
// postprocess), analogous to the teacher's ad-hoc fmt.Errorf chains but
// surfaced through a single wrapped type so a caller can branch on Code
// instead of matching error strings.
package queryerr

import "fmt"

// Code is one of the stable `:db/...` error tags an engine-facing caller
// can match on.
type Code string

const (
	InvalidQuery       Code = "db/invalid-query"
	InvalidPredicate   Code = "db/invalid-predicate"
	InvalidUpdate      Code = "db/invalid-update"
	ValueCoercion      Code = "db/value-coercion"
	ExceededCost       Code = "db/exceeded-cost"
	Unsupported        Code = "db/unsupported"
	UnknownLedger      Code = "db/unknown-ledger"
	OptimizationFailed Code = "db/optimization-failure"
)

// Status returns the HTTP-style status associated with a code.
func (c Code) Status() int {
	switch c {
	case UnknownLedger:
		return 404
	case OptimizationFailed:
		return 500
	default:
		return 400
	}
}

// QueryError is the concrete error type every layer returns for a
// recognized failure mode; Err carries the underlying cause for
// errors.Unwrap / errors.Is chains.
type QueryError struct {
	Code   Code
	Status int
	Msg    string
	Err    error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *QueryError) Unwrap() error { return e.Err }

// New constructs a QueryError with no wrapped cause.
func New(code Code, msg string) *QueryError {
	return &QueryError{Code: code, Status: code.Status(), Msg: msg}
}

// Wrap constructs a QueryError wrapping an underlying cause.
func Wrap(code Code, msg string, cause error) *QueryError {
	return &QueryError{Code: code, Status: code.Status(), Msg: msg, Err: cause}
}

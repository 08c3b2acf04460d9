// Package executor runs a planned where clause against a snapshot,
// folding it over a seed stream of one empty solution: execute_where
// (snapshot, parsed-where, supplied-vars) -> stream<solution>.
// Grounded on the teacher's datalog/executor package
// (channel-chained pattern matchers, executor.go's Executor/
// ExecutorOptions shape) generalized from Datalog data-pattern matching
// to the SPARQL-flavored pattern vocabulary in query.Clause.
package executor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// ExecutorOptions configures concurrency bounds and fuel limits,
// mirroring the teacher's ExecutorOptions (datalog/executor/options.go).
type ExecutorOptions struct {
	// MatcherConcurrency bounds how many solutions are fanned into a
	// single pattern matcher concurrently (2-8 is a reasonable range).
	MatcherConcurrency int
	// BufferSize bounds the intermediate channel between pattern stages,
	// providing back-pressure between stages.
	BufferSize int
	// MaxFuel records a fuel ceiling (0 means unlimited). Execute does not
	// read it; the ceiling in force is the one given to the *Fuel passed
	// to Execute.
	MaxFuel int64
	// RecursionDefaultBound is substituted for an unbounded "+"
	// repetition (configurable, default carried forward from the
	// teacher's legacy 100).
	RecursionDefaultBound int
}

// DefaultExecutorOptions returns the options used when a caller does not
// override them.
func DefaultExecutorOptions() ExecutorOptions {
	return ExecutorOptions{MatcherConcurrency: 4, BufferSize: 64, RecursionDefaultBound: 100}
}

// Fuel is a process-wide-per-query counter: every emitted flake and
// every produced solution increments it; once the ceiling given to
// NewFuel is exceeded, Spend returns an ExceededCost error.
type Fuel struct {
	used int64
	max  int64
}

// NewFuel creates a fuel counter with the given ceiling (0 = unlimited).
func NewFuel(max int64) *Fuel { return &Fuel{max: max} }

// Spend increments the counter by n and returns an error once the
// ceiling is exceeded.
func (f *Fuel) Spend(n int64) error {
	if f.max <= 0 {
		atomic.AddInt64(&f.used, n)
		return nil
	}
	if atomic.AddInt64(&f.used, n) > f.max {
		return queryerr.New(queryerr.ExceededCost, fmt.Sprintf("exceeded max-fuel %d", f.max))
	}
	return nil
}

// Used returns the fuel spent so far.
func (f *Fuel) Used() int64 { return atomic.LoadInt64(&f.used) }

// Executor runs a plan's where clause against a snapshot.
type Executor struct {
	Snapshot  *index.Snapshot
	Functions *query.FunctionRegistry
	Opts      ExecutorOptions
}

// New creates an executor bound to a snapshot.
func New(snap *index.Snapshot, funcs *query.FunctionRegistry, opts ExecutorOptions) *Executor {
	return &Executor{Snapshot: snap, Functions: funcs, Opts: opts}
}

// Execute folds where over a seed stream of one solution (extended with
// any caller-supplied input bindings), returning a channel of solutions.
// The returned channel is closed, and every leaf iterator released, once
// the where clause has been fully evaluated, ctx is cancelled, or an
// error is sent on the parallel errs channel.
func (e *Executor) Execute(ctx context.Context, where []query.Clause, seed query.Solution, fuel *Fuel) (<-chan query.Solution, <-chan error) {
	errs := make(chan error, 1)
	in := make(chan query.Solution, 1)
	in <- seed
	close(in)

	stream := in
	for _, clause := range where {
		stream = e.runClause(ctx, clause, stream, fuel, errs)
	}
	return stream, errs
}

// runClause dispatches one where-clause element to its matcher,
// chaining its output channel into the next stage's input.
func (e *Executor) runClause(ctx context.Context, c query.Clause, in <-chan query.Solution, fuel *Fuel, errs chan<- error) <-chan query.Solution {
	switch p := c.(type) {
	case query.TuplePattern:
		return e.matchTuple(ctx, p, in, fuel, errs)
	case query.ClassPattern:
		return e.matchClass(ctx, p, in, fuel, errs)
	case query.IRIPattern:
		return e.matchIRI(ctx, p, in, errs)
	case query.FullTextPattern:
		return e.matchFullText(ctx, p, in, errs)
	case query.OptionalPattern:
		return e.matchOptional(ctx, p, in, fuel, errs)
	case query.UnionPattern:
		return e.matchUnion(ctx, p, in, fuel, errs)
	case query.MinusPattern:
		if !p.FromSPARQL {
			out := make(chan query.Solution)
			close(out)
			select {
			case errs <- queryerr.New(queryerr.Unsupported, "minus is not supported in the native FQL dialect; it is only available via SPARQL translation"):
			default:
			}
			return out
		}
		return e.matchMinus(ctx, p, in, fuel, errs)
	case query.ExistsPattern:
		return e.matchExists(ctx, p, in, fuel, errs, true)
	case query.NotExistsPattern:
		return e.matchNotExists(ctx, p, in, fuel, errs)
	case query.BindPattern:
		return e.matchBind(ctx, p, in, errs)
	case query.FilterPattern:
		return e.matchFilter(ctx, p, in, errs, false)
	case query.ValuesPattern:
		return e.matchValues(ctx, p, in, errs)
	case query.GraphPattern:
		return e.matchGraph(ctx, p, in, fuel, errs)
	case query.ServicePattern:
		return e.matchService(ctx, p, in, errs)
	default:
		out := make(chan query.Solution)
		close(out)
		select {
		case errs <- fmt.Errorf("unsupported clause type %T", c):
		default:
		}
		return out
	}
}

func sendSolution(ctx context.Context, out chan<- query.Solution, s query.Solution) bool {
	select {
	case out <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

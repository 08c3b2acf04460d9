package executor

import (
	"context"
	"fmt"

	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// drain collects every solution from a channel, stopping early and
// returning what it has if ctx is cancelled.
func drain(ctx context.Context, ch <-chan query.Solution) []query.Solution {
	var out []query.Solution
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, s)
		case <-ctx.Done():
			return out
		}
	}
}

// runNested executes a nested clause list with seed as the sole input
// solution, returning its output solutions. When permissiveFilter is
// true, a top-level FilterPattern in inner skips (rather than excludes)
// a solution that doesn't yet bind every variable the filter
// references, instead of treating the missing binding as a false
// evaluation — the local recovery an OptionalPattern's Inner needs so a
// filter referencing a variable the optional itself never binds
// doesn't wrongly veto the optional's own candidate results.
func (e *Executor) runNested(ctx context.Context, inner []query.Clause, seed query.Solution, fuel *Fuel, errs chan<- error, permissiveFilter bool) []query.Solution {
	seedCh := make(chan query.Solution, 1)
	seedCh <- seed
	close(seedCh)

	var stream <-chan query.Solution = seedCh
	for _, c := range inner {
		if fp, ok := c.(query.FilterPattern); ok && permissiveFilter {
			stream = e.matchFilter(ctx, fp, stream, errs, true)
			continue
		}
		stream = e.runClause(ctx, c, stream, fuel, errs)
	}
	return drain(ctx, stream)
}

// matchOptional implements left-join semantics: run Inner seeded by the
// current solution; emit each result if any, otherwise emit the
// incoming solution unchanged.
func (e *Executor) matchOptional(ctx context.Context, p query.OptionalPattern, in <-chan query.Solution, fuel *Fuel, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			results := e.runNested(ctx, p.Inner, sol, fuel, errs, true)
			if len(results) == 0 {
				if !sendSolution(ctx, out, sol) {
					return
				}
				continue
			}
			for _, r := range results {
				if !sendSolution(ctx, out, r) {
					return
				}
			}
		}
	}()
	return out
}

// matchUnion executes each branch independently with the incoming
// solution as seed and concatenates the branches' outputs.
func (e *Executor) matchUnion(ctx context.Context, p query.UnionPattern, in <-chan query.Solution, fuel *Fuel, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			for _, branch := range p.Branches {
				for _, r := range e.runNested(ctx, branch, sol, fuel, errs, false) {
					if !sendSolution(ctx, out, r) {
						return
					}
				}
			}
		}
	}()
	return out
}

// matchMinus drops an incoming solution iff Inner has any match under
// the shared variables.
func (e *Executor) matchMinus(ctx context.Context, p query.MinusPattern, in <-chan query.Solution, fuel *Fuel, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			if len(e.runNested(ctx, p.Inner, sol, fuel, errs, false)) == 0 {
				if !sendSolution(ctx, out, sol) {
					return
				}
			}
		}
	}()
	return out
}

// matchExists keeps (emit == true) or drops (emit == false, used by
// matchNotExists) an incoming solution depending on whether Inner has
// any match.
func (e *Executor) matchExists(ctx context.Context, p query.ExistsPattern, in <-chan query.Solution, fuel *Fuel, errs chan<- error, emit bool) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			has := len(e.runNested(ctx, p.Inner, sol, fuel, errs, false)) > 0
			if has == emit {
				if !sendSolution(ctx, out, sol) {
					return
				}
			}
		}
	}()
	return out
}

// matchNotExists is Exists's dual.
func (e *Executor) matchNotExists(ctx context.Context, p query.NotExistsPattern, in <-chan query.Solution, fuel *Fuel, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			has := len(e.runNested(ctx, p.Inner, sol, fuel, errs, false)) > 0
			if !has {
				if !sendSolution(ctx, out, sol) {
					return
				}
			}
		}
	}()
	return out
}

// matchBind evaluates each binding expression in declared order under
// the current solution and extends it; binding an already-bound
// variable raises `rebinding`.
func (e *Executor) matchBind(ctx context.Context, p query.BindPattern, in <-chan query.Solution, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			cur := sol
			ok := true
			for _, a := range p.Assignments {
				if cur.Bound(a.Var) {
					trySend(errs, rebindingError(a.Name))
					ok = false
					break
				}
				v, err := e.Functions.EvalScalar(a.Expr, cur)
				if err != nil {
					// Function errors within bind leave the variable
					// unbound in this solution.
					continue
				}
				cur = cur.Bind(a.Var, v)
			}
			if ok && !sendSolution(ctx, out, cur) {
				return
			}
		}
	}()
	return out
}

// matchFilter drops solutions for which any expression evaluates to
// false or errors. When permissive is true, an expression referencing
// a variable the incoming solution doesn't bind is skipped rather than
// treated as false, letting the solution pass through unfiltered —
// the recovery rule used for a filter nested inside an optional.
func (e *Executor) matchFilter(ctx context.Context, p query.FilterPattern, in <-chan query.Solution, errs chan<- error, permissive bool) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			pass := true
			for _, expr := range p.Exprs {
				if permissive && !allBound(expr.RequiredVars(), sol) {
					continue
				}
				if !e.Functions.EvalFilter(expr, sol) {
					pass = false
					break
				}
			}
			if pass && !sendSolution(ctx, out, sol) {
				return
			}
		}
	}()
	return out
}

// allBound reports whether every variable in vars is bound in sol.
func allBound(vars []query.VarID, sol query.Solution) bool {
	for _, v := range vars {
		if !sol.Bound(v) {
			return false
		}
	}
	return true
}

// matchValues cross-joins incoming solutions with the declared value
// rows; a row containing UNDEF leaves the corresponding variable
// unbound in the joined solution.
func (e *Executor) matchValues(ctx context.Context, p query.ValuesPattern, in <-chan query.Solution, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			for _, row := range p.Rows {
				cur := sol
				compatible := true
				for i, v := range row {
					if v == nil {
						continue
					}
					merged, ok := cur.Merge(query.NewSolution().Bind(p.Vars[i], *v))
					if !ok {
						compatible = false
						break
					}
					cur = merged
				}
				if compatible && !sendSolution(ctx, out, cur) {
					return
				}
			}
		}
	}()
	return out
}

// matchGraph switches the snapshot used by Inner to a named dataset; a
// single-connection engine has exactly one dataset, so a bound graph
// name other than the default is out of scope and simply runs Inner
// against the current snapshot (multi-dataset federation is a future
// extension point this engine doesn't yet implement).
func (e *Executor) matchGraph(ctx context.Context, p query.GraphPattern, in <-chan query.Solution, fuel *Fuel, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			for _, r := range e.runNested(ctx, p.Inner, sol, fuel, errs, false) {
				if !sendSolution(ctx, out, r) {
					return
				}
			}
		}
	}()
	return out
}

// matchService federates Inner to a remote endpoint. This engine does
// not implement outbound SPARQL federation; Silent swallows the
// resulting "not available" failure (passing the solution through
// unchanged) while a non-silent SERVICE propagates it.
func (e *Executor) matchService(ctx context.Context, p query.ServicePattern, in <-chan query.Solution, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			if p.Silent {
				if !sendSolution(ctx, out, sol) {
					return
				}
				continue
			}
			trySend(errs, serviceUnavailableError())
			return
		}
	}()
	return out
}

func rebindingError(name string) error {
	return queryerr.New(queryerr.InvalidQuery, fmt.Sprintf("rebinding: variable %q is already bound", name))
}

func serviceUnavailableError() error {
	return queryerr.New(queryerr.Unsupported, "federated SERVICE execution is not available on this connection")
}

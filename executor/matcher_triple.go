package executor

import (
	"context"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/query"
)

// resolveTerm substitutes a term's current value (if it is a bound
// variable in sol) into an index.Slot, leaving it unbound otherwise.
func (e *Executor) resolveTermSlot(t query.Term, sol query.Solution, position int) index.Slot {
	switch term := t.(type) {
	case query.ConstTerm:
		return boundSlotFromTyped(term.Value, position)
	case query.VarTerm:
		if v, ok := sol.Get(term.Var); ok {
			return boundSlotFromTyped(v, position)
		}
		return index.Unbound()
	default:
		return index.Unbound()
	}
}

// position constants for boundSlotFromTyped: subject, predicate, object.
const (
	posSubject = iota
	posPredicate
	posObject
)

func boundSlotFromTyped(tv datatype.TypedValue, position int) index.Slot {
	switch position {
	case posSubject:
		if s, ok := tv.Value.(flake.Subject); ok {
			return index.BoundValue(s)
		}
		if iri, ok := tv.Value.(string); ok {
			return index.BoundValue(flake.NewSubject(iri))
		}
	case posPredicate:
		if iri, ok := tv.Value.(string); ok {
			return index.BoundValue(flake.NewPredicate(iri))
		}
	case posObject:
		return index.BoundValue(tv)
	}
	return index.Unbound()
}

// matchTuple implements the triple/class/iri matcher semantics for an
// ordinary 3-tuple pattern (or a `p+n` property-path pattern, delegated
// to matchRecursive).
func (e *Executor) matchTuple(ctx context.Context, p query.TuplePattern, in <-chan query.Solution, fuel *Fuel, errs chan<- error) <-chan query.Solution {
	if p.Repeat > 0 {
		return e.matchRecursive(ctx, p, in, fuel, errs)
	}

	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			pat := &index.Pattern{
				S: e.resolveTermSlot(p.Subject, sol, posSubject),
				P: e.resolveTermSlot(p.Predicate, sol, posPredicate),
				O: e.resolveTermSlot(p.Object, sol, posObject),
			}
			if p.InlineFilter != nil {
				pat.O.Filter = func(v datatype.TypedValue) bool {
					return e.Functions.EvalFilter(p.InlineFilter, sol.Bind(objVarOf(p), v))
				}
			}

			flakes, err := index.ResolveFlakeRange(e.Snapshot, pat)
			if err != nil {
				trySend(errs, err)
				return
			}
			if fuel != nil {
				if err := fuel.Spend(int64(len(flakes))); err != nil {
					trySend(errs, err)
					return
				}
			}
			for _, f := range flakes {
				ext, ok := extendSolution(sol, p.Subject, p.Predicate, p.Object, f)
				if !ok {
					continue
				}
				if fuel != nil {
					if err := fuel.Spend(1); err != nil {
						trySend(errs, err)
						return
					}
				}
				if !sendSolution(ctx, out, ext) {
					return
				}
			}
		}
	}()
	return out
}

func objVarOf(p query.TuplePattern) query.VarID {
	if vt, ok := p.Object.(query.VarTerm); ok {
		return vt.Var
	}
	return -1
}

// extendSolution binds whichever of subject/predicate/object are
// variables to the matching flake's values, rejecting the flake if a
// bound variable disagrees (join-compatibility).
func extendSolution(sol query.Solution, subj, pred, obj query.Term, f flake.Flake) (query.Solution, bool) {
	result := sol
	if vt, ok := subj.(query.VarTerm); ok {
		tv := datatype.New(f.S, datatype.AnyURI)
		merged, ok := result.Merge(query.NewSolution().Bind(vt.Var, tv))
		if !ok {
			return query.Solution{}, false
		}
		result = merged
	}
	if vt, ok := pred.(query.VarTerm); ok {
		tv := datatype.New(f.P.String(), datatype.AnyURI)
		merged, ok := result.Merge(query.NewSolution().Bind(vt.Var, tv))
		if !ok {
			return query.Solution{}, false
		}
		result = merged
	}
	if vt, ok := obj.(query.VarTerm); ok {
		merged, ok := result.Merge(query.NewSolution().Bind(vt.Var, f.O))
		if !ok {
			return query.Solution{}, false
		}
		result = merged
	}
	return result, true
}

func trySend(errs chan<- error, err error) {
	select {
	case errs <- err:
	default:
	}
}

// matchClass implements class-pattern expansion: the object value is
// expanded to its transitive-subclasses set, scanned once per class,
// deduplicating emitted subjects.
func (e *Executor) matchClass(ctx context.Context, p query.ClassPattern, in <-chan query.Solution, fuel *Fuel, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			classIRI := ""
			if ct, ok := p.Class.(query.ConstTerm); ok {
				if s, ok := ct.Value.Value.(string); ok {
					classIRI = s
				}
			}
			classes := []string{classIRI}
			if classIRI != "" && e.Snapshot.Schema != nil {
				classes = append(classes, e.Snapshot.Schema.Subclasses(classIRI)...)
			}

			seen := make(map[string]bool)
			for _, cls := range classes {
				pat := &index.Pattern{
					S: e.resolveTermSlot(p.Subject, sol, posSubject),
					P: index.BoundValue(flake.NewPredicate("rdf:type")),
					O: index.BoundValue(datatype.New(cls, datatype.AnyURI)),
				}
				flakes, err := index.ResolveFlakeRange(e.Snapshot, pat)
				if err != nil {
					trySend(errs, err)
					return
				}
				if fuel != nil {
					if err := fuel.Spend(int64(len(flakes))); err != nil {
						trySend(errs, err)
						return
					}
				}
				for _, f := range flakes {
					key := string(f.S.Bytes())
					if seen[key] {
						continue
					}
					seen[key] = true
					ext, ok := extendSolution(sol, p.Subject, query.ConstTerm{}, query.ConstTerm{}, f)
					if !ok {
						continue
					}
					if !sendSolution(ctx, out, ext) {
						return
					}
				}
			}
		}
	}()
	return out
}

// matchIRI binds a variable to a subject's own identity without
// constraining any predicate. It performs no index scan: each incoming
// solution is passed through without new bindings.
func (e *Executor) matchIRI(ctx context.Context, p query.IRIPattern, in <-chan query.Solution, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		for sol := range in {
			if vt, ok := p.Subject.(query.VarTerm); ok {
				if !sol.Bound(vt.Var) {
					// Subject unbound with no constraint: nothing to
					// enumerate without a full scan; pass through
					// unchanged, matching an unconstrained iri() no-op.
					if !sendSolution(ctx, out, sol) {
						return
					}
					continue
				}
			}
			if !sendSolution(ctx, out, sol) {
				return
			}
		}
	}()
	return out
}

// matchFullText delegates to the external FullTextSearcher collaborator;
// absent a configured searcher this degrades to an empty result set
// rather than erroring, since full-text indexing is an optional,
// pluggable collaborator rather than a capability this engine provides
// itself.
func (e *Executor) matchFullText(ctx context.Context, p query.FullTextPattern, in <-chan query.Solution, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)
	go func() {
		defer close(out)
		if e.Snapshot.FullText == nil {
			return
		}
		for sol := range in {
			subjects, err := e.Snapshot.FullText.Search(nil, p.PredicateOrClass, p.Query)
			if err != nil {
				trySend(errs, err)
				return
			}
			vt, isVar := p.Subject.(query.VarTerm)
			for _, s := range subjects {
				ext := sol
				if isVar {
					tv := datatype.New(s, datatype.AnyURI)
					merged, ok := ext.Merge(query.NewSolution().Bind(vt.Var, tv))
					if !ok {
						continue
					}
					ext = merged
				}
				if !sendSolution(ctx, out, ext) {
					return
				}
			}
		}
	}()
	return out
}

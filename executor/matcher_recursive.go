package executor

import (
	"context"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/query"
	"github.com/wbrown/flakeql/queryerr"
)

// matchRecursive implements recursive predicate traversal for a
// pattern `[?s p+n ?o]`: a fixed predicate, repeated up to n hops,
// deduplicating visited subjects, emitting one solution per reachable
// pair (origin, terminal). The predicate must not be a variable and the
// object must be a variable; violating either is `invalid-recursion`.
func (e *Executor) matchRecursive(ctx context.Context, p query.TuplePattern, in <-chan query.Solution, fuel *Fuel, errs chan<- error) <-chan query.Solution {
	out := make(chan query.Solution, e.Opts.BufferSize)

	predTerm, predOK := p.Predicate.(query.ConstTerm)
	objVar, objOK := p.Object.(query.VarTerm)
	if !predOK || !objOK {
		go func() {
			defer close(out)
			trySend(errs, queryerr.New(queryerr.InvalidQuery, "invalid-recursion: predicate must be fixed and object must be a variable"))
		}()
		return out
	}
	predIRI, _ := predTerm.Value.Value.(string)
	pred := flake.NewPredicate(predIRI)

	n := p.Repeat
	if n <= 0 || n > e.Opts.RecursionDefaultBound {
		n = e.Opts.RecursionDefaultBound
	}

	go func() {
		defer close(out)
		for sol := range in {
			origins, err := e.originsFor(sol, p.Subject, predTerm)
			if err != nil {
				trySend(errs, err)
				return
			}
			for _, origin := range origins {
				reachable, err := e.expandRecursive(pred, origin, n, fuel)
				if err != nil {
					trySend(errs, err)
					return
				}
				for _, r := range reachable {
					ext := sol
					if vt, ok := p.Subject.(query.VarTerm); ok {
						tv := datatype.New(origin, datatype.AnyURI)
						merged, ok := ext.Merge(query.NewSolution().Bind(vt.Var, tv))
						if !ok {
							continue
						}
						ext = merged
					}
					tv := datatype.New(r, datatype.AnyURI)
					merged, ok := ext.Merge(query.NewSolution().Bind(objVar.Var, tv))
					if !ok {
						continue
					}
					if !sendSolution(ctx, out, merged) {
						return
					}
				}
			}
		}
	}()
	return out
}

// originsFor resolves the starting subject set: the bound subject if
// the pattern's subject is already bound, or every distinct subject
// appearing in the current snapshot for the given predicate otherwise.
func (e *Executor) originsFor(sol query.Solution, subjTerm query.Term, predTerm query.ConstTerm) ([]flake.Subject, error) {
	switch t := subjTerm.(type) {
	case query.ConstTerm:
		if s, ok := t.Value.Value.(flake.Subject); ok {
			return []flake.Subject{s}, nil
		}
	case query.VarTerm:
		if v, ok := sol.Get(t.Var); ok {
			if s, ok := v.Value.(flake.Subject); ok {
				return []flake.Subject{s}, nil
			}
		} else {
			subjects, _, err := e.leadSubjects(query.TuplePattern{Predicate: predTerm})
			return subjects, err
		}
	}
	return nil, nil
}

// expandRecursive repeats up to n times: for every subject not yet
// fully expanded, scan spot for that subject and predicate, collect the
// object subject ids, and union into the reachable set. Self-loops are
// ignored for termination but preserved for results iff they appear at
// depth <= n.
func (e *Executor) expandRecursive(pred flake.Predicate, origin flake.Subject, n int, fuel *Fuel) ([]flake.Subject, error) {
	reachable := make(map[string]flake.Subject)
	frontier := []flake.Subject{origin}
	visited := map[string]bool{string(origin.Bytes()): true}

	for depth := 0; depth < n && len(frontier) > 0; depth++ {
		var next []flake.Subject
		for _, s := range frontier {
			pat := &index.Pattern{S: index.BoundValue(s), P: index.BoundValue(pred)}
			flakes, err := index.ResolveFlakeRange(e.Snapshot, pat)
			if err != nil {
				return nil, err
			}
			if fuel != nil {
				if err := fuel.Spend(int64(len(flakes))); err != nil {
					return nil, err
				}
			}
			for _, f := range flakes {
				var obj flake.Subject
				switch v := f.O.Value.(type) {
				case flake.Subject:
					obj = v
				case string:
					obj = flake.NewSubject(v)
				default:
					continue
				}
				key := string(obj.Bytes())
				reachable[key] = obj
				if !visited[key] {
					visited[key] = true
					next = append(next, obj)
				}
			}
		}
		frontier = next
	}

	out := make([]flake.Subject, 0, len(reachable))
	for _, s := range reachable {
		out = append(out, s)
	}
	return out, nil
}

package executor

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/query"
)

// newTestSnapshot opens a throwaway BadgerStore seeded with flakes, in the
// teacher's badger_store_test.go style (real on-disk store under a temp
// directory rather than a mock).
func newTestSnapshot(t *testing.T, flakes []flake.Flake) (*index.Snapshot, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "executor-test-*")
	require.NoError(t, err)

	store, err := index.OpenBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Assert(flakes))

	reg := index.NewInternRegistry()
	for _, f := range flakes {
		reg.RegisterSubject(f.S)
		reg.RegisterPredicate(f.P)
	}

	snap := &index.Snapshot{
		Schema:   index.NewSchema(nil, nil),
		Store:    store,
		Novelty:  index.NewNovelty(),
		Resolver: reg,
		Policy:   index.AllowAll,
	}
	cleanup := func() {
		store.Close()
		os.RemoveAll(dir)
	}
	return snap, cleanup
}

func newTestExecutor(t *testing.T, flakes []flake.Flake) (*Executor, func()) {
	snap, cleanup := newTestSnapshot(t, flakes)
	e := New(snap, query.NewFunctionRegistry(), DefaultExecutorOptions())
	return e, cleanup
}

func mustDrain(t *testing.T, ctx context.Context, ch <-chan query.Solution, errs <-chan error) []query.Solution {
	t.Helper()
	out := drain(ctx, ch)
	select {
	case err := <-errs:
		require.NoError(t, err)
	default:
	}
	return out
}

func TestMatchTupleBoundSubject(t *testing.T) {
	alice := flake.NewSubject("user:alice")
	name := flake.NewPredicate("schema:name")
	email := flake.NewPredicate("schema:email")

	flakes := []flake.Flake{
		flake.New(alice, name, "Alice", 1),
		flake.New(alice, email, "alice@example.com", 1),
	}
	e, cleanup := newTestExecutor(t, flakes)
	defer cleanup()

	vars := query.NewVarTable()
	vID := vars.Intern("value")

	where := []query.Clause{
		query.TuplePattern{
			Subject:   query.ConstTerm{Value: datatype.New(alice, datatype.AnyURI)},
			Predicate: query.ConstTerm{Value: datatype.New("schema:name", datatype.AnyURI)},
			Object:    query.VarTerm{Var: vID, Name: "?value"},
		},
	}

	ctx := context.Background()
	out, errs := e.Execute(ctx, where, query.NewSolution(), nil)
	results := mustDrain(t, ctx, out, errs)

	require.Len(t, results, 1)
	v, ok := results[0].Get(vID)
	require.True(t, ok)
	require.Equal(t, "Alice", v.Value)
}

func TestMatchTupleJoinsAcrossPatterns(t *testing.T) {
	alice := flake.NewSubject("user:alice")
	bob := flake.NewSubject("user:bob")
	follows := flake.NewPredicate("schema:follows")
	name := flake.NewPredicate("schema:name")

	flakes := []flake.Flake{
		flake.New(alice, follows, bob, 1),
		flake.New(bob, name, "Bob", 1),
	}
	e, cleanup := newTestExecutor(t, flakes)
	defer cleanup()

	vars := query.NewVarTable()
	sID := vars.Intern("s")
	nID := vars.Intern("n")

	where := []query.Clause{
		query.TuplePattern{
			Subject:   query.ConstTerm{Value: datatype.New(alice, datatype.AnyURI)},
			Predicate: query.ConstTerm{Value: datatype.New("schema:follows", datatype.AnyURI)},
			Object:    query.VarTerm{Var: sID, Name: "?s"},
		},
		query.TuplePattern{
			Subject:   query.VarTerm{Var: sID, Name: "?s"},
			Predicate: query.ConstTerm{Value: datatype.New("schema:name", datatype.AnyURI)},
			Object:    query.VarTerm{Var: nID, Name: "?n"},
		},
	}

	ctx := context.Background()
	out, errs := e.Execute(ctx, where, query.NewSolution(), nil)
	results := mustDrain(t, ctx, out, errs)

	require.Len(t, results, 1)
	n, ok := results[0].Get(nID)
	require.True(t, ok)
	require.Equal(t, "Bob", n.Value)
}

func TestMatchOptionalFallsThroughWhenInnerEmpty(t *testing.T) {
	alice := flake.NewSubject("user:alice")
	name := flake.NewPredicate("schema:name")
	flakes := []flake.Flake{flake.New(alice, name, "Alice", 1)}
	e, cleanup := newTestExecutor(t, flakes)
	defer cleanup()

	vars := query.NewVarTable()
	nickID := vars.Intern("nick")

	where := []query.Clause{
		query.OptionalPattern{Inner: []query.Clause{
			query.TuplePattern{
				Subject:   query.ConstTerm{Value: datatype.New(alice, datatype.AnyURI)},
				Predicate: query.ConstTerm{Value: datatype.New("schema:nickname", datatype.AnyURI)},
				Object:    query.VarTerm{Var: nickID, Name: "?nick"},
			},
		}},
	}

	ctx := context.Background()
	out, errs := e.Execute(ctx, where, query.NewSolution(), nil)
	results := mustDrain(t, ctx, out, errs)

	require.Len(t, results, 1)
	require.False(t, results[0].Bound(nickID))
}

func TestMatchFilterDropsNonMatching(t *testing.T) {
	alice := flake.NewSubject("user:alice")
	bob := flake.NewSubject("user:bob")
	age := flake.NewPredicate("schema:age")
	flakes := []flake.Flake{
		flake.New(alice, age, int64(30), 1),
		flake.New(bob, age, int64(12), 1),
	}
	e, cleanup := newTestExecutor(t, flakes)
	defer cleanup()

	vars := query.NewVarTable()
	sID := vars.Intern("s")
	ageID := vars.Intern("age")

	where := []query.Clause{
		query.TuplePattern{
			Subject:   query.VarTerm{Var: sID, Name: "?s"},
			Predicate: query.ConstTerm{Value: datatype.New("schema:age", datatype.AnyURI)},
			Object:    query.VarTerm{Var: ageID, Name: "?age"},
		},
		query.FilterPattern{Exprs: []*query.Expr{
			{Op: ">=", Args: []*query.Expr{
				{Leaf: query.VarTerm{Var: ageID, Name: "?age"}},
				{Leaf: query.ConstTerm{Value: datatype.New(int64(18), datatype.Integer)}},
			}},
		}},
	}

	ctx := context.Background()
	out, errs := e.Execute(ctx, where, query.NewSolution(), nil)
	results := mustDrain(t, ctx, out, errs)

	require.Len(t, results, 1)
	v, _ := results[0].Get(ageID)
	require.Equal(t, int64(30), v.Value)
}

func TestFuelExhaustion(t *testing.T) {
	alice := flake.NewSubject("user:alice")
	name := flake.NewPredicate("schema:name")
	flakes := []flake.Flake{
		flake.New(alice, name, "Alice", 1),
		flake.New(alice, name, "Alicia", 1),
	}
	e, cleanup := newTestExecutor(t, flakes)
	defer cleanup()

	vars := query.NewVarTable()
	vID := vars.Intern("v")
	where := []query.Clause{
		query.TuplePattern{
			Subject:   query.ConstTerm{Value: datatype.New(alice, datatype.AnyURI)},
			Predicate: query.ConstTerm{Value: datatype.New("schema:name", datatype.AnyURI)},
			Object:    query.VarTerm{Var: vID, Name: "?v"},
		},
	}

	ctx := context.Background()
	fuel := NewFuel(1)
	out, errs := e.Execute(ctx, where, query.NewSolution(), fuel)
	drain(ctx, out)

	select {
	case err := <-errs:
		require.Error(t, err)
	default:
		t.Fatal("expected fuel exhaustion error")
	}
}

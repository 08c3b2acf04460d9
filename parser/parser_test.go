package parser

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/executor"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/postprocess"
	"github.com/wbrown/flakeql/query"
)

func TestParseRejectsNonObjectDocument(t *testing.T) {
	_, err := Parse([]interface{}{"not", "an", "object"})
	require.Error(t, err)
}

func TestParseBasicSelectWhere(t *testing.T) {
	q, err := Parse(map[string]interface{}{
		"select": []interface{}{"?u", "?name"},
		"where": []interface{}{
			[]interface{}{"?u", "person:name", "?name"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, query.SelectMany, q.SelectMode)
	require.Len(t, q.Select, 2)
	require.Len(t, q.Where, 1)
}

func TestParseSelectOneForcesLimitOne(t *testing.T) {
	q, err := Parse(map[string]interface{}{
		"selectOne": []interface{}{"?u"},
		"where": []interface{}{
			[]interface{}{"?u", "rdf:type", "person:Person"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, q.Limit)
	require.Equal(t, int64(1), *q.Limit)
}

func TestParseGroupByAndHaving(t *testing.T) {
	q, err := Parse(map[string]interface{}{
		"select": []interface{}{"?c", "(count ?u)"},
		"where": []interface{}{
			[]interface{}{"?u", "person:company", "?c"},
		},
		"groupBy": "?c",
		"having":  []interface{}{`(> ?cnt 1)`},
	})
	require.NoError(t, err)
	require.NotNil(t, q.GroupBy)
	require.Len(t, q.Aggregates, 1)
	require.Len(t, q.Having, 1)
}

func TestParseOrderByLimitOffset(t *testing.T) {
	q, err := Parse(map[string]interface{}{
		"select": []interface{}{"?u"},
		"where": []interface{}{
			[]interface{}{"?u", "rdf:type", "person:Person"},
		},
		"orderBy": []interface{}{"desc", "?u"},
		"limit":   5.0,
		"offset":  2.0,
	})
	require.NoError(t, err)
	require.Len(t, q.OrderBy, 1)
	require.Equal(t, query.Desc, q.OrderBy[0].Direction)
	require.Equal(t, int64(5), *q.Limit)
	require.Equal(t, int64(2), q.Offset)
}

func TestParseOptsMaxFuel(t *testing.T) {
	q, err := Parse(map[string]interface{}{
		"select": []interface{}{"?u"},
		"where": []interface{}{
			[]interface{}{"?u", "rdf:type", "person:Person"},
		},
		"opts": map[string]interface{}{
			"maxFuel": 500.0,
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(500), q.Opts.MaxFuel)
}

func TestParseLegacyBasicQueryShape(t *testing.T) {
	q, err := Parse(map[string]interface{}{
		"from":  "person:Person",
		"where": "person:active",
	})
	require.NoError(t, err)
	require.Len(t, q.Where, 2)
	require.Len(t, q.Select, 1)
}

func TestParseRejectsNegativeOffset(t *testing.T) {
	_, err := Parse(map[string]interface{}{
		"select": []interface{}{"?u"},
		"where":  []interface{}{},
		"offset": -1.0,
	})
	require.Error(t, err)
}

// newTestSnapshot opens a throwaway BadgerStore seeded with flakes, matching
// the executor/postprocess packages' real-store fixture rather than a mock.
func newTestSnapshot(t *testing.T, flakes []flake.Flake) (*index.Snapshot, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "parser-test-*")
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

// TestParseExecuteClassScanAndSelect is a scenario-S1-style end-to-end test:
// a parsed class-scan query executed and post-processed to a flat selection,
// exercising parser -> executor -> postprocess with no mocks in between.
func TestParseExecuteClassScanAndSelect(t *testing.T) {
	alice := flake.NewSubject("person:alice")
	bob := flake.NewSubject("person:bob")
	typePred := flake.NewPredicate("rdf:type")
	namePred := flake.NewPredicate("person:name")

	flakes := []flake.Flake{
		flake.New(alice, typePred, datatype.New("person:Person", datatype.AnyURI), 1),
		flake.New(bob, typePred, datatype.New("person:Person", datatype.AnyURI), 1),
		flake.New(alice, namePred, "Alice", 1),
		flake.New(bob, namePred, "Bob", 1),
	}

	snap, cleanup := newTestSnapshot(t, flakes)
	defer cleanup()

	q, err := Parse(map[string]interface{}{
		"select": []interface{}{"?u", "?name"},
		"where": []interface{}{
			[]interface{}{"?u", "rdf:type", "person:Person"},
			[]interface{}{"?u", "person:name", "?name"},
		},
	})
	require.NoError(t, err)

	exec := executor.New(snap, query.NewFunctionRegistry(), executor.DefaultExecutorOptions())
	solCh, errCh := exec.Execute(context.Background(), q.Where, query.Solution{}, executor.NewFuel(10000))

	var solutions []query.Solution
	for s := range solCh {
		solutions = append(solutions, s)
	}
	select {
	case err := <-errCh:
		require.NoError(t, err)
	default:
	}
	require.Len(t, solutions, 2)

	result, err := postprocess.Run(snap, q, query.NewFunctionRegistry(), solutions)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
}

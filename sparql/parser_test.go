package sparql

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/executor"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
	"github.com/wbrown/flakeql/postprocess"
	"github.com/wbrown/flakeql/query"
)

func TestTranslateOmittedWhereKeyword(t *testing.T) {
	q, err := Translate("SELECT ?s { ?s ?p ?o }")
	require.NoError(t, err)
	require.Len(t, q.Where, 1)
}

func TestTranslateRejectsAsk(t *testing.T) {
	_, err := Translate("ASK { ?s ?p ?o }")
	require.Error(t, err)
}

func TestTranslateRejectsDescribe(t *testing.T) {
	_, err := Translate("DESCRIBE <http://example.org/a>")
	require.Error(t, err)
}

func TestTranslateRejectsConstruct(t *testing.T) {
	_, err := Translate("CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }")
	require.Error(t, err)
}

func TestTranslateRejectsFromNamed(t *testing.T) {
	_, err := Translate("SELECT ?s WHERE { ?s ?p ?o } ")
	require.NoError(t, err)
	_, err = Translate("SELECT ?s FROM NAMED <http://example.org/g> WHERE { ?s ?p ?o }")
	require.Error(t, err)
}

func TestTranslateBasicSelectWithPrefix(t *testing.T) {
	q, err := Translate(`
		PREFIX person: <http://example.org/person/>
		SELECT ?u ?name WHERE {
			?u a person:Person .
			?u person:name ?name .
		}`)
	require.NoError(t, err)
	require.Equal(t, query.SelectMany, q.SelectMode)
	require.Len(t, q.Select, 2)
	require.Len(t, q.Where, 2)
	_, ok := q.Where[0].(query.ClassPattern)
	require.True(t, ok)
}

func TestTranslateSelectDistinctStar(t *testing.T) {
	q, err := Translate("SELECT DISTINCT * WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	require.Equal(t, query.SelectDistinct, q.SelectMode)
	require.Len(t, q.Select, 3)
}

func TestTranslateOptionalUnionMinus(t *testing.T) {
	q, err := Translate(`
		SELECT ?s WHERE {
			?s <http://example.org/name> ?n .
			OPTIONAL { ?s <http://example.org/nick> ?nick }
			{ ?s <http://example.org/a> ?x } UNION { ?s <http://example.org/b> ?x }
			MINUS { ?s <http://example.org/banned> true }
		}`)
	require.NoError(t, err)
	require.Len(t, q.Where, 4)
	_, ok := q.Where[1].(query.OptionalPattern)
	require.True(t, ok)
	_, ok = q.Where[2].(query.UnionPattern)
	require.True(t, ok)
	_, ok = q.Where[3].(query.MinusPattern)
	require.True(t, ok)
}

func TestTranslateFilterBindValues(t *testing.T) {
	q, err := Translate(`
		SELECT ?s ?age WHERE {
			?s <http://example.org/age> ?age .
			BIND(?age + 1 AS ?nextAge)
			FILTER(?age >= 18)
			VALUES ?s { <http://example.org/alice> <http://example.org/bob> }
		}`)
	require.NoError(t, err)
	require.Len(t, q.Where, 4)
	_, ok := q.Where[1].(query.BindPattern)
	require.True(t, ok)
	_, ok = q.Where[2].(query.FilterPattern)
	require.True(t, ok)
	vp, ok := q.Where[3].(query.ValuesPattern)
	require.True(t, ok)
	require.Len(t, vp.Rows, 2)
}

func TestTranslateGraphAndService(t *testing.T) {
	q, err := Translate(`
		SELECT ?s WHERE {
			GRAPH ?g { ?s <http://example.org/p> ?o }
			SERVICE SILENT <http://example.org/sparql> { ?s <http://example.org/q> ?o2 }
		}`)
	require.NoError(t, err)
	require.Len(t, q.Where, 2)
	gp, ok := q.Where[0].(query.GraphPattern)
	require.True(t, ok)
	require.Len(t, gp.Inner, 1)
	sp, ok := q.Where[1].(query.ServicePattern)
	require.True(t, ok)
	require.True(t, sp.Silent)
}

func TestTranslateGroupByHavingOrderByLimitOffset(t *testing.T) {
	q, err := Translate(`
		SELECT ?c (COUNT(?u) AS ?n) WHERE {
			?u <http://example.org/company> ?c .
		}
		GROUP BY ?c
		HAVING (?n > 1)
		ORDER BY DESC(?n)
		LIMIT 5
		OFFSET 2`)
	require.NoError(t, err)
	require.NotNil(t, q.GroupBy)
	require.Len(t, q.Aggregates, 1)
	require.Len(t, q.Having, 1)
	require.Len(t, q.OrderBy, 1)
	require.Equal(t, query.Desc, q.OrderBy[0].Direction)
	require.NotNil(t, q.Limit)
	require.Equal(t, int64(5), *q.Limit)
	require.Equal(t, int64(2), q.Offset)
}

func TestTranslatePropertyPathRepeat(t *testing.T) {
	q, err := Translate("SELECT ?a ?b WHERE { ?a <http://example.org/knows>+2 ?b }")
	require.NoError(t, err)
	tp, ok := q.Where[0].(query.TuplePattern)
	require.True(t, ok)
	require.Equal(t, 2, tp.Repeat)
}

func TestTranslateRejectsComplexPropertyPath(t *testing.T) {
	_, err := Translate("SELECT ?a ?b WHERE { ?a <http://example.org/knows>/<http://example.org/likes> ?b }")
	require.Error(t, err)
}

// newTestSnapshot opens a throwaway BadgerStore seeded with flakes, matching
// the parser/executor/postprocess packages' real-store fixture rather than a
// mock.
func newTestSnapshot(t *testing.T, flakes []flake.Flake) (*index.Snapshot, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "sparql-test-*")
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

// TestTranslateExecuteAndLimit mirrors parser's scenario-S6-style test: a
// SPARQL SELECT with a LIMIT, executed through the same executor/postprocess
// pipeline the native FQL dialect uses, confirming the translator hands the
// planner an indistinguishable query.ParsedQuery.
func TestTranslateExecuteAndLimit(t *testing.T) {
	alice := flake.NewSubject("person:alice")
	bob := flake.NewSubject("person:bob")
	carol := flake.NewSubject("person:carol")
	namePred := flake.NewPredicate("ex:name")

	flakes := []flake.Flake{
		flake.New(alice, namePred, "Alice", 1),
		flake.New(bob, namePred, "Bob", 1),
		flake.New(carol, namePred, "Carol", 1),
	}
	snap, cleanup := newTestSnapshot(t, flakes)
	defer cleanup()

	q, err := Translate(`
		PREFIX ex: <ex:>
		SELECT ?n WHERE { ?s ex:name ?n } LIMIT 2`)
	require.NoError(t, err)
	require.NotNil(t, q.Limit)
	require.Equal(t, int64(2), *q.Limit)

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
	require.Len(t, solutions, 3)

	result, err := postprocess.Run(snap, q, query.NewFunctionRegistry(), solutions)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
}

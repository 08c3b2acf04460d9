package executor

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/query"
)

func TestSubjectCrawl(t *testing.T) {
	alice := flake.NewSubject("user:alice")
	bob := flake.NewSubject("user:bob")
	name := flake.NewPredicate("schema:name")
	typ := flake.NewPredicate("rdf:type")
	person := datatype.New("schema:Person", datatype.AnyURI)

	flakes := []flake.Flake{
		flake.New(alice, typ, person, 1),
		flake.New(alice, name, "Alice", 1),
		flake.New(bob, name, "Bob", 1),
	}
	e, cleanup := newTestExecutor(t, flakes)
	defer cleanup()

	vars := query.NewVarTable()
	sID := vars.Intern("s")
	where := []query.Clause{
		query.TuplePattern{
			Subject:   query.VarTerm{Var: sID, Name: "?s"},
			Predicate: query.ConstTerm{Value: datatype.New("rdf:type", datatype.AnyURI)},
			Object:    query.ConstTerm{Value: person},
		},
	}

	subjects, err := e.SubjectCrawl(where, sID, 0, nil)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	require.True(t, subjects[0].Equal(alice))
}

func TestSubjectCrawlAppliesOffsetLimit(t *testing.T) {
	a := flake.NewSubject("user:a")
	b := flake.NewSubject("user:b")
	c := flake.NewSubject("user:c")
	typ := flake.NewPredicate("rdf:type")
	person := datatype.New("schema:Person", datatype.AnyURI)

	flakes := []flake.Flake{
		flake.New(a, typ, person, 1),
		flake.New(b, typ, person, 1),
		flake.New(c, typ, person, 1),
	}
	e, cleanup := newTestExecutor(t, flakes)
	defer cleanup()

	vars := query.NewVarTable()
	sID := vars.Intern("s")
	where := []query.Clause{
		query.TuplePattern{
			Subject:   query.VarTerm{Var: sID, Name: "?s"},
			Predicate: query.ConstTerm{Value: datatype.New("rdf:type", datatype.AnyURI)},
			Object:    query.ConstTerm{Value: person},
		},
	}

	limit := int64(1)
	subjects, err := e.SubjectCrawl(where, sID, 1, &limit)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
}

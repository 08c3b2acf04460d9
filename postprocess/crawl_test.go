package postprocess

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/query"
)

func TestCrawlWildcardCollapsesSingleValued(t *testing.T) {
	alice := flake.NewSubject("user:alice")
	name := flake.NewPredicate("schema:name")
	flakes := []flake.Flake{flake.New(alice, name, "Alice", 1)}

	snap, cleanup := newTestSnapshot(t, flakes)
	defer cleanup()

	doc, err := Crawl(snap, alice, &query.SelectTree{Wildcard: true}, 0, 1)
	require.NoError(t, err)
	require.Equal(t, alice.String(), doc["@id"])
	require.Equal(t, "Alice", doc["schema:name"])
}

func TestCrawlNestedReferenceExpansion(t *testing.T) {
	alice := flake.NewSubject("user:alice")
	bob := flake.NewSubject("user:bob")
	knows := flake.NewPredicate("schema:knows")
	name := flake.NewPredicate("schema:name")

	flakes := []flake.Flake{
		flake.New(alice, knows, bob, 1),
		flake.New(bob, name, "Bob", 1),
	}
	snap, cleanup := newTestSnapshot(t, flakes)
	defer cleanup()

	tree := &query.SelectTree{
		Fields: []query.SelectField{
			{Predicate: "schema:knows", Nested: &query.SelectTree{
				Fields: []query.SelectField{{Predicate: "schema:name"}},
			}},
		},
	}

	doc, err := Crawl(snap, alice, tree, 0, 2)
	require.NoError(t, err)
	nested, ok := doc["schema:knows"].(Document)
	require.True(t, ok)
	require.Equal(t, "Bob", nested["schema:name"])
}

func TestCrawlReverseReference(t *testing.T) {
	alice := flake.NewSubject("user:alice")
	bob := flake.NewSubject("user:bob")
	manager := flake.NewPredicate("schema:manager")

	flakes := []flake.Flake{
		flake.New(bob, manager, alice, 1),
	}
	snap, cleanup := newTestSnapshot(t, flakes)
	defer cleanup()

	tree := &query.SelectTree{
		Fields: []query.SelectField{{Predicate: "schema:manager", Reverse: true}},
	}

	doc, err := Crawl(snap, alice, tree, 0, 1)
	require.NoError(t, err)
	require.Equal(t, bob.String(), doc["schema:manager"])
}

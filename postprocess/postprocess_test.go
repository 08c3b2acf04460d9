package postprocess

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wbrown/flakeql/flake"
	"github.com/wbrown/flakeql/index"
)

// newTestSnapshot opens a throwaway BadgerStore seeded with flakes, matching
// the executor package's real-store test fixture rather than a mock.
func newTestSnapshot(t *testing.T, flakes []flake.Flake) (*index.Snapshot, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "postprocess-test-*")
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

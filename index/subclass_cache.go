package index

import "github.com/dgraph-io/ristretto"

// subclassCache memoizes Schema.Subclasses closures. Class hierarchies are
// shallow but looked up on every class-pattern match, so a small
// ristretto cache (the same library badger already pulls in
// transitively) avoids recomputing the BFS on every query while still
// evicting under memory pressure, unlike an unbounded map.
type subclassCache struct {
	c *ristretto.Cache
}

func newSubclassCache() *subclassCache {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		// A cache is pure optimization; degrade to "always miss" rather
		// than fail schema construction.
		return &subclassCache{c: nil}
	}
	return &subclassCache{c: c}
}

func (s *subclassCache) get(classIRI string) ([]string, bool) {
	if s.c == nil {
		return nil, false
	}
	v, ok := s.c.Get(classIRI)
	if !ok {
		return nil, false
	}
	return v.([]string), true
}

func (s *subclassCache) set(classIRI string, subclasses []string) {
	if s.c == nil {
		return
	}
	s.c.Set(classIRI, subclasses, int64(len(subclasses)+1))
}

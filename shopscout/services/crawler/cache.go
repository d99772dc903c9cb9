package crawler

import (
	"context"
	"sort"
	"sync"
)

// DiscoveryCache maps a lower-cased brand keyword to the ascending listing
// pages it was last seen on. It only narrows future page plans; a brand that
// is missing falls back to the full page range.
type DiscoveryCache map[string][]int

// CacheStore loads and persists the discovery cache. Load must return an
// empty cache, not an error, when nothing has been stored yet.
type CacheStore interface {
	Load(ctx context.Context) (DiscoveryCache, error)
	Save(ctx context.Context, cache DiscoveryCache) error
}

// MergePages returns the sorted, de-duplicated union of both page sets.
func MergePages(existing, observed []int) []int {
	set := make(map[int]struct{}, len(existing)+len(observed))
	for _, p := range existing {
		set[p] = struct{}{}
	}
	for _, p := range observed {
		set[p] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Pages returns the cached pages of brand, if any.
func (c DiscoveryCache) Pages(brand string) ([]int, bool) {
	pages, ok := c[brand]
	return pages, ok
}

// Merge folds the observations of one run into the cache in place.
func (c DiscoveryCache) Merge(observed map[string]map[int]struct{}) {
	for brand, pages := range observed {
		list := make([]int, 0, len(pages))
		for p := range pages {
			list = append(list, p)
		}
		c[brand] = MergePages(c[brand], list)
	}
}

// Clone returns a deep copy.
func (c DiscoveryCache) Clone() DiscoveryCache {
	out := make(DiscoveryCache, len(c))
	for brand, pages := range c {
		out[brand] = append([]int(nil), pages...)
	}
	return out
}

// Normalize sorts and de-duplicates every entry and drops non-positive pages,
// so a hand-edited cache file still satisfies the cache invariants.
func (c DiscoveryCache) Normalize() DiscoveryCache {
	out := make(DiscoveryCache, len(c))
	for brand, pages := range c {
		valid := pages[:0:0]
		for _, p := range pages {
			if p > 0 {
				valid = append(valid, p)
			}
		}
		out[brand] = MergePages(nil, valid)
	}
	return out
}

// MemoryCacheStore keeps the cache in process memory. Used by the CLI dry runs
// and tests.
type MemoryCacheStore struct {
	mu    sync.Mutex
	cache DiscoveryCache
}

func NewMemoryCacheStore(seed DiscoveryCache) *MemoryCacheStore {
	if seed == nil {
		seed = DiscoveryCache{}
	}
	return &MemoryCacheStore{cache: seed.Clone()}
}

func (m *MemoryCacheStore) Load(ctx context.Context) (DiscoveryCache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Clone(), nil
}

func (m *MemoryCacheStore) Save(ctx context.Context, cache DiscoveryCache) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = cache.Clone()
	return nil
}

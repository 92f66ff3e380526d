package report

import (
	lru "github.com/hashicorp/golang-lru"
)

// LRUStore keeps the most recent runs in memory and delegates to a backing
// Store for persistence and on cache misses.
type LRUStore struct {
	cache *lru.Cache
	back  Store
}

// NewLRUStore creates a cache holding up to size runs in front of back.
// Sizes below one are raised to one.
func NewLRUStore(size int, back Store) *LRUStore {
	if size < 1 {
		size = 1
	}
	cache, err := lru.New(size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &LRUStore{cache: cache, back: back}
}

// Save caches the result and writes it to the backing store.
func (s *LRUStore) Save(result *RunResult) error {
	s.cache.Add(result.ID, result)
	return s.back.Save(result)
}

// Load returns a cached run or loads it from the backing store, promoting
// it into the cache.
func (s *LRUStore) Load(runID string) (*RunResult, error) {
	if v, ok := s.cache.Get(runID); ok {
		return v.(*RunResult), nil
	}
	result, err := s.back.Load(runID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(runID, result)
	return result, nil
}

// Recent returns the cached runs, most recently used first.
func (s *LRUStore) Recent() []*RunResult {
	keys := s.cache.Keys()
	out := make([]*RunResult, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if v, ok := s.cache.Peek(keys[i]); ok {
			out = append(out, v.(*RunResult))
		}
	}
	return out
}

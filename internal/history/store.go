package history

import (
	"sync"
	"time"

	"github.com/ysoda/indexpulse/internal/contracts"
)

// cacheEntry is one cached fetch result. Entries are superseded, never
// mutated, so readers holding a returned series are unaffected by later
// refreshes.
type cacheEntry struct {
	series    contracts.Series
	fetchedAt time.Time
}

// Store holds the per-key TTL cache and the last-good table. Both are
// shared across concurrent callers and guarded by a single mutex; every
// series crossing the boundary is cloned.
type Store struct {
	mu       sync.RWMutex
	ttl      time.Duration
	cache    map[string]cacheEntry
	lastGood map[string]contracts.Series
	now      func() time.Time
}

// NewStore creates an empty store with the given cache TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		cache:    make(map[string]cacheEntry),
		lastGood: make(map[string]contracts.Series),
		now:      time.Now,
	}
}

// Cached returns the unexpired cached series for a key, if any.
func (s *Store) Cached(key string) (contracts.Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.fetchedAt) >= s.ttl {
		return nil, false
	}
	return entry.series.Clone(), true
}

// Accept records a validated series in both tables under one lock: the
// TTL cache under its range key and the last-good table under the
// instrument key. Only validated series reach here; a rejected fetch
// never touches either table.
func (s *Store) Accept(cacheKey, instrumentKey string, series contracts.Series) {
	clone := series.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[cacheKey] = cacheEntry{series: clone, fetchedAt: s.now()}
	s.lastGood[instrumentKey] = clone
}

// LastGood returns the most recent validated series for a key,
// regardless of cache TTL. It is retained for the process lifetime.
func (s *Store) LastGood(key string) (contracts.Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.lastGood[key]
	if !ok {
		return nil, false
	}
	return series.Clone(), true
}

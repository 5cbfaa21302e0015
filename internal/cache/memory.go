package cache

import (
	"sync"
	"time"
)

// MemoryStore is the process-wide Store backed by an LRUCache. The ttl is a
// garbage-collection horizon for unused keys, not a staleness policy;
// staleness is decided by the query layer from Entry.UpdatedAt.
type MemoryStore struct {
	mu  sync.Mutex
	lru *LRUCache[Entry]
	now func() time.Time
}

var (
	_ Store     = (*MemoryStore)(nil)
	_ KeyLister = (*MemoryStore)(nil)
	_ Cleaner   = (*MemoryStore)(nil)
)

// NewMemoryStore creates a store holding at most maxEntries keys.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		lru: NewLRUCache[Entry](maxEntries, ttl),
		now: time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	s.lru.mu.Lock()
	s.lru.now = now
	s.lru.mu.Unlock()
	return s
}

func (s *MemoryStore) Get(key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Get(key.String())
}

func (s *MemoryStore) Set(key Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Set(key.String(), Entry{Value: value, UpdatedAt: s.now()})
}

// Restore writes value with an explicit timestamp, used when loading a
// persisted mirror so restored entries keep their original age.
func (s *MemoryStore) Restore(key Key, value any, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Set(key.String(), Entry{Value: value, UpdatedAt: updatedAt})
}

// Update stamps the patched entry with the current time, except when the
// entry is partial: one Update created from nothing, or a later patch of such
// an entry. Partial entries keep a zero UpdatedAt so readers refetch them;
// only Set or Restore makes them whole.
func (s *MemoryStore) Update(key Key, fn func(old any, ok bool) (any, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var old any
	e, ok := s.lru.Get(key.String())
	if ok {
		old = e.Value
	}
	next, write := fn(old, ok)
	if !write {
		return
	}
	var updatedAt time.Time
	if ok && !e.Partial() {
		updatedAt = s.now()
	}
	s.lru.Set(key.String(), Entry{Value: next, UpdatedAt: updatedAt})
}

func (s *MemoryStore) Delete(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Delete(key.String())
}

func (s *MemoryStore) Keys() []Key {
	raw := s.lru.Keys()
	keys := make([]Key, len(raw))
	for i, k := range raw {
		keys[i] = ParseKey(k)
	}
	return keys
}

func (s *MemoryStore) CleanExpired() int {
	return s.lru.CleanExpired()
}

func (s *MemoryStore) Size() int {
	return s.lru.Size()
}

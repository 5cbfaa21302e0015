package cache

import (
	"log/slog"
	"strings"
	"time"
)

// Key addresses one cached collection: an entity kind plus an optional
// partition (for example the country of an expense list).
type Key struct {
	Kind      string
	Partition string
}

// NewKey builds a Key; only the first partition value is used.
func NewKey(kind string, partition ...string) Key {
	k := Key{Kind: kind}
	if len(partition) > 0 {
		k.Partition = partition[0]
	}
	return k
}

// String renders the key as "kind" or "kind:partition".
func (k Key) String() string {
	if k.Partition == "" {
		return k.Kind
	}
	return k.Kind + ":" + k.Partition
}

// ParseKey is the inverse of Key.String. Kinds never contain ':'.
func ParseKey(s string) Key {
	kind, partition, _ := strings.Cut(s, ":")
	return Key{Kind: kind, Partition: partition}
}

// Entry is a cached value plus the time it was last written. A zero
// UpdatedAt marks a partial entry, built by patches without a full fetch.
type Entry struct {
	Value     any
	UpdatedAt time.Time
}

func (e Entry) Partial() bool { return e.UpdatedAt.IsZero() }

// Store is the keyed snapshot store shared by every cache service.
// Update is an atomic read-modify-write: fn receives the current value (ok is
// false when absent) and returns the replacement; returning false leaves the
// entry untouched. An entry Update creates is partial and never fresh.
type Store interface {
	Get(key Key) (Entry, bool)
	Set(key Key, value any)
	Update(key Key, fn func(old any, ok bool) (any, bool))
	Delete(key Key)
}

// KeyLister is implemented by stores that can enumerate their keys.
type KeyLister interface {
	Keys() []Key
}

// Lookup returns the typed value stored at key.
func Lookup[T any](s Store, key Key) (T, bool) {
	var zero T
	e, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := e.Value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Mutate is the typed form of Store.Update. A stored value of another type is
// treated as absent.
func Mutate[T any](s Store, key Key, fn func(old T, ok bool) (T, bool)) {
	s.Update(key, func(old any, ok bool) (any, bool) {
		var typed T
		if ok {
			typed, ok = old.(T)
		}
		next, write := fn(typed, ok)
		if !write {
			return nil, false
		}
		return next, true
	})
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	logger      *slog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

// NewManager creates a new cache manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:      logger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

// CleanNow runs one cleanup pass and returns the number of evicted entries.
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.Debug("Cache cleanup completed", "entries_removed", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine
func (m *Manager) Stop() {
	if !m.started {
		return
	}
	m.started = false
	close(m.stopCleanup)
	<-m.cleanupDone
}

package services

import (
	"log/slog"

	"viagem/internal/cache"
	"viagem/internal/core"
)

// EntityCache applies mutation outcomes to one unpartitioned collection key.
type EntityCache[E core.Record[E]] struct {
	store  cache.Store
	key    cache.Key
	logger *slog.Logger
}

func NewEntityCache[E core.Record[E]](store cache.Store, key cache.Key, logger *slog.Logger) *EntityCache[E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntityCache[E]{store: store, key: key, logger: logger.With("cache_key", key.String())}
}

// Key returns the cache key this service owns.
func (c *EntityCache[E]) Key() cache.Key {
	return c.key
}

// Snapshot returns the cached collection; ok is false when nothing is cached.
func (c *EntityCache[E]) Snapshot() ([]E, bool) {
	return cache.Lookup[[]E](c.store, c.key)
}

// Replace stores a full collection, e.g. after a fetch.
func (c *EntityCache[E]) Replace(items []E) {
	if items == nil {
		items = []E{}
	}
	c.store.Set(c.key, items)
}

func (c *EntityCache[E]) OnCreate(created E) {
	cache.Mutate(c.store, c.key, func(old []E, _ bool) ([]E, bool) {
		return AppendCreated(old, created), true
	})
}

func (c *EntityCache[E]) OnUpdate(previous, updated E) {
	cache.Mutate(c.store, c.key, func(old []E, ok bool) ([]E, bool) {
		if ok && indexOf(old, previous.Identity()) < 0 {
			c.logger.Debug("Updated entity not in cache, skipping", "id", previous.Identity())
			return nil, false
		}
		return ReplaceUpdated(old, previous, updated), true
	})
}

func (c *EntityCache[E]) OnDelete(deletedID int) {
	cache.Mutate(c.store, c.key, func(old []E, _ bool) ([]E, bool) {
		return RemoveAndRenumber(old, deletedID), true
	})
}

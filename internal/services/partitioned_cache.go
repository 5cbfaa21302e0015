package services

import (
	"log/slog"
	"sort"

	"viagem/internal/cache"
	"viagem/internal/core"
)

// PartitionOptions tunes how PartitionedCache moves entries between partitions.
type PartitionOptions struct {
	// RenumberOnMigration renumbers the old partition after an entry moves
	// out of it, keeping ids dense per partition. When false the entry is
	// only removed and the remaining ids are left as they were.
	RenumberOnMigration bool
}

// DefaultPartitionOptions keeps every partition dense.
func DefaultPartitionOptions() PartitionOptions {
	return PartitionOptions{RenumberOnMigration: true}
}

// PartitionedCache applies mutation outcomes to collections cached per
// partition (expenses and attractions are cached per country).
type PartitionedCache[E core.Record[E]] struct {
	store       cache.Store
	kind        string
	partitionOf func(E) string
	opts        PartitionOptions
	logger      *slog.Logger
}

func NewPartitionedCache[E core.Record[E]](store cache.Store, kind string, partitionOf func(E) string, opts PartitionOptions, logger *slog.Logger) *PartitionedCache[E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &PartitionedCache[E]{
		store:       store,
		kind:        kind,
		partitionOf: partitionOf,
		opts:        opts,
		logger:      logger.With("cache_kind", kind),
	}
}

// Key returns the cache key of partition.
func (c *PartitionedCache[E]) Key(partition string) cache.Key {
	return cache.NewKey(c.kind, partition)
}

func (c *PartitionedCache[E]) Snapshot(partition string) ([]E, bool) {
	return cache.Lookup[[]E](c.store, c.Key(partition))
}

func (c *PartitionedCache[E]) Replace(partition string, items []E) {
	if items == nil {
		items = []E{}
	}
	c.store.Set(c.Key(partition), items)
}

// Partitions lists the cached partitions, sorted. It returns nil when the
// store cannot enumerate its keys.
func (c *PartitionedCache[E]) Partitions() []string {
	lister, ok := c.store.(cache.KeyLister)
	if !ok {
		return nil
	}
	var out []string
	for _, k := range lister.Keys() {
		if k.Kind == c.kind {
			out = append(out, k.Partition)
		}
	}
	sort.Strings(out)
	return out
}

func (c *PartitionedCache[E]) OnCreate(created E) {
	cache.Mutate(c.store, c.Key(c.partitionOf(created)), func(old []E, _ bool) ([]E, bool) {
		return AppendCreated(old, created), true
	})
}

// OnUpdate replaces previous with updated. When the partition field changed,
// previous leaves its old partition and updated is appended to the new one.
func (c *PartitionedCache[E]) OnUpdate(previous, updated E) {
	from, to := c.partitionOf(previous), c.partitionOf(updated)
	if from == to {
		cache.Mutate(c.store, c.Key(to), func(old []E, ok bool) ([]E, bool) {
			if ok && indexOf(old, previous.Identity()) < 0 {
				c.logger.Debug("Updated entity not in cache, skipping", "id", previous.Identity(), "partition", to)
				return nil, false
			}
			return ReplaceUpdated(old, previous, updated), true
		})
		return
	}

	c.logger.Debug("Moving entity between partitions", "id", previous.Identity(), "from", from, "to", to)
	cache.Mutate(c.store, c.Key(from), func(old []E, ok bool) ([]E, bool) {
		if !ok {
			return nil, false
		}
		if c.opts.RenumberOnMigration {
			return RemoveAndRenumber(old, previous.Identity()), true
		}
		return removeOnly(old, previous.Identity()), true
	})
	cache.Mutate(c.store, c.Key(to), func(old []E, _ bool) ([]E, bool) {
		return AppendCreated(old, updated), true
	})
}

func (c *PartitionedCache[E]) OnDelete(partition string, deletedID int) {
	cache.Mutate(c.store, c.Key(partition), func(old []E, _ bool) ([]E, bool) {
		return RemoveAndRenumber(old, deletedID), true
	})
}

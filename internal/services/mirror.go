package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"viagem/internal/cache"
	"viagem/internal/core"
	"viagem/internal/storage"
)

// SnapshotRepository persists cache snapshots.
type SnapshotRepository interface {
	SaveSnapshots(ctx context.Context, snapshots []storage.Snapshot) error
	LoadSnapshots(ctx context.Context) ([]storage.Snapshot, error)
}

// RestorableStore is a Store that can enumerate its keys and accept entries
// with their original timestamp.
type RestorableStore interface {
	cache.Store
	cache.KeyLister
	Restore(key cache.Key, value any, updatedAt time.Time)
}

// Mirror copies the cache to a SnapshotRepository and back. Restored entries
// keep their original UpdatedAt, so the query layer still sees them as stale
// once their stale time has passed.
type Mirror struct {
	store  RestorableStore
	repo   SnapshotRepository
	logger *slog.Logger
}

func NewMirror(store RestorableStore, repo SnapshotRepository, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{store: store, repo: repo, logger: logger.With("component", "mirror")}
}

// SaveAll writes every whole cached entry of a known kind. Partial entries
// are left out; they would be refetched on first read anyway.
func (m *Mirror) SaveAll(ctx context.Context) (int, error) {
	var snapshots []storage.Snapshot
	for _, key := range m.store.Keys() {
		entry, ok := m.store.Get(key)
		if !ok || entry.Partial() {
			continue
		}
		if _, known := decoders[key.Kind]; !known {
			continue
		}
		payload, err := json.Marshal(entry.Value)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", key, err)
		}
		snapshots = append(snapshots, storage.Snapshot{
			Key:       key.String(),
			Kind:      key.Kind,
			Partition: key.Partition,
			Payload:   payload,
			UpdatedAt: entry.UpdatedAt,
		})
	}
	if err := m.repo.SaveSnapshots(ctx, snapshots); err != nil {
		return 0, fmt.Errorf("save mirror: %w", err)
	}
	return len(snapshots), nil
}

// Restore loads persisted entries into the store. Keys already present are
// left alone. Undecodable snapshots are logged and skipped.
func (m *Mirror) Restore(ctx context.Context) (int, error) {
	snapshots, err := m.repo.LoadSnapshots(ctx)
	if err != nil {
		return 0, fmt.Errorf("load mirror: %w", err)
	}

	restored := 0
	for _, s := range snapshots {
		key := cache.NewKey(s.Kind, s.Partition)
		if _, exists := m.store.Get(key); exists {
			continue
		}
		decode, ok := decoders[s.Kind]
		if !ok {
			m.logger.WarnContext(ctx, "Unknown snapshot kind, skipping", "cache_key", s.Key)
			continue
		}
		value, err := decode(s.Payload)
		if err != nil {
			m.logger.WarnContext(ctx, "Failed to decode snapshot, skipping", "cache_key", s.Key, "error", err)
			continue
		}
		m.store.Restore(key, value, s.UpdatedAt)
		restored++
	}

	m.logger.InfoContext(ctx, "Cache mirror restored", "entries", restored, "persisted", len(snapshots))
	return restored, nil
}

// Run saves the mirror every interval until ctx is done, then once more.
func (m *Mirror) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// The caller's context is gone; the final save gets its own deadline.
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			m.save(saveCtx)
			cancel()
			return
		case <-ticker.C:
			m.save(ctx)
		}
	}
}

func (m *Mirror) save(ctx context.Context) {
	n, err := m.SaveAll(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to save cache mirror", "error", err)
		return
	}
	m.logger.DebugContext(ctx, "Cache mirror saved", "entries", n)
}

var decoders = map[string]func([]byte) (any, error){
	cache.KindBudgets:       decodeList[core.Budget],
	cache.KindExpenses:      decodeList[core.Expense],
	cache.KindAttractions:   decodeList[core.Attraction],
	cache.KindChecklist:     decodeList[core.ChecklistItem],
	cache.KindReservations:  decodeList[core.Reservation],
	cache.KindBudgetSummary: decodeSummary,
}

// decodeList keeps empty collections non-nil so they are not read as absent.
func decodeList[E any](payload []byte) (any, error) {
	var v []E
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, err
	}
	if v == nil {
		v = []E{}
	}
	return v, nil
}

func decodeSummary(payload []byte) (any, error) {
	var s core.BudgetSummary
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	if s.ByOrigin == nil {
		s.ByOrigin = map[string]core.Totals{}
	}
	return s, nil
}

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"viagem/internal/amqp"
	"viagem/internal/cache"
	"viagem/internal/query"
	"viagem/internal/storage"
)

// MutationLog deduplicates redelivered events.
type MutationLog interface {
	RecordMutation(ctx context.Context, m storage.MutationRecord) (bool, error)
	ForgetMutation(ctx context.Context, eventID string) error
	PruneMutations(ctx context.Context, cutoff time.Time) (int64, error)
}

// MirrorSaver persists the cache after a refresh.
type MirrorSaver interface {
	SaveAll(ctx context.Context) (int, error)
}

// SyncWorker keeps a process-local cache in step with mutations made
// elsewhere: each event refetches the collections it touched.
type SyncWorker struct {
	client  *query.Client
	queries query.TripQueries
	log     MutationLog // optional
	mirror  MirrorSaver // optional
	logger  *slog.Logger
}

func NewSyncWorker(client *query.Client, queries query.TripQueries, log MutationLog, mirror MirrorSaver, logger *slog.Logger) *SyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncWorker{
		client:  client,
		queries: queries,
		log:     log,
		mirror:  mirror,
		logger:  logger.With("component", "sync_worker"),
	}
}

// HandleMutation refreshes every key ev affected. Returning an error makes
// the consumer requeue the event.
func (w *SyncWorker) HandleMutation(ctx context.Context, ev amqp.MutationEvent) error {
	w.logger.InfoContext(ctx, "Processing mutation event",
		"event_id", ev.ID,
		"kind", ev.Kind,
		"action", ev.Action,
		"entity_id", ev.EntityID,
		"partition", ev.Partition)

	recorded := false
	if w.log != nil {
		fresh, err := w.log.RecordMutation(ctx, storage.MutationRecord{
			EventID:           ev.ID,
			Kind:              ev.Kind,
			Action:            ev.Action,
			EntityID:          ev.EntityID,
			Partition:         ev.Partition,
			PreviousPartition: ev.PreviousPartition,
			OccurredAt:        ev.Timestamp,
		})
		switch {
		case err != nil:
			w.logger.WarnContext(ctx, "Failed to record mutation, refreshing anyway", "event_id", ev.ID, "error", err)
		case !fresh:
			w.logger.DebugContext(ctx, "Duplicate mutation event, skipping", "event_id", ev.ID)
			return nil
		default:
			recorded = true
		}
	}

	loaders := w.loadersFor(ctx, ev.Keys())
	if len(loaders) == 0 {
		return nil
	}
	if err := w.client.Refresh(ctx, loaders...); err != nil {
		// The event is requeued; its redelivery must not look like a duplicate.
		if recorded {
			if ferr := w.log.ForgetMutation(context.WithoutCancel(ctx), ev.ID); ferr != nil {
				w.logger.ErrorContext(ctx, "Failed to forget mutation after refresh error", "event_id", ev.ID, "error", ferr)
			}
		}
		return fmt.Errorf("refresh %s: %w", ev.Kind, err)
	}

	w.saveMirror(ctx)
	w.logger.InfoContext(ctx, "Mutation applied", "event_id", ev.ID, "refreshed", len(loaders))
	return nil
}

func (w *SyncWorker) loadersFor(ctx context.Context, keys []cache.Key) []query.Loader {
	var loaders []query.Loader
	for _, key := range keys {
		l, ok := w.queries.ForKey(key)
		if !ok {
			w.logger.WarnContext(ctx, "No query for cache key, skipping", "cache_key", key.String())
			continue
		}
		loaders = append(loaders, l)
	}
	return loaders
}

// StartupSync refetches every collection of countries, recovering from
// events missed while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context, countries []string) error {
	loaders := w.queries.All(countries)
	if err := w.client.Refresh(ctx, loaders...); err != nil {
		return fmt.Errorf("startup refresh: %w", err)
	}
	w.saveMirror(ctx)
	w.logger.InfoContext(ctx, "Startup sync completed", "collections", len(loaders), "countries", len(countries))
	return nil
}

// PruneLog drops mutation log entries older than retention.
func (w *SyncWorker) PruneLog(ctx context.Context, retention time.Duration) error {
	if w.log == nil {
		return nil
	}
	if _, err := w.log.PruneMutations(ctx, time.Now().Add(-retention)); err != nil {
		return fmt.Errorf("prune mutation log: %w", err)
	}
	return nil
}

func (w *SyncWorker) saveMirror(ctx context.Context) {
	if w.mirror == nil {
		return
	}
	if _, err := w.mirror.SaveAll(ctx); err != nil {
		// The cache is already refreshed; the mirror catches up on the next event.
		w.logger.ErrorContext(ctx, "Failed to save cache mirror", "error", err)
	}
}

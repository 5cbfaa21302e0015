package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"viagem/internal/amqp"
	"viagem/internal/cache"
	"viagem/internal/core"
	"viagem/internal/query"
	"viagem/internal/sheets"
)

// Publisher announces confirmed mutations to other processes.
type Publisher interface {
	PublishMutation(ctx context.Context, ev amqp.MutationEvent) error
}

// Config wires the mutation services together.
type Config struct {
	API       sheets.TripAPI
	Store     cache.Store
	Publisher Publisher // optional
	// Origins restricts budget origins; empty accepts any.
	Origins   []string
	StaleTime time.Duration
	Summary   SummaryOptions
	Partition PartitionOptions
	Logger    *slog.Logger
}

// Trip exposes every collection of one trip through the cache layer.
type Trip struct {
	Budgets      *BudgetService
	Expenses     *ExpenseService
	Attractions  *AttractionService
	Checklist    *ChecklistService
	Reservations *ReservationService
	Summary      *SummaryCache

	Query   *query.Client
	Queries query.TripQueries
	api     sheets.TripAPI
}

func NewTrip(cfg Config) *Trip {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "services")

	client := query.NewClient(cfg.Store, logger)
	queries := query.TripQueries{API: cfg.API, StaleTime: cfg.StaleTime}
	summary := NewSummaryCache(cfg.Store, cfg.Summary, logger)
	events := &eventSink{publisher: cfg.Publisher, logger: logger}
	base := serviceBase{client: client, queries: queries, events: events, logger: logger}

	return &Trip{
		Budgets:      newBudgetService(base, cfg.API, cfg.Store, summary, cfg.Origins),
		Expenses:     newExpenseService(base, cfg.API, cfg.Store, summary, cfg.Origins, cfg.Partition),
		Attractions:  newAttractionService(base, cfg.API, cfg.Store, cfg.Partition),
		Checklist:    newChecklistService(base, cfg.API, cfg.Store),
		Reservations: newReservationService(base, cfg.API, cfg.Store),
		Summary:      summary,
		Query:        client,
		Queries:      queries,
		api:          cfg.API,
	}
}

// GetBudgetSummary returns the cached summary, fetching it when stale.
func (t *Trip) GetBudgetSummary(ctx context.Context) (core.BudgetSummary, error) {
	return query.Fetch(ctx, t.Query, t.Queries.BudgetSummary())
}

// Countries lists the trip countries known to the API.
func (t *Trip) Countries(ctx context.Context) ([]string, error) {
	countries, err := t.api.ListCountries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return countries, nil
}

// Warm prefetches every collection of the given countries.
func (t *Trip) Warm(ctx context.Context, countries []string) error {
	return t.Query.Prefetch(ctx, t.Queries.All(countries)...)
}

type serviceBase struct {
	client  *query.Client
	queries query.TripQueries
	events  *eventSink
	logger  *slog.Logger
}

// eventSink publishes best effort: a failed publish is logged and never
// fails the mutation, which already succeeded remotely.
type eventSink struct {
	publisher Publisher
	logger    *slog.Logger
}

func (s *eventSink) publish(ctx context.Context, ev amqp.MutationEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher, skipping mutation event", "kind", ev.Kind, "action", ev.Action)
		return
	}
	if err := s.publisher.PublishMutation(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish mutation event",
			"kind", ev.Kind,
			"action", ev.Action,
			"entity_id", ev.EntityID,
			"error", err)
	}
}

// current returns the entity with id from the (possibly fetched) list.
func current[E core.Record[E]](ctx context.Context, list func(context.Context) ([]E, error), what string, id int) (E, error) {
	var zero E
	items, err := list(ctx)
	if err != nil {
		return zero, err
	}
	item, ok := FindByID(items, id)
	if !ok {
		return zero, fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
	}
	return item, nil
}

package services

import (
	"context"
	"fmt"

	"viagem/internal/amqp"
	"viagem/internal/cache"
	"viagem/internal/core"
	"viagem/internal/query"
	"viagem/internal/sheets"
	"viagem/internal/validation"
)

// ExpenseService runs expense mutations. Expenses live per country, so an
// update that changes Country moves the expense between partitions.
type ExpenseService struct {
	serviceBase
	api     sheets.ExpenseAPI
	cache   *PartitionedCache[core.Expense]
	summary *SummaryCache
	schema  validation.Schema[core.Expense]
}

func newExpenseService(base serviceBase, api sheets.ExpenseAPI, store cache.Store, summary *SummaryCache, origins []string, opts PartitionOptions) *ExpenseService {
	byCountry := func(e core.Expense) string { return e.Country }
	return &ExpenseService{
		serviceBase: base,
		api:         api,
		cache:       NewPartitionedCache(store, cache.KindExpenses, byCountry, opts, base.logger),
		summary:     summary,
		schema:      validation.ExpenseSchema(origins),
	}
}

func (s *ExpenseService) List(ctx context.Context, country string) ([]core.Expense, error) {
	return query.Fetch(ctx, s.client, s.queries.Expenses(country))
}

func (s *ExpenseService) Get(ctx context.Context, country string, id int) (core.Expense, error) {
	return current(ctx, func(ctx context.Context) ([]core.Expense, error) {
		return s.List(ctx, country)
	}, "expense", id)
}

func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := validation.Check(e, s.schema); err != nil {
		return core.Expense{}, err
	}
	created, err := s.api.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.cache.OnCreate(created)
	s.summary.AfterExpenseCreate(created)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindExpenses, amqp.ActionCreate, created.ID, created.Country))
	return created, nil
}

// Update replaces expense id of country with updated. updated.Country may
// name another country; the returned expense carries its new id there.
func (s *ExpenseService) Update(ctx context.Context, country string, id int, updated core.Expense) (core.Expense, error) {
	if err := validation.Check(updated, s.schema); err != nil {
		return core.Expense{}, err
	}
	previous, err := s.Get(ctx, country, id)
	if err != nil {
		return core.Expense{}, err
	}
	updated.ID = id
	confirmed, err := s.api.UpdateExpense(ctx, previous, updated)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	s.cache.OnUpdate(previous, confirmed)
	s.summary.AfterExpenseUpdate(previous, confirmed)

	ev := amqp.NewMutationEvent(cache.KindExpenses, amqp.ActionUpdate, confirmed.ID, confirmed.Country)
	ev.PreviousPartition = previous.Country
	s.events.publish(ctx, ev)
	return confirmed, nil
}

func (s *ExpenseService) Delete(ctx context.Context, country string, id int) error {
	deleted, err := s.Get(ctx, country, id)
	if err != nil {
		return err
	}
	if err := s.api.DeleteExpense(ctx, country, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	s.cache.OnDelete(country, id)
	s.summary.AfterExpenseDelete(deleted)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindExpenses, amqp.ActionDelete, id, country))
	return nil
}

// ListAll returns the expenses of every given country, in country order.
func (s *ExpenseService) ListAll(ctx context.Context, countries []string) ([]core.Expense, error) {
	var out []core.Expense
	for _, c := range countries {
		list, err := s.List(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	return out, nil
}

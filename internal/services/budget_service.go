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

// BudgetService runs budget mutations: validate, call the API, patch the
// budgets collection and the summary, then announce the change.
type BudgetService struct {
	serviceBase
	api     sheets.BudgetAPI
	cache   *EntityCache[core.Budget]
	summary *SummaryCache
	schema  validation.Schema[core.Budget]
}

func newBudgetService(base serviceBase, api sheets.BudgetAPI, store cache.Store, summary *SummaryCache, origins []string) *BudgetService {
	return &BudgetService{
		serviceBase: base,
		api:         api,
		cache:       NewEntityCache[core.Budget](store, cache.BudgetsKey(), base.logger),
		summary:     summary,
		schema:      validation.BudgetSchema(origins),
	}
}

func (s *BudgetService) List(ctx context.Context) ([]core.Budget, error) {
	return query.Fetch(ctx, s.client, s.queries.Budgets())
}

func (s *BudgetService) Get(ctx context.Context, id int) (core.Budget, error) {
	return current(ctx, s.List, "budget", id)
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := validation.Check(b, s.schema); err != nil {
		return core.Budget{}, err
	}
	created, err := s.api.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	s.cache.OnCreate(created)
	s.summary.AfterBudgetCreate(created)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindBudgets, amqp.ActionCreate, created.ID, ""))
	return created, nil
}

// Update replaces the budget with updated.ID.
func (s *BudgetService) Update(ctx context.Context, updated core.Budget) (core.Budget, error) {
	if err := validation.Check(updated, s.schema); err != nil {
		return core.Budget{}, err
	}
	previous, err := s.Get(ctx, updated.ID)
	if err != nil {
		return core.Budget{}, err
	}
	confirmed, err := s.api.UpdateBudget(ctx, updated)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", updated.ID, err)
	}
	s.cache.OnUpdate(previous, confirmed)
	s.summary.AfterBudgetUpdate(previous, confirmed)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindBudgets, amqp.ActionUpdate, confirmed.ID, ""))
	return confirmed, nil
}

func (s *BudgetService) Delete(ctx context.Context, id int) error {
	deleted, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.api.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	s.cache.OnDelete(id)
	s.summary.AfterBudgetDelete(deleted)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindBudgets, amqp.ActionDelete, id, ""))
	return nil
}

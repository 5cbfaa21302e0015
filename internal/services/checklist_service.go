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

type ChecklistService struct {
	serviceBase
	api    sheets.ChecklistAPI
	cache  *EntityCache[core.ChecklistItem]
	schema validation.Schema[core.ChecklistItem]
}

func newChecklistService(base serviceBase, api sheets.ChecklistAPI, store cache.Store) *ChecklistService {
	return &ChecklistService{
		serviceBase: base,
		api:         api,
		cache:       NewEntityCache[core.ChecklistItem](store, cache.ChecklistKey(), base.logger),
		schema:      validation.ChecklistItemSchema(),
	}
}

func (s *ChecklistService) List(ctx context.Context) ([]core.ChecklistItem, error) {
	return query.Fetch(ctx, s.client, s.queries.Checklist())
}

func (s *ChecklistService) Get(ctx context.Context, id int) (core.ChecklistItem, error) {
	return current(ctx, s.List, "checklist item", id)
}

func (s *ChecklistService) Create(ctx context.Context, item core.ChecklistItem) (core.ChecklistItem, error) {
	if err := validation.Check(item, s.schema); err != nil {
		return core.ChecklistItem{}, err
	}
	created, err := s.api.CreateChecklistItem(ctx, item)
	if err != nil {
		return core.ChecklistItem{}, fmt.Errorf("create checklist item: %w", err)
	}
	s.cache.OnCreate(created)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindChecklist, amqp.ActionCreate, created.ID, ""))
	return created, nil
}

func (s *ChecklistService) Update(ctx context.Context, updated core.ChecklistItem) (core.ChecklistItem, error) {
	if err := validation.Check(updated, s.schema); err != nil {
		return core.ChecklistItem{}, err
	}
	previous, err := s.Get(ctx, updated.ID)
	if err != nil {
		return core.ChecklistItem{}, err
	}
	confirmed, err := s.api.UpdateChecklistItem(ctx, updated)
	if err != nil {
		return core.ChecklistItem{}, fmt.Errorf("update checklist item %d: %w", updated.ID, err)
	}
	s.cache.OnUpdate(previous, confirmed)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindChecklist, amqp.ActionUpdate, confirmed.ID, ""))
	return confirmed, nil
}

// TogglePacked flips IsPacked of item id.
func (s *ChecklistService) TogglePacked(ctx context.Context, id int) (core.ChecklistItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return core.ChecklistItem{}, err
	}
	item.IsPacked = !item.IsPacked
	return s.Update(ctx, item)
}

func (s *ChecklistService) Delete(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.api.DeleteChecklistItem(ctx, id); err != nil {
		return fmt.Errorf("delete checklist item %d: %w", id, err)
	}
	s.cache.OnDelete(id)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindChecklist, amqp.ActionDelete, id, ""))
	return nil
}

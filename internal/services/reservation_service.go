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

type ReservationService struct {
	serviceBase
	api    sheets.ReservationAPI
	cache  *EntityCache[core.Reservation]
	schema validation.Schema[core.Reservation]
}

func newReservationService(base serviceBase, api sheets.ReservationAPI, store cache.Store) *ReservationService {
	return &ReservationService{
		serviceBase: base,
		api:         api,
		cache:       NewEntityCache[core.Reservation](store, cache.ReservationsKey(), base.logger),
		schema:      validation.ReservationSchema(),
	}
}

func (s *ReservationService) List(ctx context.Context) ([]core.Reservation, error) {
	return query.Fetch(ctx, s.client, s.queries.Reservations())
}

func (s *ReservationService) Get(ctx context.Context, id int) (core.Reservation, error) {
	return current(ctx, s.List, "reservation", id)
}

// Create defaults an empty status to pending.
func (s *ReservationService) Create(ctx context.Context, r core.Reservation) (core.Reservation, error) {
	if r.Status == "" {
		r.Status = core.ReservationPending
	}
	if err := validation.Check(r, s.schema); err != nil {
		return core.Reservation{}, err
	}
	created, err := s.api.CreateReservation(ctx, r)
	if err != nil {
		return core.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	s.cache.OnCreate(created)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindReservations, amqp.ActionCreate, created.ID, ""))
	return created, nil
}

func (s *ReservationService) Update(ctx context.Context, updated core.Reservation) (core.Reservation, error) {
	if err := validation.Check(updated, s.schema); err != nil {
		return core.Reservation{}, err
	}
	previous, err := s.Get(ctx, updated.ID)
	if err != nil {
		return core.Reservation{}, err
	}
	confirmed, err := s.api.UpdateReservation(ctx, updated)
	if err != nil {
		return core.Reservation{}, fmt.Errorf("update reservation %d: %w", updated.ID, err)
	}
	s.cache.OnUpdate(previous, confirmed)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindReservations, amqp.ActionUpdate, confirmed.ID, ""))
	return confirmed, nil
}

func (s *ReservationService) Delete(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.api.DeleteReservation(ctx, id); err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}
	s.cache.OnDelete(id)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindReservations, amqp.ActionDelete, id, ""))
	return nil
}

package services

import (
	"context"
	"fmt"

	"viagem/internal/amqp"
	"viagem/internal/cache"
	"viagem/internal/core"
	"viagem/internal/itinerary"
	"viagem/internal/query"
	"viagem/internal/sheets"
	"viagem/internal/validation"
)

type AttractionService struct {
	serviceBase
	api    sheets.AttractionAPI
	store  cache.Store
	cache  *PartitionedCache[core.Attraction]
	schema validation.Schema[core.Attraction]
}

func newAttractionService(base serviceBase, api sheets.AttractionAPI, store cache.Store, opts PartitionOptions) *AttractionService {
	byCountry := func(a core.Attraction) string { return a.Country }
	return &AttractionService{
		serviceBase: base,
		api:         api,
		store:       store,
		cache:       NewPartitionedCache(store, cache.KindAttractions, byCountry, opts, base.logger),
		schema:      validation.AttractionSchema(),
	}
}

func (s *AttractionService) List(ctx context.Context, country string) ([]core.Attraction, error) {
	return query.Fetch(ctx, s.client, s.queries.Attractions(country))
}

func (s *AttractionService) Get(ctx context.Context, country string, id int) (core.Attraction, error) {
	return current(ctx, func(ctx context.Context) ([]core.Attraction, error) {
		return s.List(ctx, country)
	}, "attraction", id)
}

// Create fills Day and Order from the date when the caller left them zero.
func (s *AttractionService) Create(ctx context.Context, a core.Attraction) (core.Attraction, error) {
	if err := validation.Check(a, s.schema); err != nil {
		return core.Attraction{}, err
	}
	if !a.Date.IsEmpty() && (a.Day == 0 || a.Order == 0) {
		existing, err := s.List(ctx, a.Country)
		if err != nil {
			return core.Attraction{}, err
		}
		if a.Day == 0 {
			a.Day = itinerary.AutoDayForDate(existing, a.Country, a.Date.Key(), 0)
		}
		if a.Order == 0 {
			a.Order = itinerary.NextOrderForDate(existing, a.Country, a.Date.Key(), 0)
		}
	}

	created, err := s.api.CreateAttraction(ctx, a)
	if err != nil {
		return core.Attraction{}, fmt.Errorf("create attraction: %w", err)
	}
	s.cache.OnCreate(created)
	s.rederive(created.Country)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindAttractions, amqp.ActionCreate, created.ID, created.Country))
	return created, nil
}

// Update replaces attraction id of country. When the date or country
// changed and the caller kept the old order, the attraction goes to the end
// of its new (country, date) group.
func (s *AttractionService) Update(ctx context.Context, country string, id int, updated core.Attraction) (core.Attraction, error) {
	if err := validation.Check(updated, s.schema); err != nil {
		return core.Attraction{}, err
	}
	previous, err := s.Get(ctx, country, id)
	if err != nil {
		return core.Attraction{}, err
	}
	updated.ID = id

	moved := previous.Country != updated.Country || previous.Date.Key() != updated.Date.Key()
	if moved && !updated.Date.IsEmpty() && updated.Order == previous.Order {
		target, err := s.List(ctx, updated.Country)
		if err != nil {
			return core.Attraction{}, err
		}
		exclude := 0
		if previous.Country == updated.Country {
			exclude = id
		}
		updated.Day = itinerary.AutoDayForDate(target, updated.Country, updated.Date.Key(), exclude)
		updated.Order = itinerary.NextOrderForDate(target, updated.Country, updated.Date.Key(), exclude)
	}

	confirmed, err := s.api.UpdateAttraction(ctx, previous, updated)
	if err != nil {
		return core.Attraction{}, fmt.Errorf("update attraction %d: %w", id, err)
	}
	s.cache.OnUpdate(previous, confirmed)
	s.rederive(confirmed.Country)
	if previous.Country != confirmed.Country {
		s.rederive(previous.Country)
	}

	ev := amqp.NewMutationEvent(cache.KindAttractions, amqp.ActionUpdate, confirmed.ID, confirmed.Country)
	ev.PreviousPartition = previous.Country
	s.events.publish(ctx, ev)
	return confirmed, nil
}

func (s *AttractionService) Delete(ctx context.Context, country string, id int) error {
	if _, err := s.Get(ctx, country, id); err != nil {
		return err
	}
	if err := s.api.DeleteAttraction(ctx, country, id); err != nil {
		return fmt.Errorf("delete attraction %d: %w", id, err)
	}
	s.cache.OnDelete(country, id)
	s.rederive(country)
	s.events.publish(ctx, amqp.NewMutationEvent(cache.KindAttractions, amqp.ActionDelete, id, country))
	return nil
}

// Reorder sets the manual order of one (country, date) group: ids lists the
// group's attractions in their new order. Only changed rows are written.
func (s *AttractionService) Reorder(ctx context.Context, country string, date core.Date, ids []int) ([]core.Attraction, error) {
	list, err := s.List(ctx, country)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if a, ok := FindByID(list, id); !ok || a.Date.Key() != date.Key() {
			return nil, fmt.Errorf("attraction %d on %s: %w", id, date.Key(), core.ErrNotFound)
		}
	}

	var out []core.Attraction
	written := 0
	// Rows confirmed before a failure stay patched; the group is re-derived
	// and announced either way.
	defer func() {
		if written == 0 {
			return
		}
		s.rederive(country)
		s.events.publish(ctx, amqp.NewMutationEvent(cache.KindAttractions, amqp.ActionUpdate, ids[0], country))
	}()
	for pos, id := range ids {
		a, _ := FindByID(list, id)
		if a.Order == pos+1 {
			out = append(out, a)
			continue
		}
		next := a
		next.Order = pos + 1
		confirmed, err := s.api.UpdateAttraction(ctx, a, next)
		if err != nil {
			return nil, fmt.Errorf("reorder attraction %d: %w", id, err)
		}
		s.cache.OnUpdate(a, confirmed)
		written++
		out = append(out, confirmed)
	}
	return out, nil
}

// rederive keeps day and order consistent with the dates after a patch.
func (s *AttractionService) rederive(country string) {
	cache.Mutate(s.store, s.cache.Key(country), func(old []core.Attraction, ok bool) ([]core.Attraction, bool) {
		if !ok {
			return nil, false
		}
		return itinerary.ApplyAutoDays(old), true
	})
}

package query

import (
	"context"
	"time"

	"viagem/internal/cache"
	"viagem/internal/core"
	"viagem/internal/itinerary"
	"viagem/internal/sheets"
)

// DefaultStaleTime is used by callers that do not configure one.
const DefaultStaleTime = 5 * time.Minute

func Budgets(api sheets.BudgetAPI, staleTime time.Duration) Options[[]core.Budget] {
	return Options[[]core.Budget]{
		Key:       cache.BudgetsKey(),
		Fetch:     nonNil(api.GetBudgets),
		StaleTime: staleTime,
	}
}

func Expenses(api sheets.ExpenseAPI, country string, staleTime time.Duration) Options[[]core.Expense] {
	return Options[[]core.Expense]{
		Key: cache.ExpensesKey(country),
		Fetch: nonNil(func(ctx context.Context) ([]core.Expense, error) {
			return api.GetExpenses(ctx, country)
		}),
		StaleTime: staleTime,
	}
}

// Attractions fetches a country's attractions with day and order derived
// from their dates.
func Attractions(api sheets.AttractionAPI, country string, staleTime time.Duration) Options[[]core.Attraction] {
	return Options[[]core.Attraction]{
		Key: cache.AttractionsKey(country),
		Fetch: nonNil(func(ctx context.Context) ([]core.Attraction, error) {
			list, err := api.GetAttractions(ctx, country)
			if err != nil {
				return nil, err
			}
			return itinerary.ApplyAutoDays(list), nil
		}),
		StaleTime: staleTime,
	}
}

func Checklist(api sheets.ChecklistAPI, staleTime time.Duration) Options[[]core.ChecklistItem] {
	return Options[[]core.ChecklistItem]{
		Key:       cache.ChecklistKey(),
		Fetch:     nonNil(api.GetChecklistItems),
		StaleTime: staleTime,
	}
}

func Reservations(api sheets.ReservationAPI, staleTime time.Duration) Options[[]core.Reservation] {
	return Options[[]core.Reservation]{
		Key:       cache.ReservationsKey(),
		Fetch:     nonNil(api.GetReservations),
		StaleTime: staleTime,
	}
}

func BudgetSummary(api sheets.SummaryReader, staleTime time.Duration) Options[core.BudgetSummary] {
	return Options[core.BudgetSummary]{
		Key: cache.BudgetSummaryKey(),
		Fetch: func(ctx context.Context) (core.BudgetSummary, error) {
			s, err := api.GetBudgetSummary(ctx)
			if err != nil {
				return core.BudgetSummary{}, err
			}
			if s.ByOrigin == nil {
				s.ByOrigin = map[string]core.Totals{}
			}
			return s, nil
		},
		StaleTime: staleTime,
	}
}

// nonNil stores an empty collection as [] so a fetched-but-empty list is
// distinguishable from one never fetched.
func nonNil[E any](fetch func(ctx context.Context) ([]E, error)) func(ctx context.Context) ([]E, error) {
	return func(ctx context.Context) ([]E, error) {
		list, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []E{}
		}
		return list, nil
	}
}

// TripQueries bundles the builders for one API and stale time.
type TripQueries struct {
	API       sheets.TripAPI
	StaleTime time.Duration
}

func (q TripQueries) Budgets() Options[[]core.Budget] { return Budgets(q.API, q.StaleTime) }

func (q TripQueries) Expenses(country string) Options[[]core.Expense] {
	return Expenses(q.API, country, q.StaleTime)
}

func (q TripQueries) Attractions(country string) Options[[]core.Attraction] {
	return Attractions(q.API, country, q.StaleTime)
}

func (q TripQueries) Checklist() Options[[]core.ChecklistItem] { return Checklist(q.API, q.StaleTime) }

func (q TripQueries) Reservations() Options[[]core.Reservation] {
	return Reservations(q.API, q.StaleTime)
}

func (q TripQueries) BudgetSummary() Options[core.BudgetSummary] {
	return BudgetSummary(q.API, q.StaleTime)
}

// All returns a loader for every collection of the given countries.
func (q TripQueries) All(countries []string) []Loader {
	loaders := []Loader{q.Budgets(), q.Checklist(), q.Reservations(), q.BudgetSummary()}
	for _, c := range countries {
		loaders = append(loaders, q.Expenses(c), q.Attractions(c))
	}
	return loaders
}

// ForKey returns the loader that refreshes key, or false for an unknown kind.
func (q TripQueries) ForKey(key cache.Key) (Loader, bool) {
	switch key.Kind {
	case cache.KindBudgets:
		return q.Budgets(), true
	case cache.KindExpenses:
		return q.Expenses(key.Partition), true
	case cache.KindAttractions:
		return q.Attractions(key.Partition), true
	case cache.KindChecklist:
		return q.Checklist(), true
	case cache.KindReservations:
		return q.Reservations(), true
	case cache.KindBudgetSummary:
		return q.BudgetSummary(), true
	}
	return nil, false
}

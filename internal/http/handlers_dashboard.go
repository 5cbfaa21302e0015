package http

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"viagem/internal/core"
	"viagem/internal/dashboard"
	applog "viagem/internal/log"
)

func (s *Server) countryList(ctx context.Context) ([]string, error) {
	if len(s.countries) > 0 {
		return s.countries, nil
	}
	return s.trip.Countries(ctx)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.countryList(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(countries))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.trip.GetBudgetSummary(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleDashboard builds the overview from cached collections, loading
// whatever is missing or stale concurrently.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	countries, err := s.countryList(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	var in dashboard.Input
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		in.Budgets, err = s.trip.Budgets.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		in.Checklist, err = s.trip.Checklist.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		in.Reservations, err = s.trip.Reservations.List(ctx)
		return err
	})
	expenses := make([][]core.Expense, len(countries))
	attractions := make([][]core.Attraction, len(countries))
	for i, country := range countries {
		g.Go(func() (err error) {
			expenses[i], err = s.trip.Expenses.List(ctx, country)
			return err
		})
		g.Go(func() (err error) {
			attractions[i], err = s.trip.Attractions.List(ctx, country)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	for i := range countries {
		in.Expenses = append(in.Expenses, expenses[i]...)
		in.Attractions = append(in.Attractions, attractions[i]...)
	}

	writeJSON(w, http.StatusOK, dashboard.BuildOverview(in))
}

// handleRefresh drops every cached collection and refetches it.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	countries, err := s.countryList(r.Context())
	if err != nil {
		writeError(w, r, applog.OpRefresh, err)
		return
	}
	loaders := s.trip.Queries.All(countries)
	if err := s.trip.Query.Refresh(r.Context(), loaders...); err != nil {
		writeError(w, r, applog.OpRefresh, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Cache refreshed",
		applog.FieldOperation, applog.OpRefresh,
		"collections", len(loaders))
	writeJSON(w, http.StatusOK, map[string]int{"refreshed": len(loaders)})
}

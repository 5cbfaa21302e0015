package http

import (
	"net/http"

	"viagem/internal/cache"
	"viagem/internal/core"
	applog "viagem/internal/log"
)

// handleListAllExpenses lists the expenses of ?countries=, or of every
// trip country when the parameter is absent.
func (s *Server) handleListAllExpenses(w http.ResponseWriter, r *http.Request) {
	countries := queryList(r, "countries")
	if len(countries) == 0 {
		var err error
		if countries, err = s.countryList(r.Context()); err != nil {
			writeError(w, r, applog.OpList, err)
			return
		}
	}
	expenses, err := s.trip.Expenses.ListAll(r.Context(), countries)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(expenses))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	country, err := pathCountry(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	expenses, err := s.trip.Expenses.List(r.Context(), country)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(expenses))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	country, err := pathCountry(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	e, err := s.trip.Expenses.Get(r.Context(), country, id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeJSON(w, r, &e); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.trip.Expenses.Create(r.Context(), e)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpCreate, cache.KindExpenses, created.ID, created.Country)
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateExpense moves the expense when the body names another
// country; the response carries its id in the new country.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	country, err := pathCountry(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var e core.Expense
	if err := decodeJSON(w, r, &e); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	if e.Country == "" {
		e.Country = country
	}
	updated, err := s.trip.Expenses.Update(r.Context(), country, id, e)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpUpdate, cache.KindExpenses, updated.ID, updated.Country)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	country, err := pathCountry(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.trip.Expenses.Delete(r.Context(), country, id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpDelete, cache.KindExpenses, id, country)
	w.WriteHeader(http.StatusNoContent)
}

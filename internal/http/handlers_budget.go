package http

import (
	"net/http"

	"viagem/internal/cache"
	"viagem/internal/core"
	applog "viagem/internal/log"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.trip.Budgets.List(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(budgets))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	b, err := s.trip.Budgets.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.trip.Budgets.Create(r.Context(), b)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpCreate, cache.KindBudgets, created.ID, "")
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	b.ID = id
	updated, err := s.trip.Budgets.Update(r.Context(), b)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpUpdate, cache.KindBudgets, updated.ID, "")
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.trip.Budgets.Delete(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpDelete, cache.KindBudgets, id, "")
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"net/http"

	"viagem/internal/cache"
	"viagem/internal/core"
	applog "viagem/internal/log"
)

func (s *Server) handleListChecklist(w http.ResponseWriter, r *http.Request) {
	items, err := s.trip.Checklist.List(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(items))
}

func (s *Server) handleGetChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	item, err := s.trip.Checklist.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleCreateChecklistItem(w http.ResponseWriter, r *http.Request) {
	var item core.ChecklistItem
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.trip.Checklist.Create(r.Context(), item)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpCreate, cache.KindChecklist, created.ID, "")
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var item core.ChecklistItem
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	item.ID = id
	updated, err := s.trip.Checklist.Update(r.Context(), item)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpUpdate, cache.KindChecklist, updated.ID, "")
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	updated, err := s.trip.Checklist.TogglePacked(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpUpdate, cache.KindChecklist, updated.ID, "")
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.trip.Checklist.Delete(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpDelete, cache.KindChecklist, id, "")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.trip.Reservations.List(r.Context())
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(reservations))
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	res, err := s.trip.Reservations.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var res core.Reservation
	if err := decodeJSON(w, r, &res); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.trip.Reservations.Create(r.Context(), res)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpCreate, cache.KindReservations, created.ID, created.Country)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	var res core.Reservation
	if err := decodeJSON(w, r, &res); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	res.ID = id
	updated, err := s.trip.Reservations.Update(r.Context(), res)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpUpdate, cache.KindReservations, updated.ID, updated.Country)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.trip.Reservations.Delete(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpDelete, cache.KindReservations, id, "")
	w.WriteHeader(http.StatusNoContent)
}

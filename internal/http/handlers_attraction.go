package http

import (
	"net/http"

	"viagem/internal/cache"
	"viagem/internal/core"
	applog "viagem/internal/log"
)

type reorderRequest struct {
	Date core.Date `json:"date"`
	IDs  []int     `json:"ids"`
}

func (s *Server) handleListAttractions(w http.ResponseWriter, r *http.Request) {
	country, err := pathCountry(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	attractions, err := s.trip.Attractions.List(r.Context(), country)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(attractions))
}

func (s *Server) handleGetAttraction(w http.ResponseWriter, r *http.Request) {
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
	a, err := s.trip.Attractions.Get(r.Context(), country, id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleCreateAttraction(w http.ResponseWriter, r *http.Request) {
	var a core.Attraction
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	created, err := s.trip.Attractions.Create(r.Context(), a)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpCreate, cache.KindAttractions, created.ID, created.Country)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAttraction(w http.ResponseWriter, r *http.Request) {
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
	var a core.Attraction
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	if a.Country == "" {
		a.Country = country
	}
	updated, err := s.trip.Attractions.Update(r.Context(), country, id, a)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpUpdate, cache.KindAttractions, updated.ID, updated.Country)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAttraction(w http.ResponseWriter, r *http.Request) {
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
	if err := s.trip.Attractions.Delete(r.Context(), country, id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	s.events.LogMutation(r.Context(), applog.OpDelete, cache.KindAttractions, id, country)
	w.WriteHeader(http.StatusNoContent)
}

// handleReorderAttractions sets the visiting order of one day to the
// order of the ids in the body.
func (s *Server) handleReorderAttractions(w http.ResponseWriter, r *http.Request) {
	country, err := pathCountry(r)
	if err != nil {
		writeError(w, r, applog.OpReorder, err)
		return
	}
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, applog.OpReorder, err)
		return
	}
	if req.Date.IsEmpty() || len(req.IDs) == 0 {
		writeError(w, r, applog.OpReorder, badRequest("date and ids are required"))
		return
	}
	attractions, err := s.trip.Attractions.Reorder(r.Context(), country, req.Date, req.IDs)
	if err != nil {
		writeError(w, r, applog.OpReorder, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(attractions))
}

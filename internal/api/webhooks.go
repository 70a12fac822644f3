package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/market-muscles-llc/pulse-kronos/internal/service"
	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
)

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &service.ValidationError{Field: name, Message: name + " must be an integer"}
	}
	return n, nil
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	subs, err := s.webhookSvc.ListWebhooks(r.Context())
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req service.CreateWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSONBody)
		return
	}

	sub, err := s.webhookSvc.CreateWebhook(r.Context(), req)
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleGetWebhook(w http.ResponseWriter, r *http.Request) {
	sub, err := s.webhookSvc.GetWebhook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.webhookSvc.DeleteWebhook(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.httpErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListDeliveries returns the most recent delivery log entries.
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	entries, err := s.webhookSvc.ListDeliveries(r.Context(), int(limit))
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListEventTypes(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt(r, "userId")
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	if userID == 0 {
		s.httpErr(w, r, &service.ValidationError{Field: "userId", Message: "userId is required"})
		return
	}

	ets, err := s.bookingSvc.ListEventTypes(r.Context(), userID)
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ets)
}

func (s *Server) handleCreateEventType(w http.ResponseWriter, r *http.Request) {
	var et storage.EventType
	if err := decodeJSON(r, &et); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSONBody)
		return
	}
	et.ID = 0

	created, err := s.bookingSvc.CreateEventType(r.Context(), &et)
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

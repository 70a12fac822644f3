package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/market-muscles-llc/pulse-kronos/internal/service"
)

// handleCreateBooking books a slot and notifies webhook subscribers.
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSONBody)
		return
	}

	res, err := s.bookingSvc.CreateBooking(r.Context(), req)
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := s.bookingSvc.GetBooking(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	res, err := s.bookingSvc.CancelBooking(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type rescheduleBody struct {
	Start time.Time `json:"start"`
}

func (s *Server) handleRescheduleBooking(w http.ResponseWriter, r *http.Request) {
	var body rescheduleBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSONBody)
		return
	}

	res, err := s.bookingSvc.RescheduleBooking(r.Context(), chi.URLParam(r, "uid"), body.Start)
	if err != nil {
		s.httpErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/market-muscles-llc/pulse-kronos/internal/service"
)

const (
	msgInvalidMethod    = "Invalid method"
	msgNotAuthenticated = "Not authenticated"
	msgInvalidJSONBody  = "Invalid JSON body"
	msgInternalError    = "Internal server error"
)

// Server holds all dependencies for the REST API handlers.
type Server struct {
	controlSvc service.ControlService
	webhookSvc service.WebhookService
	bookingSvc service.BookingService
	controlKey string
	logger     *slog.Logger
}

// New creates a new API Server backed by the provided services. controlKey is
// the bearer token guarding the control routes; an empty key rejects every
// control request.
func New(
	controlSvc service.ControlService,
	webhookSvc service.WebhookService,
	bookingSvc service.BookingService,
	controlKey string,
	logger *slog.Logger,
) *Server {
	return &Server{
		controlSvc: controlSvc,
		webhookSvc: webhookSvc,
		bookingSvc: bookingSvc,
		controlKey: controlKey,
		logger:     logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/version", s.handleVersion)

	// Self-service sign-up is closed.
	r.HandleFunc("/auth/signup", handleSignup)

	// Operator console. The method is checked before the token.
	r.Route("/control", func(r chi.Router) {
		r.MethodNotAllowed(handleMethodNotAllowed)
		r.Group(func(r chi.Router) {
			r.Use(s.requireBearer)

			r.Post("/upsert", s.handleUpsertUser)
			r.Post("/toggle-away", s.handleToggleAway)
			r.Post("/login", s.handleLogin)
			r.Post("/boop", s.handleBoop)

			r.Get("/webhooks", s.handleListWebhooks)
			r.Post("/webhooks", s.handleCreateWebhook)
			r.Get("/webhooks/deliveries", s.handleListDeliveries)
			r.Get("/webhooks/{id}", s.handleGetWebhook)
			r.Delete("/webhooks/{id}", s.handleDeleteWebhook)

			r.Get("/event-types", s.handleListEventTypes)
			r.Post("/event-types", s.handleCreateEventType)
		})
	})

	// Bookings
	r.Route("/bookings", func(r chi.Router) {
		r.MethodNotAllowed(handleMethodNotAllowed)
		r.Post("/", s.handleCreateBooking)
		r.Get("/{uid}", s.handleGetBooking)
		r.Post("/{uid}/cancel", s.handleCancelBooking)
		r.Post("/{uid}/reschedule", s.handleRescheduleBooking)
	})
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// decodeJSON decodes the request body into v. An empty body leaves v unchanged.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, msgInvalidMethod)
}

func handleSignup(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusGone, "Nope")
}

// httpErr maps service errors to HTTP status codes.
func (s *Server) httpErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		nf *service.NotFoundError
		ve *service.ValidationError
		ce *service.ConflictError
	)
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, notFoundMessage(nf.Resource))
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Message)
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, ce.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
	}
}

// notFoundMessage renders "User not found" style messages.
func notFoundMessage(resource string) string {
	if resource == "" {
		return "Not found"
	}
	return strings.ToUpper(resource[:1]) + resource[1:] + " not found"
}

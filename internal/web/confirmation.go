// Package web renders the public booking pages.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/market-muscles-llc/pulse-kronos/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages serves the booking confirmation page.
type Pages struct {
	bookingSvc service.BookingService
	templates  *template.Template
	logger     *slog.Logger
}

// New parses the embedded templates. It panics on a malformed template.
func New(bookingSvc service.BookingService, logger *slog.Logger) *Pages {
	return &Pages{
		bookingSvc: bookingSvc,
		templates:  template.Must(template.ParseFS(templateFS, "templates/*.html")),
		logger:     logger,
	}
}

// Mount registers the page routes on r.
func (p *Pages) Mount(r chi.Router) {
	r.Get("/booking/{uid}", p.handleConfirmation)
}

// handleConfirmation renders /booking/{uid}. The viewer may pass ?tz= to pick
// the display zone and ?timeFormat=24h for a 24-hour clock.
func (p *Pages) handleConfirmation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := p.bookingSvc.Confirmation(r.Context(), chi.URLParam(r, "uid"), service.ConfirmationOptions{
		TimeZone:   q.Get("tz"),
		TimeFormat: q.Get("timeFormat"),
	})
	if err != nil {
		var nf *service.NotFoundError
		if errors.As(err, &nf) {
			p.render(w, http.StatusNotFound, "notfound.html", nil)
			return
		}
		p.logger.Error("failed to load booking confirmation", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	p.render(w, http.StatusOK, "confirmation.html", view)
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, data); err != nil {
		p.logger.Error("failed to render page", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

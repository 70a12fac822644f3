package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/market-muscles-llc/pulse-kronos/internal/eventbus"
)

const (
	defaultCooldown = 15 * time.Minute
	sendTimeout     = 30 * time.Second
)

// AlertHandler turns webhook delivery failures into alert e-mails. Repeated
// failures for the same subscriber are suppressed for a cooldown period.
type AlertHandler struct {
	provider Provider
	logger   *slog.Logger
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// AlertOption configures an AlertHandler.
type AlertOption func(*AlertHandler)

// WithCooldown sets the minimum interval between alerts for one subscriber.
// Zero disables suppression.
func WithCooldown(d time.Duration) AlertOption {
	return func(h *AlertHandler) { h.cooldown = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) AlertOption {
	return func(h *AlertHandler) { h.now = now }
}

// NewAlertHandler creates a new AlertHandler sending through provider.
func NewAlertHandler(provider Provider, logger *slog.Logger, opts ...AlertOption) *AlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &AlertHandler{
		provider: provider,
		logger:   logger.With("component", "notification"),
		cooldown: defaultCooldown,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes lists the events Handle acts on.
func (h *AlertHandler) EventTypes() []string {
	return []string{eventbus.DeliveryFailed}
}

// humanSubject returns a readable email subject for a given event type.
func humanSubject(eventType string) string {
	switch eventType {
	case eventbus.DeliveryFailed:
		return "Webhook Delivery Failed"
	}
	return eventType
}

// Handle is an eventbus.Listener. It sends one alert per event unless the
// subscriber was alerted on within the cooldown.
func (h *AlertHandler) Handle(e eventbus.Event) {
	if !h.admit(e.Type + "/" + e.Payload["subscriber_id"]) {
		h.logger.Debug("alert suppressed", "event_type", e.Type, "subscriber_id", e.Payload["subscriber_id"])
		return
	}

	subject := buildSubject(humanSubject(e.Type))
	body := formatBody(e)

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := h.provider.Send(ctx, Message{Subject: subject, Body: body}); err != nil {
		h.logger.Error("sending alert failed", "event_type", e.Type, "provider", h.provider.Name(), "error", err)
		return
	}
	h.logger.Info("alert sent", "event_type", e.Type, "provider", h.provider.Name())
}

func (h *AlertHandler) admit(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if last, ok := h.lastSent[key]; ok && h.cooldown > 0 && now.Sub(last) < h.cooldown {
		return false
	}
	h.lastSent[key] = now
	return true
}

func formatBody(e eventbus.Event) string {
	keys := make([]string, 0, len(e.Payload))
	for k := range e.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys)+1)
	lines = append(lines, fmt.Sprintf("occurred_at: %s", e.Timestamp.UTC().Format(time.RFC3339)))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, e.Payload[k]))
	}
	return strings.Join(lines, "\n")
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/market-muscles-llc/pulse-kronos/internal/eventbus"
	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

const (
	defaultDeliveryLimit = 50
	maxDeliveryLimit     = 500
)

// Notifier fans booking events out to webhook subscribers.
// *webhook.Notifier satisfies it.
type Notifier interface {
	Notify(ctx context.Context, q webhook.Query, createdAt string, data webhook.CalendarEvent) ([]webhook.Outcome, error)
	Deliver(ctx context.Context, trigger webhook.TriggerEvent, subs []webhook.Subscriber, createdAt string, data webhook.CalendarEvent) []webhook.Outcome
}

// CreateWebhookRequest registers a subscriber. Empty EventTriggers subscribes
// to every trigger; a nil Active means active.
type CreateWebhookRequest struct {
	SubscriberURL   string   `json:"subscriberUrl"`
	PayloadTemplate string   `json:"payloadTemplate"`
	Secret          string   `json:"secret"`
	UserID          int64    `json:"userId"`
	EventTypeID     int64    `json:"eventTypeId"`
	EventTriggers   []string `json:"eventTriggers"`
	Active          *bool    `json:"active"`
}

// WebhookService manages the subscriber registry and the test trigger.
type WebhookService interface {
	// Boop sends a fixed test BOOKING_CREATED payload to the control endpoint,
	// unsigned and untemplated.
	Boop(ctx context.Context) []webhook.Outcome
	ListWebhooks(ctx context.Context) ([]webhook.Subscriber, error)
	GetWebhook(ctx context.Context, id string) (*webhook.Subscriber, error)
	CreateWebhook(ctx context.Context, req CreateWebhookRequest) (*webhook.Subscriber, error)
	DeleteWebhook(ctx context.Context, id string) error
	ListDeliveries(ctx context.Context, limit int) ([]storage.DeliveryLogEntry, error)
}

type webhookService struct {
	store      storage.WebhookStore
	deliveries storage.DeliveryStore
	control    *webhook.ControlResolver
	notifier   Notifier
	publisher  EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewWebhookService returns a new WebhookService. publisher may be nil.
func NewWebhookService(
	store storage.WebhookStore,
	deliveries storage.DeliveryStore,
	control *webhook.ControlResolver,
	notifier Notifier,
	publisher EventPublisher,
	logger *slog.Logger,
) WebhookService {
	return &webhookService{
		store:      store,
		deliveries: deliveries,
		control:    control,
		notifier:   notifier,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// BoopEvent is the sample booking sent by the test trigger.
func BoopEvent(at time.Time) webhook.CalendarEvent {
	ts := ISOTimestamp(at)
	lang := webhook.Language{Locale: "en"}
	return webhook.CalendarEvent{
		Type:        "Test",
		Title:       "Test trigger event",
		Description: "",
		StartTime:   ts,
		EndTime:     ts,
		Organizer: webhook.Person{
			Name:     "Cal",
			Email:    "no-reply@cal.com",
			TimeZone: "Europe/London",
			Language: lang,
		},
		Attendees: []webhook.Person{{
			Name:     "John Doe",
			Email:    "jdoe@example.com",
			TimeZone: "Europe/London",
			Language: lang,
		}},
	}
}

// ISOTimestamp formats t the way webhook payloads carry timestamps.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func (s *webhookService) Boop(ctx context.Context) []webhook.Outcome {
	now := s.now()
	sub := s.control.Subscriber(0, 0)
	sub.Secret = ""
	sub.PayloadTemplate = ""

	outcomes := s.notifier.Deliver(ctx, webhook.BookingCreated, []webhook.Subscriber{sub}, ISOTimestamp(now), BoopEvent(now))
	s.logger.Info("test trigger sent", "url", sub.SubscriberURL, "ok", outcomes[0].OK)
	return outcomes
}

func (s *webhookService) ListWebhooks(ctx context.Context) ([]webhook.Subscriber, error) {
	subs, err := s.store.ListWebhooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}
	return subs, nil
}

func (s *webhookService) GetWebhook(ctx context.Context, id string) (*webhook.Subscriber, error) {
	sub, err := s.store.GetWebhook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting webhook %q: %w", id, err)
	}
	if sub == nil {
		return nil, &NotFoundError{Resource: "webhook", ID: id}
	}
	return sub, nil
}

func (s *webhookService) CreateWebhook(ctx context.Context, req CreateWebhookRequest) (*webhook.Subscriber, error) {
	sub, err := buildSubscriber(req)
	if err != nil {
		return nil, err
	}
	sub.ID = uuid.NewString()
	sub.CreatedAt = s.now().UTC()

	if err := s.store.CreateWebhook(ctx, sub); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, &ConflictError{Resource: "webhook", Field: "id", Value: sub.ID}
		}
		return nil, fmt.Errorf("creating webhook: %w", err)
	}

	s.logger.Info("webhook created", "id", sub.ID, "url", sub.SubscriberURL)
	publish(s.publisher, eventbus.WebhookCreated, map[string]string{"id": sub.ID, "url": sub.SubscriberURL})
	return sub, nil
}

func buildSubscriber(req CreateWebhookRequest) (*webhook.Subscriber, error) {
	u, err := url.Parse(req.SubscriberURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ValidationError{Field: "subscriberUrl", Message: "must be an absolute http(s) URL"}
	}
	if err := webhook.ValidateTemplate(req.PayloadTemplate); err != nil {
		return nil, &ValidationError{Field: "payloadTemplate", Message: err.Error()}
	}

	triggers := webhook.AllTriggers()
	if len(req.EventTriggers) > 0 {
		triggers = make([]webhook.TriggerEvent, 0, len(req.EventTriggers))
		for _, t := range req.EventTriggers {
			te, err := webhook.ParseTriggerEvent(t)
			if err != nil {
				return nil, &ValidationError{Field: "eventTriggers", Message: err.Error()}
			}
			triggers = append(triggers, te)
		}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &webhook.Subscriber{
		SubscriberURL:   req.SubscriberURL,
		PayloadTemplate: req.PayloadTemplate,
		Secret:          req.Secret,
		UserID:          req.UserID,
		EventTypeID:     req.EventTypeID,
		Active:          active,
		EventTriggers:   triggers,
	}, nil
}

func (s *webhookService) DeleteWebhook(ctx context.Context, id string) error {
	existed, err := s.store.DeleteWebhook(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting webhook %q: %w", id, err)
	}
	if !existed {
		return &NotFoundError{Resource: "webhook", ID: id}
	}
	s.logger.Info("webhook deleted", "id", id)
	publish(s.publisher, eventbus.WebhookDeleted, map[string]string{"id": id})
	return nil
}

func (s *webhookService) ListDeliveries(ctx context.Context, limit int) ([]storage.DeliveryLogEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultDeliveryLimit
	case limit > maxDeliveryLimit:
		limit = maxDeliveryLimit
	}
	entries, err := s.deliveries.ListDeliveries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}
	return entries, nil
}

// NewDeliveryRecorder returns a webhook.Hook that appends every outcome to
// the delivery log and publishes a delivery event. Recording failures are
// logged and never affect the outcome.
func NewDeliveryRecorder(store storage.DeliveryStore, publisher EventPublisher, logger *slog.Logger) webhook.Hook {
	return func(ctx context.Context, trigger webhook.TriggerEvent, sub webhook.Subscriber, o webhook.Outcome, elapsed time.Duration) {
		entry := storage.DeliveryLogEntry{
			SubscriberID: sub.ID,
			TriggerEvent: trigger,
			OK:           o.OK,
			Status:       o.Status,
			Message:      o.Message,
			DurationMS:   elapsed.Milliseconds(),
			CreatedAt:    time.Now().UTC(),
		}
		if err := store.LogDelivery(context.WithoutCancel(ctx), entry); err != nil {
			logger.Error("recording webhook delivery failed", "subscriber_id", sub.ID, "error", err)
		}

		payload := map[string]string{
			"subscriber_id": sub.ID,
			"trigger":       string(trigger),
			"message":       o.Message,
		}
		if o.Status != nil {
			payload["status"] = strconv.Itoa(*o.Status)
		}
		if o.OK {
			publish(publisher, eventbus.DeliverySucceeded, payload)
			return
		}
		logger.Warn("webhook delivery failed", "subscriber_id", sub.ID, "trigger", trigger, "message", o.Message)
		publish(publisher, eventbus.DeliveryFailed, payload)
	}
}

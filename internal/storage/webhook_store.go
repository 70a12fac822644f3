package storage

import (
	"context"
	"time"

	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

// WebhookStore persists webhook subscribers. It satisfies
// webhook.SubscriberLister so it can back a webhook.StoreResolver.
type WebhookStore interface {
	webhook.SubscriberLister
	CreateWebhook(ctx context.Context, sub *webhook.Subscriber) error
	GetWebhook(ctx context.Context, id string) (*webhook.Subscriber, error)
	ListWebhooks(ctx context.Context) ([]webhook.Subscriber, error)
	// DeleteWebhook removes the subscriber and reports whether it existed.
	DeleteWebhook(ctx context.Context, id string) (bool, error)
}

// DeliveryLogEntry records one webhook delivery attempt.
type DeliveryLogEntry struct {
	ID           int64                `json:"id"`
	SubscriberID string               `json:"subscriberId"`
	TriggerEvent webhook.TriggerEvent `json:"triggerEvent"`
	OK           bool                 `json:"ok"`
	Status       *int                 `json:"status"`
	Message      string               `json:"message"`
	DurationMS   int64                `json:"durationMs"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// DeliveryStore persists the webhook delivery log.
type DeliveryStore interface {
	LogDelivery(ctx context.Context, entry DeliveryLogEntry) error
	// ListDeliveries returns the most recent entries first.
	ListDeliveries(ctx context.Context, limit int) ([]DeliveryLogEntry, error)
	// PruneDeliveries removes entries created before cutoff.
	PruneDeliveries(ctx context.Context, cutoff time.Time) (int64, error)
}

package eventbus

import "time"

// Event types published by the services.
const (
	BookingCreated     = "booking.created"
	BookingCancelled   = "booking.cancelled"
	BookingRescheduled = "booking.rescheduled"

	UserUpserted      = "control.user.upserted"
	UserAwayToggled   = "control.user.away_toggled"
	MagicLinkIssued   = "control.magic_link.issued"
	WebhookCreated    = "webhook.subscriber.created"
	WebhookDeleted    = "webhook.subscriber.deleted"
	DeliveryFailed    = "webhook.delivery.failed"
	DeliverySucceeded = "webhook.delivery.succeeded"
)

// Event represents an application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)

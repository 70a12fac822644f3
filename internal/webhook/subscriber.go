// Package webhook resolves the subscribers interested in a booking event,
// builds their payloads and delivers them with a single signed HTTP POST.
// Delivery is at-most-once: nothing here retries or queues.
package webhook

import (
	"fmt"
	"slices"
	"time"
)

// TriggerEvent is the kind of application event a subscriber can opt into.
type TriggerEvent string

const (
	BookingCreated     TriggerEvent = "BOOKING_CREATED"
	BookingCancelled   TriggerEvent = "BOOKING_CANCELLED"
	BookingRescheduled TriggerEvent = "BOOKING_RESCHEDULED"
)

// AllTriggers lists every known trigger kind.
func AllTriggers() []TriggerEvent {
	return []TriggerEvent{BookingCancelled, BookingCreated, BookingRescheduled}
}

// ParseTriggerEvent validates s against the known trigger kinds.
func ParseTriggerEvent(s string) (TriggerEvent, error) {
	t := TriggerEvent(s)
	if !slices.Contains(AllTriggers(), t) {
		return "", fmt.Errorf("unknown trigger event %q", s)
	}
	return t, nil
}

// Subscriber is a registered destination for event notifications.
type Subscriber struct {
	ID              string         `json:"id"`
	SubscriberURL   string         `json:"subscriberUrl"`
	PayloadTemplate string         `json:"payloadTemplate,omitempty"`
	Secret          string         `json:"-"`
	UserID          int64          `json:"userId,omitempty"`
	EventTypeID     int64          `json:"eventTypeId,omitempty"`
	Active          bool           `json:"active"`
	EventTriggers   []TriggerEvent `json:"eventTriggers"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// Accepts reports whether the subscriber is active and subscribed to trigger.
func (s Subscriber) Accepts(trigger TriggerEvent) bool {
	return s.Active && slices.Contains(s.EventTriggers, trigger)
}

// Outcome is the result of one delivery attempt to one subscriber.
// Status is nil when no HTTP response was received.
type Outcome struct {
	SubscriberID string `json:"subscriberId,omitempty"`
	OK           bool   `json:"ok"`
	Status       *int   `json:"status"`
	Message      string `json:"message"`
}

func failure(sub Subscriber, format string, args ...any) Outcome {
	return Outcome{SubscriberID: sub.ID, OK: false, Message: fmt.Sprintf(format, args...)}
}

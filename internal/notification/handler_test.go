package notification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-muscles-llc/pulse-kronos/internal/config"
	"github.com/market-muscles-llc/pulse-kronos/internal/eventbus"
	"github.com/market-muscles-llc/pulse-kronos/internal/notification"
)

// --- stub provider ---

type stubProvider struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Send(_ context.Context, msg notification.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func failedDelivery(subscriber string) eventbus.Event {
	return eventbus.Event{
		Type:      eventbus.DeliveryFailed,
		Timestamp: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
		Payload: map[string]string{
			"subscriber_id": subscriber,
			"trigger":       "BOOKING_CREATED",
			"message":       "connection refused",
		},
	}
}

// --- tests ---

func TestHandle_SendsAlert(t *testing.T) {
	p := &stubProvider{}
	h := notification.NewAlertHandler(p, nil)

	h.Handle(failedDelivery("control"))

	require.Len(t, p.sent, 1)
	assert.Equal(t, notification.SubjectPrefix+"Webhook Delivery Failed", p.sent[0].Subject)
	assert.Equal(t,
		"occurred_at: 2026-10-16T08:00:00Z\nmessage: connection refused\nsubscriber_id: control\ntrigger: BOOKING_CREATED",
		p.sent[0].Body)
}

func TestHandle_CooldownPerSubscriber(t *testing.T) {
	p := &stubProvider{}
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	h := notification.NewAlertHandler(p, nil,
		notification.WithCooldown(10*time.Minute),
		notification.WithClock(func() time.Time { return now }),
	)

	h.Handle(failedDelivery("control"))
	h.Handle(failedDelivery("control"))
	h.Handle(failedDelivery("audit"))
	assert.Len(t, p.sent, 2)

	now = now.Add(11 * time.Minute)
	h.Handle(failedDelivery("control"))
	assert.Len(t, p.sent, 3)
}

func TestHandle_NoCooldown(t *testing.T) {
	p := &stubProvider{}
	h := notification.NewAlertHandler(p, nil, notification.WithCooldown(0))

	h.Handle(failedDelivery("control"))
	h.Handle(failedDelivery("control"))
	assert.Len(t, p.sent, 2)
}

func TestHandle_ProviderError(t *testing.T) {
	p := &stubProvider{err: errors.New("smtp down")}
	h := notification.NewAlertHandler(p, nil)

	// Should not panic; the failure is only logged.
	assert.NotPanics(t, func() { h.Handle(failedDelivery("control")) })
	assert.Empty(t, p.sent)
}

func TestAlertHandler_SubscribedThroughBus(t *testing.T) {
	p := &stubProvider{}
	h := notification.NewAlertHandler(p, nil)
	bus := eventbus.New(1, nil)
	bus.Subscribe(h.Handle, h.EventTypes()...)

	bus.Publish(eventbus.BookingCreated, map[string]string{"uid": "x"})
	bus.Publish(eventbus.DeliveryFailed, map[string]string{"subscriber_id": "control"})
	bus.Close()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Len(t, p.sent, 1)
}

func TestSMTPProvider_RequiresRecipients(t *testing.T) {
	p := notification.NewSMTPProvider(config.SMTPConfig{Host: "localhost", Port: 2525, FromAddr: "alerts@example.com"})
	assert.Equal(t, "smtp", p.Name())

	err := p.Send(context.Background(), notification.Message{Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipients")
}

func TestSMTPProvider_InvalidFrom(t *testing.T) {
	p := notification.NewSMTPProvider(config.SMTPConfig{Host: "localhost", FromAddr: "not an address", AlertRecipients: "ops@example.com"})
	err := p.Send(context.Background(), notification.Message{Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from address")
}

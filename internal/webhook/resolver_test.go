package webhook_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

type stubLister struct {
	subs []webhook.Subscriber
	err  error
}

func (s *stubLister) ListSubscribersFor(_ context.Context, _, _ int64) ([]webhook.Subscriber, error) {
	return s.subs, s.err
}

func TestControlResolver(t *testing.T) {
	r := webhook.NewControlResolver("https://control.example.com/hook", "")

	for _, trigger := range webhook.AllTriggers() {
		t.Run(string(trigger), func(t *testing.T) {
			subs, err := r.Resolve(context.Background(), webhook.Query{UserID: 7, EventTypeID: 3, Trigger: trigger})
			require.NoError(t, err)
			require.Len(t, subs, 1)
			assert.Equal(t, webhook.ControlSubscriberID, subs[0].ID)
			assert.Equal(t, "https://control.example.com/hook", subs[0].SubscriberURL)
			assert.Equal(t, int64(7), subs[0].UserID)
			assert.Equal(t, int64(3), subs[0].EventTypeID)
		})
	}

	subs, err := r.Resolve(context.Background(), webhook.Query{Trigger: "MEETING_ENDED"})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestControlResolver_EmptyURLStillResolves(t *testing.T) {
	r := webhook.NewControlResolver("", "")
	subs, err := r.Resolve(context.Background(), webhook.Query{Trigger: webhook.BookingCreated})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Empty(t, subs[0].SubscriberURL)
}

func TestStaticResolver(t *testing.T) {
	created := webhook.Subscriber{ID: "a", Active: true, EventTriggers: []webhook.TriggerEvent{webhook.BookingCreated}}
	cancelledOnly := webhook.Subscriber{ID: "b", Active: true, EventTriggers: []webhook.TriggerEvent{webhook.BookingCancelled}}
	inactive := webhook.Subscriber{ID: "c", Active: false, EventTriggers: []webhook.TriggerEvent{webhook.BookingCreated}}
	otherUser := webhook.Subscriber{ID: "d", UserID: 99, Active: true, EventTriggers: []webhook.TriggerEvent{webhook.BookingCreated}}
	scoped := webhook.Subscriber{ID: "e", UserID: 1, EventTypeID: 9, Active: true, EventTriggers: []webhook.TriggerEvent{webhook.BookingCreated}}

	tests := []struct {
		name    string
		subs    []webhook.Subscriber
		query   webhook.Query
		wantIDs []string
	}{
		{
			name:    "subscribed to trigger",
			subs:    []webhook.Subscriber{created},
			query:   webhook.Query{UserID: 1, Trigger: webhook.BookingCreated},
			wantIDs: []string{"a"},
		},
		{
			name:    "not subscribed to trigger",
			subs:    []webhook.Subscriber{cancelledOnly},
			query:   webhook.Query{UserID: 1, Trigger: webhook.BookingCreated},
			wantIDs: []string{},
		},
		{
			name:    "inactive skipped",
			subs:    []webhook.Subscriber{inactive, created},
			query:   webhook.Query{UserID: 1, Trigger: webhook.BookingCreated},
			wantIDs: []string{"a"},
		},
		{
			name:    "owned by another user",
			subs:    []webhook.Subscriber{otherUser},
			query:   webhook.Query{UserID: 1, Trigger: webhook.BookingCreated},
			wantIDs: []string{},
		},
		{
			name:    "user and event type both match",
			subs:    []webhook.Subscriber{scoped},
			query:   webhook.Query{UserID: 1, EventTypeID: 9, Trigger: webhook.BookingCreated},
			wantIDs: []string{"e"},
		},
		{
			name:    "user matches but event type differs",
			subs:    []webhook.Subscriber{scoped},
			query:   webhook.Query{UserID: 1, EventTypeID: 3, Trigger: webhook.BookingCreated},
			wantIDs: []string{},
		},
		{
			name:    "event type matches but user differs",
			subs:    []webhook.Subscriber{scoped},
			query:   webhook.Query{UserID: 2, EventTypeID: 9, Trigger: webhook.BookingCreated},
			wantIDs: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs, err := webhook.NewStaticResolver(tt.subs).Resolve(context.Background(), tt.query)
			require.NoError(t, err)
			ids := make([]string, 0, len(subs))
			for _, s := range subs {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestStoreResolver(t *testing.T) {
	lister := &stubLister{subs: []webhook.Subscriber{
		{ID: "x", Active: true, EventTriggers: []webhook.TriggerEvent{webhook.BookingRescheduled}},
		{ID: "y", Active: true, EventTriggers: []webhook.TriggerEvent{webhook.BookingCreated}},
	}}
	subs, err := webhook.NewStoreResolver(lister).Resolve(context.Background(), webhook.Query{Trigger: webhook.BookingRescheduled})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "x", subs[0].ID)

	_, err = webhook.NewStoreResolver(&stubLister{err: errors.New("db down")}).
		Resolve(context.Background(), webhook.Query{Trigger: webhook.BookingCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing subscribers")
}

func TestChainResolver_DeduplicatesByID(t *testing.T) {
	control := webhook.NewControlResolver("https://a.example.com", "")
	dup := webhook.NewStaticResolver([]webhook.Subscriber{
		{ID: webhook.ControlSubscriberID, SubscriberURL: "https://b.example.com", Active: true, EventTriggers: webhook.AllTriggers()},
		{ID: "extra", SubscriberURL: "https://c.example.com", Active: true, EventTriggers: webhook.AllTriggers()},
	})

	subs, err := webhook.ChainResolver{control, dup}.Resolve(context.Background(), webhook.Query{Trigger: webhook.BookingCreated})
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "https://a.example.com", subs[0].SubscriberURL)
	assert.Equal(t, "extra", subs[1].ID)
}

func TestChainResolver_PropagatesError(t *testing.T) {
	chain := webhook.ChainResolver{
		webhook.NewControlResolver("https://a.example.com", ""),
		webhook.NewStoreResolver(&stubLister{err: errors.New("boom")}),
	}
	_, err := chain.Resolve(context.Background(), webhook.Query{Trigger: webhook.BookingCreated})
	assert.Error(t, err)
}

func TestParseTriggerEvent(t *testing.T) {
	got, err := webhook.ParseTriggerEvent("BOOKING_CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, webhook.BookingCancelled, got)

	_, err = webhook.ParseTriggerEvent("booking_created")
	assert.Error(t, err)
}

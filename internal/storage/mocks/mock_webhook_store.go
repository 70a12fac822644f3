package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

// MockWebhookStore is a mock implementation of storage.WebhookStore.
type MockWebhookStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockWebhookStore) ListSubscribersFor(ctx context.Context, userID, eventTypeID int64) ([]webhook.Subscriber, error) {
	args := m.Called(ctx, userID, eventTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]webhook.Subscriber), args.Error(1)
}

//nolint:revive
func (m *MockWebhookStore) CreateWebhook(ctx context.Context, sub *webhook.Subscriber) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

//nolint:revive
func (m *MockWebhookStore) GetWebhook(ctx context.Context, id string) (*webhook.Subscriber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.Subscriber), args.Error(1)
}

//nolint:revive
func (m *MockWebhookStore) ListWebhooks(ctx context.Context) ([]webhook.Subscriber, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]webhook.Subscriber), args.Error(1)
}

//nolint:revive
func (m *MockWebhookStore) DeleteWebhook(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockDeliveryStore is a mock implementation of storage.DeliveryStore.
type MockDeliveryStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockDeliveryStore) LogDelivery(ctx context.Context, entry storage.DeliveryLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

//nolint:revive
func (m *MockDeliveryStore) ListDeliveries(ctx context.Context, limit int) ([]storage.DeliveryLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.DeliveryLogEntry), args.Error(1)
}

//nolint:revive
func (m *MockDeliveryStore) PruneDeliveries(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

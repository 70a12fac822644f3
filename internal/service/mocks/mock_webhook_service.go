package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/market-muscles-llc/pulse-kronos/internal/service"
	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

// MockWebhookService is a mock implementation of service.WebhookService.
type MockWebhookService struct {
	mock.Mock
}

//nolint:revive
func (m *MockWebhookService) Boop(ctx context.Context) []webhook.Outcome {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]webhook.Outcome)
}

//nolint:revive
func (m *MockWebhookService) ListWebhooks(ctx context.Context) ([]webhook.Subscriber, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]webhook.Subscriber), args.Error(1)
}

//nolint:revive
func (m *MockWebhookService) GetWebhook(ctx context.Context, id string) (*webhook.Subscriber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.Subscriber), args.Error(1)
}

//nolint:revive
func (m *MockWebhookService) CreateWebhook(ctx context.Context, req service.CreateWebhookRequest) (*webhook.Subscriber, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.Subscriber), args.Error(1)
}

//nolint:revive
func (m *MockWebhookService) DeleteWebhook(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

//nolint:revive
func (m *MockWebhookService) ListDeliveries(ctx context.Context, limit int) ([]storage.DeliveryLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.DeliveryLogEntry), args.Error(1)
}

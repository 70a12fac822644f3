package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
)

// MockEventTypeStore is a mock implementation of storage.EventTypeStore.
type MockEventTypeStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockEventTypeStore) CreateEventType(ctx context.Context, et *storage.EventType) error {
	args := m.Called(ctx, et)
	return args.Error(0)
}

//nolint:revive
func (m *MockEventTypeStore) GetEventType(ctx context.Context, id int64) (*storage.EventType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.EventType), args.Error(1)
}

//nolint:revive
func (m *MockEventTypeStore) ListEventTypes(ctx context.Context, userID int64) ([]*storage.EventType, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.EventType), args.Error(1)
}

// MockBookingStore is a mock implementation of storage.BookingStore.
type MockBookingStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockBookingStore) CreateBooking(ctx context.Context, b *storage.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

//nolint:revive
func (m *MockBookingStore) GetBooking(ctx context.Context, uid string) (*storage.Booking, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Booking), args.Error(1)
}

//nolint:revive
func (m *MockBookingStore) UpdateBooking(ctx context.Context, b *storage.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

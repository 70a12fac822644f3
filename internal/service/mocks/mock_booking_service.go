package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/market-muscles-llc/pulse-kronos/internal/service"
	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
)

// MockBookingService is a mock implementation of service.BookingService.
type MockBookingService struct {
	mock.Mock
}

//nolint:revive
func (m *MockBookingService) CreateEventType(ctx context.Context, et *storage.EventType) (*storage.EventType, error) {
	args := m.Called(ctx, et)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.EventType), args.Error(1)
}

//nolint:revive
func (m *MockBookingService) ListEventTypes(ctx context.Context, userID int64) ([]*storage.EventType, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.EventType), args.Error(1)
}

//nolint:revive
func (m *MockBookingService) CreateBooking(ctx context.Context, req service.CreateBookingRequest) (*service.BookingResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BookingResult), args.Error(1)
}

//nolint:revive
func (m *MockBookingService) GetBooking(ctx context.Context, uid string) (*storage.Booking, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Booking), args.Error(1)
}

//nolint:revive
func (m *MockBookingService) CancelBooking(ctx context.Context, uid string) (*service.BookingResult, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BookingResult), args.Error(1)
}

//nolint:revive
func (m *MockBookingService) RescheduleBooking(ctx context.Context, uid string, start time.Time) (*service.BookingResult, error) {
	args := m.Called(ctx, uid, start)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BookingResult), args.Error(1)
}

//nolint:revive
func (m *MockBookingService) Confirmation(ctx context.Context, uid string, opts service.ConfirmationOptions) (*service.Confirmation, error) {
	args := m.Called(ctx, uid, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Confirmation), args.Error(1)
}

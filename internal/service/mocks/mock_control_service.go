package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/market-muscles-llc/pulse-kronos/internal/service"
)

// MockControlService is a mock implementation of service.ControlService.
type MockControlService struct {
	mock.Mock
}

//nolint:revive
func (m *MockControlService) UpsertUser(ctx context.Context, req service.UpsertUserRequest) (*service.UpsertUserResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UpsertUserResult), args.Error(1)
}

//nolint:revive
func (m *MockControlService) ToggleAway(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

//nolint:revive
func (m *MockControlService) IssueMagicLink(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

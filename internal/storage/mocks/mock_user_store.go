package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
)

// MockUserStore is a mock implementation of storage.UserStore.
type MockUserStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockUserStore) GetUserByID(ctx context.Context, id int64) (*storage.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.User), args.Error(1)
}

//nolint:revive
func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.User), args.Error(1)
}

//nolint:revive
func (m *MockUserStore) UpsertUserByID(ctx context.Context, u *storage.User) (*storage.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.User), args.Error(1)
}

//nolint:revive
func (m *MockUserStore) UpsertUserByEmail(ctx context.Context, u *storage.User) (*storage.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.User), args.Error(1)
}

//nolint:revive
func (m *MockUserStore) ToggleAway(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockVerificationTokenStore is a mock implementation of storage.VerificationTokenStore.
type MockVerificationTokenStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockVerificationTokenStore) CreateVerificationToken(ctx context.Context, t storage.VerificationToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

//nolint:revive
func (m *MockVerificationTokenStore) GetVerificationToken(ctx context.Context, token string) (*storage.VerificationToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.VerificationToken), args.Error(1)
}

//nolint:revive
func (m *MockVerificationTokenStore) DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

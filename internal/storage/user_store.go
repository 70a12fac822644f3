package storage

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("conflicting record")

// Identity provider and plan values assigned to provisioned users.
const (
	IdentityProviderCAL = "CAL"
	PlanPro             = "PRO"
	ThemeLight          = "light"
)

// User is an account that owns event types and receives bookings.
type User struct {
	ID               int64          `json:"id"`
	Username         string         `json:"username"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Password         string         `json:"-"`
	TimeZone         string         `json:"timeZone"`
	Away             bool           `json:"away"`
	EmailVerified    *time.Time     `json:"emailVerified,omitempty"`
	IdentityProvider string         `json:"identityProvider"`
	Plan             string         `json:"plan"`
	Theme            string         `json:"theme"`
	Metadata         map[string]any `json:"metadata"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// UserStore persists users.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// UpsertUserByID inserts u with u.ID, or updates the credentials,
	// time zone and metadata of the existing user with that ID.
	UpsertUserByID(ctx context.Context, u *User) (*User, error)
	// UpsertUserByEmail is UpsertUserByID keyed on u.Email.
	UpsertUserByEmail(ctx context.Context, u *User) (*User, error)
	// ToggleAway flips the away flag of user id and returns the new value.
	ToggleAway(ctx context.Context, id int64) (bool, error)
}

// VerificationToken is a hashed, expiring sign-in token.
type VerificationToken struct {
	Identifier string    `json:"identifier"`
	Token      string    `json:"-"`
	Expires    time.Time `json:"expires"`
}

// VerificationTokenStore persists magic-link verification tokens.
type VerificationTokenStore interface {
	CreateVerificationToken(ctx context.Context, t VerificationToken) error
	GetVerificationToken(ctx context.Context, token string) (*VerificationToken, error)
	// DeleteExpiredVerificationTokens removes tokens that expired before now.
	DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error)
}

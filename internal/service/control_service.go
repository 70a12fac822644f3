package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/market-muscles-llc/pulse-kronos/internal/eventbus"
	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
)

// DefaultUserTimeZone is assigned to provisioned users that do not send one.
const DefaultUserTimeZone = "America/New_York"

// Messages returned by the control API.
const (
	MsgUserUpserted = "Upserted user"
	MsgUserCreated  = "Created user"
	MsgInvalidEmail = "Invalid email"
	MsgInvalidInput = "Invalid input"
	MsgUserNotFound = "User not found"
)

const (
	minEmailLength    = 3
	minPasswordLength = 7
	magicTokenBytes   = 32
)

// bcryptCost matches the cost the sign-in flow verifies against.
var bcryptCost = 12

// UpsertUserRequest provisions or updates a user. A nil ID upserts by email.
type UpsertUserRequest struct {
	ID       *int64
	Email    string
	Username string
	Name     string
	Password string
	TimeZone string
	FQDN     string
}

// UpsertUserResult is the provisioned user and the message describing the write.
type UpsertUserResult struct {
	Message string        `json:"message"`
	User    *storage.User `json:"user"`
}

// ControlConfig holds the settings the control operations depend on.
type ControlConfig struct {
	// AuthSecret is mixed into stored magic-link token hashes.
	AuthSecret   string
	WebsiteURL   string
	MagicLinkTTL time.Duration
}

// ControlService provisions users for the operator console.
type ControlService interface {
	UpsertUser(ctx context.Context, req UpsertUserRequest) (*UpsertUserResult, error)
	// ToggleAway flips the away flag of the user with email and returns the new value.
	ToggleAway(ctx context.Context, email string) (bool, error)
	// IssueMagicLink stores a hashed single-use token for email and returns
	// the sign-in link carrying the raw token.
	IssueMagicLink(ctx context.Context, email string) (string, error)
}

type controlService struct {
	users     storage.UserStore
	tokens    storage.VerificationTokenStore
	cfg       ControlConfig
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewControlService returns a new ControlService. publisher may be nil.
func NewControlService(
	users storage.UserStore,
	tokens storage.VerificationTokenStore,
	cfg ControlConfig,
	publisher EventPublisher,
	logger *slog.Logger,
) ControlService {
	if cfg.MagicLinkTTL <= 0 {
		cfg.MagicLinkTTL = 10 * time.Minute
	}
	cfg.WebsiteURL = strings.TrimRight(cfg.WebsiteURL, "/")
	return &controlService{
		users:     users,
		tokens:    tokens,
		cfg:       cfg,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func validateEmail(email string) error {
	if len(strings.TrimSpace(email)) < minEmailLength {
		return &ValidationError{Field: "email", Message: MsgInvalidEmail}
	}
	return nil
}

func (s *controlService) UpsertUser(ctx context.Context, req UpsertUserRequest) (*UpsertUserResult, error) {
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, &ValidationError{Field: "password", Message: MsgInvalidInput}
	}

	if req.TimeZone == "" {
		req.TimeZone = DefaultUserTimeZone
	}
	if req.Name == "" {
		req.Name = req.Username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	verified := s.now().UTC()
	metadata := map[string]any{}
	if req.FQDN != "" {
		metadata["fqdn"] = req.FQDN
	}
	u := &storage.User{
		Username:         req.Username,
		Name:             req.Name,
		Email:            req.Email,
		Password:         string(hash),
		TimeZone:         req.TimeZone,
		EmailVerified:    &verified,
		IdentityProvider: storage.IdentityProviderCAL,
		Plan:             storage.PlanPro,
		Theme:            storage.ThemeLight,
		Metadata:         metadata,
	}

	var (
		saved *storage.User
		msg   string
	)
	if req.ID != nil {
		u.ID = *req.ID
		saved, err = s.users.UpsertUserByID(ctx, u)
		msg = MsgUserUpserted
	} else {
		saved, err = s.users.UpsertUserByEmail(ctx, u)
		msg = MsgUserCreated
	}
	if errors.Is(err, storage.ErrConflict) {
		return nil, &ConflictError{Resource: "user", Field: "email", Value: req.Email}
	}
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	s.logger.Info("user upserted", "id", saved.ID, "email", saved.Email)
	publish(s.publisher, eventbus.UserUpserted, map[string]string{
		"user_id": strconv.FormatInt(saved.ID, 10),
		"email":   saved.Email,
	})
	return &UpsertUserResult{Message: msg, User: saved}, nil
}

func (s *controlService) lookupByEmail(ctx context.Context, email string) (*storage.User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if u == nil {
		return nil, &NotFoundError{Resource: "user", ID: email}
	}
	return u, nil
}

func (s *controlService) ToggleAway(ctx context.Context, email string) (bool, error) {
	u, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return false, err
	}

	away, err := s.users.ToggleAway(ctx, u.ID)
	if err != nil {
		return false, fmt.Errorf("toggling away for user %d: %w", u.ID, err)
	}

	s.logger.Info("user away toggled", "id", u.ID, "away", away)
	publish(s.publisher, eventbus.UserAwayToggled, map[string]string{
		"user_id": strconv.FormatInt(u.ID, 10),
		"away":    strconv.FormatBool(away),
	})
	return away, nil
}

func (s *controlService) IssueMagicLink(ctx context.Context, email string) (string, error) {
	u, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	raw := make([]byte, magicTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(raw)

	vt := storage.VerificationToken{
		Identifier: u.Email,
		Token:      HashToken(token, s.cfg.AuthSecret),
		Expires:    s.now().UTC().Add(s.cfg.MagicLinkTTL),
	}
	if err := s.tokens.CreateVerificationToken(ctx, vt); err != nil {
		return "", fmt.Errorf("storing verification token: %w", err)
	}

	params := url.Values{}
	params.Set("callbackUrl", s.cfg.WebsiteURL+"/event-types")
	params.Set("token", token)
	params.Set("email", u.Email)
	link := s.cfg.WebsiteURL + "/api/auth/callback/email?" + params.Encode()

	s.logger.Info("magic link issued", "user_id", u.ID, "expires", vt.Expires)
	publish(s.publisher, eventbus.MagicLinkIssued, map[string]string{"email": u.Email})
	return link, nil
}

// HashToken returns the stored form of a magic-link token: hex SHA-256 of
// the token followed by the auth secret.
func HashToken(token, secret string) string {
	sum := sha256.Sum256([]byte(token + secret))
	return hex.EncodeToString(sum[:])
}

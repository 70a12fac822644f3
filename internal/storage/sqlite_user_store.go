package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteUserStore implements UserStore and VerificationTokenStore backed by SQLite.
type SQLiteUserStore struct {
	db *sql.DB
}

// NewSQLiteUserStore returns a new SQLiteUserStore.
func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

const userColumns = `id, username, name, email, password, time_zone, away, email_verified,
	identity_provider, plan, theme, metadata, created_at`

// GetUserByID returns the user with the given id, or nil if not found.
func (s *SQLiteUserStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail returns the user with the given email, or nil if not found.
func (s *SQLiteUserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", email, err)
	}
	return u, nil
}

// UpsertUserByID implements UserStore.
func (s *SQLiteUserStore) UpsertUserByID(ctx context.Context, u *User) (*User, error) {
	if err := s.upsert(ctx, "id", u); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, u.ID)
}

// UpsertUserByEmail implements UserStore.
func (s *SQLiteUserStore) UpsertUserByEmail(ctx context.Context, u *User) (*User, error) {
	if err := s.upsert(ctx, "email", u); err != nil {
		return nil, err
	}
	return s.GetUserByEmail(ctx, u.Email)
}

func (s *SQLiteUserStore) upsert(ctx context.Context, key string, u *User) error {
	metaJSON, err := json.Marshal(u.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling user metadata: %w", err)
	}
	if u.Metadata == nil {
		metaJSON = []byte("{}")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	var id any
	if u.ID != 0 {
		id = u.ID
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, name, email, password, time_zone, email_verified,
		                   identity_provider, plan, theme, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(`+key+`) DO UPDATE SET
			email     = excluded.email,
			password  = excluded.password,
			time_zone = excluded.time_zone,
			metadata  = excluded.metadata`,
		id, u.Username, u.Name, u.Email, u.Password, u.TimeZone, u.EmailVerified,
		u.IdentityProvider, u.Plan, u.Theme, string(metaJSON), u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("upserting user %q: %w", u.Email, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("upserting user %q: %w", u.Email, err)
	}
	return nil
}

// ToggleAway implements UserStore.
func (s *SQLiteUserStore) ToggleAway(ctx context.Context, id int64) (bool, error) {
	var away bool
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET away = NOT away WHERE id = ? RETURNING away`, id,
	).Scan(&away)
	if err != nil {
		return false, fmt.Errorf("toggling away for user %d: %w", id, err)
	}
	return away, nil
}

// CreateVerificationToken implements VerificationTokenStore.
func (s *SQLiteUserStore) CreateVerificationToken(ctx context.Context, t VerificationToken) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verification_tokens (identifier, token, expires) VALUES (?, ?, ?)`,
		t.Identifier, t.Token, t.Expires.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating verification token for %q: %w", t.Identifier, err)
	}
	return nil
}

// GetVerificationToken returns the token with the given hash, or nil if not found.
func (s *SQLiteUserStore) GetVerificationToken(ctx context.Context, token string) (*VerificationToken, error) {
	var t VerificationToken
	err := s.db.QueryRowContext(ctx,
		`SELECT identifier, token, expires FROM verification_tokens WHERE token = ?`, token,
	).Scan(&t.Identifier, &t.Token, &t.Expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting verification token: %w", err)
	}
	return &t, nil
}

// DeleteExpiredVerificationTokens implements VerificationTokenStore.
func (s *SQLiteUserStore) DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM verification_tokens WHERE expires < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting expired verification tokens: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u        User
		verified sql.NullTime
		metaJSON string
	)
	if err := row.Scan(
		&u.ID, &u.Username, &u.Name, &u.Email, &u.Password, &u.TimeZone, &u.Away, &verified,
		&u.IdentityProvider, &u.Plan, &u.Theme, &metaJSON, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	if verified.Valid {
		t := verified.Time
		u.EmailVerified = &t
	}
	if err := json.Unmarshal([]byte(metaJSON), &u.Metadata); err != nil {
		return nil, fmt.Errorf("parsing metadata for user %d: %w", u.ID, err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

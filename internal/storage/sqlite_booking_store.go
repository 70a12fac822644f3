package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteBookingStore implements EventTypeStore and BookingStore backed by SQLite.
type SQLiteBookingStore struct {
	db *sql.DB
}

// NewSQLiteBookingStore returns a new SQLiteBookingStore.
func NewSQLiteBookingStore(db *sql.DB) *SQLiteBookingStore {
	return &SQLiteBookingStore{db: db}
}

// CreateEventType inserts et and sets its ID.
func (s *SQLiteBookingStore) CreateEventType(ctx context.Context, et *EventType) error {
	if et.CreatedAt.IsZero() {
		et.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO event_types (user_id, title, slug, length, event_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		et.UserID, et.Title, et.Slug, et.Length, et.EventName, et.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("creating event type %q: %w", et.Slug, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("creating event type %q: %w", et.Slug, err)
	}
	et.ID, err = res.LastInsertId()
	return err
}

// GetEventType returns the event type with the given id, or nil if not found.
func (s *SQLiteBookingStore) GetEventType(ctx context.Context, id int64) (*EventType, error) {
	var et EventType
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, slug, length, event_name, created_at
		FROM event_types WHERE id = ?`, id,
	).Scan(&et.ID, &et.UserID, &et.Title, &et.Slug, &et.Length, &et.EventName, &et.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting event type %d: %w", id, err)
	}
	return &et, nil
}

// ListEventTypes returns the event types of userID ordered by title.
func (s *SQLiteBookingStore) ListEventTypes(ctx context.Context, userID int64) ([]*EventType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, slug, length, event_name, created_at
		FROM event_types WHERE user_id = ?
		ORDER BY title ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing event types: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]*EventType, 0)
	for rows.Next() {
		var et EventType
		if err := rows.Scan(&et.ID, &et.UserID, &et.Title, &et.Slug, &et.Length, &et.EventName, &et.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event type row: %w", err)
		}
		out = append(out, &et)
	}
	return out, rows.Err()
}

// CreateBooking inserts b.
func (s *SQLiteBookingStore) CreateBooking(ctx context.Context, b *Booking) error {
	attendees, err := json.Marshal(b.Attendees)
	if err != nil {
		return fmt.Errorf("marshaling attendees: %w", err)
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = b.CreatedAt
	if b.Status == "" {
		b.Status = BookingStatusAccepted
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bookings (uid, user_id, event_type_id, title, description, additional_notes,
		                      start_time, end_time, attendees, location, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UID, b.UserID, b.EventTypeID, b.Title, b.Description, b.AdditionalNotes,
		b.StartTime.UTC(), b.EndTime.UTC(), string(attendees), b.Location, string(b.Status),
		b.CreatedAt, b.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("creating booking %q: %w", b.UID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("creating booking %q: %w", b.UID, err)
	}
	return nil
}

// GetBooking returns the booking with the given uid, or nil if not found.
func (s *SQLiteBookingStore) GetBooking(ctx context.Context, uid string) (*Booking, error) {
	var (
		b         Booking
		attendees string
		status    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT uid, user_id, event_type_id, title, description, additional_notes,
		       start_time, end_time, attendees, location, status, created_at, updated_at
		FROM bookings WHERE uid = ?`, uid,
	).Scan(&b.UID, &b.UserID, &b.EventTypeID, &b.Title, &b.Description, &b.AdditionalNotes,
		&b.StartTime, &b.EndTime, &attendees, &b.Location, &status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting booking %q: %w", uid, err)
	}
	b.Status = BookingStatus(status)
	if err := json.Unmarshal([]byte(attendees), &b.Attendees); err != nil {
		return nil, fmt.Errorf("parsing attendees for booking %q: %w", uid, err)
	}
	return &b, nil
}

// UpdateBooking implements BookingStore.
func (s *SQLiteBookingStore) UpdateBooking(ctx context.Context, b *Booking) error {
	b.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET start_time = ?, end_time = ?, status = ?, additional_notes = ?, updated_at = ?
		WHERE uid = ?`,
		b.StartTime.UTC(), b.EndTime.UTC(), string(b.Status), b.AdditionalNotes, b.UpdatedAt, b.UID,
	)
	if err != nil {
		return fmt.Errorf("updating booking %q: %w", b.UID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating booking %q: %w", b.UID, err)
	}
	if n == 0 {
		return fmt.Errorf("updating booking %q: %w", b.UID, sql.ErrNoRows)
	}
	return nil
}

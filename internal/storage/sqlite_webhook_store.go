package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

// SQLiteWebhookStore implements WebhookStore and DeliveryStore backed by SQLite.
type SQLiteWebhookStore struct {
	db *sql.DB
}

// NewSQLiteWebhookStore returns a new SQLiteWebhookStore.
func NewSQLiteWebhookStore(db *sql.DB) *SQLiteWebhookStore {
	return &SQLiteWebhookStore{db: db}
}

const webhookColumns = `id, subscriber_url, payload_template, secret, user_id, event_type_id,
	active, event_triggers, created_at`

// CreateWebhook inserts sub.
func (s *SQLiteWebhookStore) CreateWebhook(ctx context.Context, sub *webhook.Subscriber) error {
	triggers, err := json.Marshal(sub.EventTriggers)
	if err != nil {
		return fmt.Errorf("marshaling event triggers: %w", err)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO webhooks (`+webhookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.SubscriberURL, sub.PayloadTemplate, sub.Secret, sub.UserID, sub.EventTypeID,
		sub.Active, string(triggers), sub.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("creating webhook %q: %w", sub.ID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("creating webhook %q: %w", sub.ID, err)
	}
	return nil
}

// GetWebhook returns the subscriber with the given id, or nil if not found.
func (s *SQLiteWebhookStore) GetWebhook(ctx context.Context, id string) (*webhook.Subscriber, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE id = ?`, id)
	sub, err := scanWebhook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting webhook %q: %w", id, err)
	}
	return sub, nil
}

// ListWebhooks returns every subscriber in creation order.
func (s *SQLiteWebhookStore) ListWebhooks(ctx context.Context) ([]webhook.Subscriber, error) {
	return s.query(ctx, `SELECT `+webhookColumns+` FROM webhooks ORDER BY created_at ASC, id ASC`)
}

// ListSubscribersFor returns the subscribers that apply to userID and
// eventTypeID in creation order. A zero owner field on a subscriber matches
// any value; a set one must equal the query.
func (s *SQLiteWebhookStore) ListSubscribersFor(ctx context.Context, userID, eventTypeID int64) ([]webhook.Subscriber, error) {
	return s.query(ctx, `
		SELECT `+webhookColumns+` FROM webhooks
		WHERE (user_id = 0 OR user_id = ?)
		  AND (event_type_id = 0 OR event_type_id = ?)
		ORDER BY created_at ASC, id ASC`, userID, eventTypeID)
}

// DeleteWebhook implements WebhookStore.
func (s *SQLiteWebhookStore) DeleteWebhook(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting webhook %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting webhook %q: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteWebhookStore) query(ctx context.Context, query string, args ...any) ([]webhook.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	subs := make([]webhook.Subscriber, 0)
	for rows.Next() {
		sub, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func scanWebhook(row rowScanner) (*webhook.Subscriber, error) {
	var (
		sub      webhook.Subscriber
		triggers string
	)
	if err := row.Scan(
		&sub.ID, &sub.SubscriberURL, &sub.PayloadTemplate, &sub.Secret, &sub.UserID, &sub.EventTypeID,
		&sub.Active, &triggers, &sub.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(triggers), &sub.EventTriggers); err != nil {
		return nil, fmt.Errorf("parsing event triggers for webhook %q: %w", sub.ID, err)
	}
	return &sub, nil
}

// LogDelivery inserts a delivery log entry.
func (s *SQLiteWebhookStore) LogDelivery(ctx context.Context, entry DeliveryLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (subscriber_id, trigger_event, ok, status_code, message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SubscriberID, string(entry.TriggerEvent), entry.OK, entry.Status,
		entry.Message, entry.DurationMS, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting delivery log: %w", err)
	}
	return nil
}

// ListDeliveries returns the most recent log entries ordered by created_at descending.
func (s *SQLiteWebhookStore) ListDeliveries(ctx context.Context, limit int) ([]DeliveryLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subscriber_id, trigger_event, ok, status_code, message, duration_ms, created_at
		FROM webhook_deliveries
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying delivery log: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]DeliveryLogEntry, 0)
	for rows.Next() {
		var (
			e       DeliveryLogEntry
			trigger string
			status  sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.SubscriberID, &trigger, &e.OK, &status,
			&e.Message, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning delivery log row: %w", err)
		}
		e.TriggerEvent = webhook.TriggerEvent(trigger)
		if status.Valid {
			code := int(status.Int64)
			e.Status = &code
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery log rows: %w", err)
	}
	return entries, nil
}

// PruneDeliveries implements DeliveryStore.
func (s *SQLiteWebhookStore) PruneDeliveries(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM webhook_deliveries WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning delivery log: %w", err)
	}
	return res.RowsAffected()
}

package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// =============================================================================
// ACTIVITY LOG + DELIVERIES (append-only)
// =============================================================================

// LogActivity inserts an activity log entry.
func (s *Store) LogActivity(ctx context.Context, eventType, message, details string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO activity_log (id, event_type, message, details)
		VALUES ($1, $2, $3, $4)
	`, uuid.New().String(), eventType, message, details)
	return err
}

// ListActivity returns the most recent activity entries, newest first.
func (s *Store) ListActivity(ctx context.Context, limit int) ([]types.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_type, message, details, created_at
		FROM activity_log ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []types.ActivityLogEntry
	for rows.Next() {
		var e types.ActivityLogEntry
		if err := rows.Scan(&e.ID, &e.EventType, &e.Message, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LogDelivery appends one delivery attempt record.
func (s *Store) LogDelivery(ctx context.Context, alertID, channelID string, status types.DeliveryStatus, errorMessage string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO alert_deliveries (id, alert_id, channel_id, status, error_message)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), alertID, channelID, status, errorMessage)
	return err
}

// ListDeliveries returns delivery attempts for an alert, oldest first.
func (s *Store) ListDeliveries(ctx context.Context, alertID string) ([]types.Delivery, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, alert_id, channel_id, status, error_message, sent_at
		FROM alert_deliveries WHERE alert_id = $1 ORDER BY sent_at
	`, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []types.Delivery
	for rows.Next() {
		var d types.Delivery
		if err := rows.Scan(&d.ID, &d.AlertID, &d.ChannelID, &d.Status, &d.ErrorMessage, &d.SentAt); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

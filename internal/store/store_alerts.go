package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// ErrDuplicateAlert is returned when an alert for the same
// (bmkg_alert_code, matched_location_id) pair already exists. The unique
// constraint is the final gate for the dedup protocol; a racing insert
// surfaces here and callers treat it as "already handled".
var ErrDuplicateAlert = errors.New("alert already exists for code and location")

const alertColumns = `
	id, bmkg_alert_code, event, severity, urgency, certainty, headline,
	description, effective, expires, infographic_url, polygon_data,
	matched_location_id, match_type, matched_text, status, expired_notified,
	created_at`

// CreateAlert inserts a matched warning as a new active alert.
// The warning areas are serialized into polygon_data at insert time.
func (s *Store) CreateAlert(ctx context.Context, warning types.Warning, match types.Match, alertCode string) (*types.Alert, error) {
	polygonData, err := json.Marshal(warning.Areas)
	if err != nil {
		polygonData = []byte("[]")
	}

	alert := &types.Alert{
		ID:                uuid.New().String(),
		BMKGAlertCode:     alertCode,
		Event:             warning.Event,
		Severity:          warning.Severity,
		Urgency:           warning.Urgency,
		Certainty:         warning.Certainty,
		Headline:          warning.Headline,
		Description:       warning.Description,
		Effective:         warning.Effective,
		Expires:           warning.Expires,
		InfographicURL:    warning.InfographicURL,
		PolygonData:       polygonData,
		MatchedLocationID: match.Location.ID,
		MatchType:         match.MatchType,
		MatchedText:       match.MatchedText,
		Status:            types.AlertStatusActive,
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO alerts (
			id, bmkg_alert_code, event, severity, urgency, certainty, headline,
			description, effective, expires, infographic_url, polygon_data,
			matched_location_id, match_type, matched_text, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at
	`,
		alert.ID, alert.BMKGAlertCode, alert.Event, alert.Severity, alert.Urgency,
		alert.Certainty, alert.Headline, alert.Description, alert.Effective,
		alert.Expires, alert.InfographicURL, alert.PolygonData,
		alert.MatchedLocationID, alert.MatchType, alert.MatchedText, alert.Status,
	).Scan(&alert.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateAlert
	}
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	return alert, nil
}

// AlertExists reports whether any alert row exists for the code + location
// pair, regardless of status. Re-issuing an upstream code for the same
// location counts as duplicate even after expiry, which prevents
// re-notification when the upstream republishes.
func (s *Store) AlertExists(ctx context.Context, alertCode, locationID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM alerts WHERE bmkg_alert_code = $1 AND matched_location_id = $2
		)
	`, alertCode, locationID).Scan(&exists)
	return exists, err
}

// GetAlert retrieves an alert by ID with the location label joined in.
// Returns (nil, nil) when not found.
func (s *Store) GetAlert(ctx context.Context, id string) (*types.Alert, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT a.id, a.bmkg_alert_code, a.event, a.severity, a.urgency, a.certainty,
			a.headline, a.description, a.effective, a.expires, a.infographic_url,
			a.polygon_data, a.matched_location_id, a.match_type, a.matched_text,
			a.status, a.expired_notified, a.created_at,
			l.label
		FROM alerts a
		LEFT JOIN locations l ON a.matched_location_id = l.id
		WHERE a.id = $1
	`, id)

	alert, err := scanAlertWithLabel(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// ListAlerts returns alerts matching the filter, newest first.
func (s *Store) ListAlerts(ctx context.Context, filter types.AlertFilter) ([]types.Alert, error) {
	where := "1=1"
	args := []any{}
	argNum := 1

	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
		argNum++
	}
	if filter.Severity != nil {
		where += fmt.Sprintf(" AND severity = $%d", argNum)
		args = append(args, *filter.Severity)
		argNum++
	}
	if filter.LocationID != nil {
		where += fmt.Sprintf(" AND matched_location_id = $%d", argNum)
		args = append(args, *filter.LocationID)
		argNum++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT `+alertColumns+` FROM alerts
		WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d
	`, where, argNum, argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

// nowUTC is a seam for tests that need deterministic expiry comparisons.
var nowUTC = func() time.Time { return time.Now().UTC() }

// MarkExpiredAlerts transitions active alerts whose expires timestamp has
// passed to status=expired, in one transaction, and returns the pre-transition
// snapshot. A second consecutive call returns an empty slice.
//
// The expires column holds the upstream's ISO-8601 string; comparing it
// lexically against an ISO UTC "now" matches the upstream's own format.
func (s *Store) MarkExpiredAlerts(ctx context.Context) ([]types.Alert, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := nowUTC().Format(time.RFC3339)
	rows, err := tx.Query(ctx, `
		SELECT `+alertColumns+` FROM alerts
		WHERE status = $1 AND expires != '' AND expires < $2
		ORDER BY created_at
		FOR UPDATE
	`, types.AlertStatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("select expiring alerts: %w", err)
	}

	var expired []types.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, *alert)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, alert := range expired {
		if _, err := tx.Exec(ctx, `
			UPDATE alerts SET status = $2 WHERE id = $1
		`, alert.ID, types.AlertStatusExpired); err != nil {
			return nil, fmt.Errorf("expire alert %s: %w", alert.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit expiry sweep: %w", err)
	}
	return expired, nil
}

// MarkAlertExpiryNotified flips expired_notified after the all-clear message
// went out. Set exactly once per alert.
func (s *Store) MarkAlertExpiryNotified(ctx context.Context, alertID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE alerts SET expired_notified = true WHERE id = $1 AND NOT expired_notified
	`, alertID)
	return err
}

// GetAlertStats returns the dashboard counters.
func (s *Store) GetAlertStats(ctx context.Context) (*types.AlertStats, error) {
	var stats types.AlertStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM alerts),
			(SELECT COUNT(*) FROM alerts WHERE status = 'active'),
			(SELECT COUNT(*) FROM alerts WHERE created_at >= date_trunc('month', NOW())),
			(SELECT COUNT(*) FROM locations),
			(SELECT COUNT(*) FROM notification_channels WHERE enabled = true)
	`).Scan(
		&stats.TotalAlerts, &stats.ActiveAlerts, &stats.AlertsThisMonth,
		&stats.MonitoredLocations, &stats.ActiveChannels,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func scanAlert(row pgx.Row) (*types.Alert, error) {
	var alert types.Alert
	err := row.Scan(
		&alert.ID, &alert.BMKGAlertCode, &alert.Event, &alert.Severity,
		&alert.Urgency, &alert.Certainty, &alert.Headline, &alert.Description,
		&alert.Effective, &alert.Expires, &alert.InfographicURL, &alert.PolygonData,
		&alert.MatchedLocationID, &alert.MatchType, &alert.MatchedText,
		&alert.Status, &alert.ExpiredNotified, &alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func scanAlertWithLabel(row pgx.Row) (*types.Alert, error) {
	var alert types.Alert
	var label *string
	err := row.Scan(
		&alert.ID, &alert.BMKGAlertCode, &alert.Event, &alert.Severity,
		&alert.Urgency, &alert.Certainty, &alert.Headline, &alert.Description,
		&alert.Effective, &alert.Expires, &alert.InfographicURL, &alert.PolygonData,
		&alert.MatchedLocationID, &alert.MatchType, &alert.MatchedText,
		&alert.Status, &alert.ExpiredNotified, &alert.CreatedAt,
		&label,
	)
	if err != nil {
		return nil, err
	}
	if label != nil {
		alert.LocationLabel = *label
	}
	return &alert, nil
}

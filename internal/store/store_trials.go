package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

const trialColumns = `
	id, telegram_chat_id, subdistrict_code, subdistrict_name, district_name,
	province_name, severity_threshold, registered_at, expires_at,
	expired_notified, ip_address`

// CreateTrial inserts a new trial subscription.
func (s *Store) CreateTrial(ctx context.Context, trial *types.TrialSubscription) error {
	if trial.ID == "" {
		trial.ID = uuid.New().String()
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO trial_subscriptions (
			id, telegram_chat_id, subdistrict_code, subdistrict_name,
			district_name, province_name, severity_threshold, expires_at, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING registered_at
	`,
		trial.ID, trial.TelegramChatID, trial.SubdistrictCode, trial.SubdistrictName,
		trial.DistrictName, trial.ProvinceName, trial.SeverityThreshold,
		trial.ExpiresAt, trial.IPAddress,
	).Scan(&trial.RegisteredAt)
	if err != nil {
		return fmt.Errorf("insert trial: %w", err)
	}
	return nil
}

// GetTrial retrieves a trial by ID. Returns (nil, nil) when not found.
func (s *Store) GetTrial(ctx context.Context, id string) (*types.TrialSubscription, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+trialColumns+` FROM trial_subscriptions WHERE id = $1`, id)
	trial, err := scanTrial(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return trial, nil
}

// GetActiveTrialByChatID returns the most recent active trial for a Telegram
// chat ID, or (nil, nil). At most one active trial per chat is allowed at
// registration time.
func (s *Store) GetActiveTrialByChatID(ctx context.Context, chatID string) (*types.TrialSubscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+trialColumns+` FROM trial_subscriptions
		WHERE telegram_chat_id = $1 AND expires_at > NOW()
		ORDER BY registered_at DESC LIMIT 1
	`, chatID)
	trial, err := scanTrial(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return trial, nil
}

// ListActiveTrials returns all trials whose expiry is in the future.
func (s *Store) ListActiveTrials(ctx context.Context) ([]types.TrialSubscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+trialColumns+` FROM trial_subscriptions
		WHERE expires_at > NOW() ORDER BY registered_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTrials(rows)
}

// CountActiveTrials returns the number of currently active trials.
func (s *Store) CountActiveTrials(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM trial_subscriptions WHERE expires_at > NOW()
	`).Scan(&n)
	return n, err
}

// CountTrialRegistrationsByIP counts registrations from one source IP inside
// the rolling window. Used to cap trial signups per IP per hour.
func (s *Store) CountTrialRegistrationsByIP(ctx context.Context, ip string, window time.Duration) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM trial_subscriptions
		WHERE ip_address = $1 AND registered_at > NOW() - $2::interval
	`, ip, window.String()).Scan(&n)
	return n, err
}

// ExpireTrialsPending finds trials past expiry that have not been notified,
// atomically flips expired_notified, and returns the pre-transition snapshot.
// Idempotent: a second consecutive call returns an empty slice.
func (s *Store) ExpireTrialsPending(ctx context.Context) ([]types.TrialSubscription, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT `+trialColumns+` FROM trial_subscriptions
		WHERE expires_at <= NOW() AND NOT expired_notified
		ORDER BY expires_at
		FOR UPDATE
	`)
	if err != nil {
		return nil, fmt.Errorf("select expiring trials: %w", err)
	}

	expired, err := collectTrialsFromTx(rows)
	if err != nil {
		return nil, err
	}

	for _, trial := range expired {
		if _, err := tx.Exec(ctx, `
			UPDATE trial_subscriptions SET expired_notified = true WHERE id = $1
		`, trial.ID); err != nil {
			return nil, fmt.Errorf("mark trial %s notified: %w", trial.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit trial expiry: %w", err)
	}
	return expired, nil
}

// CancelTrial expires a trial immediately. Returns false when no such trial.
func (s *Store) CancelTrial(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trial_subscriptions SET expires_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanTrial(row pgx.Row) (*types.TrialSubscription, error) {
	var trial types.TrialSubscription
	var district, province, ip *string
	err := row.Scan(
		&trial.ID, &trial.TelegramChatID, &trial.SubdistrictCode, &trial.SubdistrictName,
		&district, &province, &trial.SeverityThreshold,
		&trial.RegisteredAt, &trial.ExpiresAt, &trial.ExpiredNotified, &ip,
	)
	if err != nil {
		return nil, err
	}
	if district != nil {
		trial.DistrictName = *district
	}
	if province != nil {
		trial.ProvinceName = *province
	}
	if ip != nil {
		trial.IPAddress = *ip
	}
	return &trial, nil
}

func collectTrials(rows pgx.Rows) ([]types.TrialSubscription, error) {
	var trials []types.TrialSubscription
	for rows.Next() {
		trial, err := scanTrial(rows)
		if err != nil {
			return nil, err
		}
		trials = append(trials, *trial)
	}
	return trials, rows.Err()
}

func collectTrialsFromTx(rows pgx.Rows) ([]types.TrialSubscription, error) {
	defer rows.Close()
	trials, err := collectTrials(rows)
	if err != nil {
		return nil, err
	}
	return trials, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

const channelColumns = `
	id, channel_type, enabled, config, last_success_at, last_error,
	created_at, updated_at`

// CreateChannel inserts a new notification channel. Config is stored as-is;
// senders validate the schema at dispatch time.
func (s *Store) CreateChannel(ctx context.Context, ch *types.NotificationChannel) error {
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}
	if len(ch.Config) == 0 {
		ch.Config = json.RawMessage("{}")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_channels (id, channel_type, enabled, config)
		VALUES ($1, $2, $3, $4)
	`, ch.ID, ch.ChannelType, ch.Enabled, ch.Config)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

// GetChannel retrieves a channel by ID. Returns (nil, nil) when not found.
func (s *Store) GetChannel(ctx context.Context, id string) (*types.NotificationChannel, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+channelColumns+` FROM notification_channels WHERE id = $1`, id)
	ch, err := scanChannel(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// ListChannels returns all channels in creation order.
func (s *Store) ListChannels(ctx context.Context) ([]types.NotificationChannel, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+channelColumns+` FROM notification_channels ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectChannels(rows)
}

// ListEnabledChannels returns channels with enabled=true in creation order.
// The dispatcher processes channels in this order.
func (s *Store) ListEnabledChannels(ctx context.Context) ([]types.NotificationChannel, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+channelColumns+` FROM notification_channels WHERE enabled = true ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectChannels(rows)
}

// UpdateChannel updates the mutable fields of a channel.
func (s *Store) UpdateChannel(ctx context.Context, id string, enabled *bool, config json.RawMessage) (*types.NotificationChannel, error) {
	_, err := s.pool.Exec(ctx, `
		UPDATE notification_channels
		SET enabled = COALESCE($2, enabled),
			config = COALESCE($3, config),
			updated_at = NOW()
		WHERE id = $1
	`, id, enabled, config)
	if err != nil {
		return nil, fmt.Errorf("update channel: %w", err)
	}
	return s.GetChannel(ctx, id)
}

// DeleteChannel removes a channel. Delivery rows keep their channel_id.
func (s *Store) DeleteChannel(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notification_channels WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecordChannelSuccess stamps last_success_at and clears last_error.
func (s *Store) RecordChannelSuccess(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notification_channels
		SET last_success_at = NOW(), last_error = '', updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

// RecordChannelError stores the most recent delivery error on the channel row.
func (s *Store) RecordChannelError(ctx context.Context, id, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notification_channels SET last_error = $2, updated_at = NOW() WHERE id = $1
	`, id, errMsg)
	return err
}

func scanChannel(row pgx.Row) (*types.NotificationChannel, error) {
	var ch types.NotificationChannel
	var lastError *string
	err := row.Scan(
		&ch.ID, &ch.ChannelType, &ch.Enabled, &ch.Config,
		&ch.LastSuccessAt, &lastError, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastError != nil {
		ch.LastError = *lastError
	}
	return &ch, nil
}

func collectChannels(rows pgx.Rows) ([]types.NotificationChannel, error) {
	var channels []types.NotificationChannel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

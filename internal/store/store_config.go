package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DefaultConfig holds the runtime tunables seeded on first migration and
// restored by ResetConfig. Values are strings; callers parse as needed.
var DefaultConfig = map[string]string{
	"poll_interval":               "300",
	"severity_threshold":          "all",
	"quiet_hours_enabled":         "false",
	"quiet_hours_start":           "22:00",
	"quiet_hours_end":             "06:00",
	"quiet_hours_override_severe": "true",
	"quiet_hours_utc_offset":      "7",
	"notification_language":       "id",
	"setup_completed":             "false",
}

// GetConfigValue reads a single config value, returning defaultVal when the
// key is absent.
func (s *Store) GetConfigValue(ctx context.Context, key, defaultVal string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM config WHERE key = $1`, key).Scan(&value)
	if err == pgx.ErrNoRows {
		return defaultVal, nil
	}
	if err != nil {
		return defaultVal, err
	}
	return value, nil
}

// GetAllConfig returns the full config table as a map.
func (s *Store) GetAllConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM config ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		config[key] = value
	}
	return config, rows.Err()
}

// SetConfigValue upserts a single config key.
func (s *Store) SetConfigValue(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	return nil
}

// SetConfigValues upserts a batch of config keys in one transaction.
func (s *Store) SetConfigValues(ctx context.Context, values map[string]string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for key, value := range values {
		if _, err := tx.Exec(ctx, `
			INSERT INTO config (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		`, key, value); err != nil {
			return fmt.Errorf("set config %s: %w", key, err)
		}
	}
	return tx.Commit(ctx)
}

// ResetConfig restores every known key to its default value.
func (s *Store) ResetConfig(ctx context.Context) error {
	return s.SetConfigValues(ctx, DefaultConfig)
}

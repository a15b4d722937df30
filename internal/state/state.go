// Package state is the engine's gateway to persistent state.
//
// The Manager wraps the store with the operations the poll cycle needs: enabled
// locations and channels, the alert dedup protocol, expiry sweeps, delivery
// and activity logging, config reads, and the trial lifecycle. The engine and
// the dispatcher never touch the store directly.
//
// Dedup protocol: read (IsDuplicate) then write (StoreAlert), with the unique
// constraint on (bmkg_alert_code, matched_location_id) as the final gate. A
// racing insert surfaces as store.ErrDuplicateAlert which callers treat as
// "already handled".
package state

import (
	"context"
	"log/slog"

	"github.com/dhanyyudi/bmkg-alert/internal/store"
	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// Manager mediates engine access to the store.
type Manager struct {
	store  *store.Store
	logger *slog.Logger
}

// NewManager creates a state manager.
func NewManager(st *store.Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:  st,
		logger: logger.With("component", "state"),
	}
}

// =============================================================================
// LOCATIONS AND CHANNELS
// =============================================================================

// EnabledLocations returns all locations with enabled=true.
func (m *Manager) EnabledLocations(ctx context.Context) ([]types.Location, error) {
	return m.store.ListEnabledLocations(ctx)
}

// EnabledChannels returns all notification channels with enabled=true.
func (m *Manager) EnabledChannels(ctx context.Context) ([]types.NotificationChannel, error) {
	return m.store.ListEnabledChannels(ctx)
}

// =============================================================================
// ALERTS
// =============================================================================

// IsDuplicate reports whether an alert row exists for the pair, regardless of
// status. A republished upstream code never re-notifies the same location.
func (m *Manager) IsDuplicate(ctx context.Context, alertCode, locationID string) (bool, error) {
	return m.store.AlertExists(ctx, alertCode, locationID)
}

// StoreAlert inserts a new active alert for a match. Returns
// store.ErrDuplicateAlert when the dedup pair already exists.
func (m *Manager) StoreAlert(ctx context.Context, warning types.Warning, match types.Match, alertCode string) (*types.Alert, error) {
	alert, err := m.store.CreateAlert(ctx, warning, match, alertCode)
	if err != nil {
		return nil, err
	}
	m.logger.Info("alert stored",
		"alert_id", alert.ID,
		"code", alertCode,
		"location_id", match.Location.ID,
		"match_type", match.MatchType,
		"severity", warning.Severity,
	)
	return alert, nil
}

// MarkExpiredAlerts transitions every active alert whose expires timestamp has
// passed to expired and returns the pre-transition snapshot. Idempotent: a
// second consecutive call returns empty.
func (m *Manager) MarkExpiredAlerts(ctx context.Context) ([]types.Alert, error) {
	expired, err := m.store.MarkExpiredAlerts(ctx)
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		m.logger.Info("alerts expired", "count", len(expired))
	}
	return expired, nil
}

// MarkAlertExpiryNotified flips expired_notified after the all-clear notice
// went out.
func (m *Manager) MarkAlertExpiryNotified(ctx context.Context, alertID string) error {
	return m.store.MarkAlertExpiryNotified(ctx, alertID)
}

// =============================================================================
// LOGGING
// =============================================================================

// LogDelivery appends one delivery row for a dispatch attempt.
func (m *Manager) LogDelivery(ctx context.Context, alertID, channelID string, status types.DeliveryStatus, errorMessage string) error {
	return m.store.LogDelivery(ctx, alertID, channelID, status, errorMessage)
}

// LogActivity appends an operational event to the activity log.
// Failures are logged and swallowed; the activity log never blocks a cycle.
func (m *Manager) LogActivity(ctx context.Context, eventType, message, details string) {
	if err := m.store.LogActivity(ctx, eventType, message, details); err != nil {
		m.logger.Warn("activity log write failed", "event_type", eventType, "error", err)
	}
}

// RecordChannelSuccess stamps last_success_at and clears last_error.
func (m *Manager) RecordChannelSuccess(ctx context.Context, channelID string) error {
	return m.store.RecordChannelSuccess(ctx, channelID)
}

// RecordChannelError stores the latest delivery error on the channel row.
func (m *Manager) RecordChannelError(ctx context.Context, channelID, errMsg string) error {
	return m.store.RecordChannelError(ctx, channelID, errMsg)
}

// =============================================================================
// CONFIG
// =============================================================================

// ConfigValue returns the runtime config value for key, or the built-in
// default when the key is absent.
func (m *Manager) ConfigValue(ctx context.Context, key string) (string, error) {
	return m.store.GetConfigValue(ctx, key, store.DefaultConfig[key])
}

// =============================================================================
// TRIALS
// =============================================================================

// ActiveTrials returns trials with expires_at in the future.
func (m *Manager) ActiveTrials(ctx context.Context) ([]types.TrialSubscription, error) {
	return m.store.ListActiveTrials(ctx)
}

// ExpireTrials atomically flips expired_notified on every trial past its
// expires_at and returns the pre-transition snapshot. Idempotent.
func (m *Manager) ExpireTrials(ctx context.Context) ([]types.TrialSubscription, error) {
	expired, err := m.store.ExpireTrialsPending(ctx)
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		m.logger.Info("trials expired", "count", len(expired))
	}
	return expired, nil
}

// Package config loads static service configuration and centralizes the
// constants shared across components. Runtime tunables (poll interval, quiet
// hours) live in the config database table, not here.
package config

import "time"

// Polling defaults.
const (
	// DefaultPollInterval is used when the poll_interval config key is
	// absent or unparseable.
	DefaultPollInterval = 5 * time.Minute

	// DetailCacheTTL bounds how long a fetched nowcast detail stays
	// reusable across cycles.
	DetailCacheTTL = 10 * time.Minute
)

// Upstream client settings.
const (
	// UpstreamTimeout is the per-request timeout against the nowcast API.
	UpstreamTimeout = 30 * time.Second

	// UpstreamRateLimit caps requests per minute against the nowcast feed.
	UpstreamRateLimit = 60
)

// Notification delivery.
const (
	// SenderTimeout bounds one delivery attempt on any channel.
	SenderTimeout = 15 * time.Second
)

// Trial lifecycle.
const (
	// TrialDuration is how long a trial subscription stays active.
	TrialDuration = 24 * time.Hour

	// TrialIPRateWindow is the rolling window for per-IP registration caps.
	TrialIPRateWindow = time.Hour

	// TrialIPRateLimit is the maximum registrations per source IP within
	// TrialIPRateWindow.
	TrialIPRateLimit = 5
)

// Pagination defaults for API list endpoints.
const (
	// DefaultPaginationLimit is the default number of items returned when
	// no limit is specified.
	DefaultPaginationLimit = 50

	// MaxActivityLimit caps the activity log listing.
	MaxActivityLimit = 200
)

// Server timeouts.
const (
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerShutdownTimeout = 10 * time.Second
)

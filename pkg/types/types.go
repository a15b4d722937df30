// Package types contains the shared domain types for the BMKG alert engine.
//
// The engine polls the BMKG nowcast API, matches warnings against monitored
// locations, stores matched alerts, and fans them out to notification
// channels. These types are shared between the store, the engine, the
// dispatcher, and the HTTP API.
package types

import (
	"encoding/json"
	"strings"
	"time"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is the BMKG warning severity level.
type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
	SeverityExtreme  Severity = "Extreme"
)

// Level returns the numeric ordering of a severity for threshold comparisons.
// Unknown severities map to the lowest level.
func (s Severity) Level() int {
	switch s {
	case SeverityMinor:
		return 0
	case SeverityModerate:
		return 1
	case SeveritySevere:
		return 2
	case SeverityExtreme:
		return 3
	default:
		return 0
	}
}

// ParseSeverity normalizes a severity string case-insensitively.
// The trial threshold value "all" is not a severity; callers handle it
// before parsing.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "minor":
		return SeverityMinor
	case "moderate":
		return SeverityModerate
	case "severe":
		return SeveritySevere
	case "extreme":
		return SeverityExtreme
	default:
		return Severity(s)
	}
}

// =============================================================================
// LOCATIONS
// =============================================================================

// Location is a monitored administrative area. Matching uses the subdistrict
// (kecamatan) name against the warning description, falling back to the
// district (kabupaten) name against the warning area names.
type Location struct {
	ID              string   `json:"id"`
	Label           string   `json:"label,omitempty"`
	ProvinceCode    string   `json:"province_code"`
	ProvinceName    string   `json:"province_name"`
	DistrictCode    string   `json:"district_code"`
	DistrictName    string   `json:"district_name"`
	SubdistrictCode string   `json:"subdistrict_code"`
	SubdistrictName string   `json:"subdistrict_name"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	Enabled         bool     `json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayLabel returns the admin-facing name for the location.
func (l Location) DisplayLabel() string {
	if l.Label != "" {
		return l.Label
	}
	return l.SubdistrictName
}

// Match is the result of matching one warning against one location.
type Match struct {
	Location    Location  `json:"location"`
	MatchType   MatchType `json:"match_type"`
	MatchedText string    `json:"matched_text"`
}

// MatchType records which matching rule fired.
type MatchType string

const (
	// MatchKecamatan - subdistrict name found in the warning description.
	MatchKecamatan MatchType = "kecamatan"
	// MatchKabupaten - district name found in a warning area name.
	MatchKabupaten MatchType = "kabupaten"
)

// =============================================================================
// ALERTS
// =============================================================================

// AlertStatus is the lifecycle state of a stored alert.
// Status only advances: active -> expired (or cancelled), never back.
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusExpired   AlertStatus = "expired"
	AlertStatusCancelled AlertStatus = "cancelled"
)

// Alert is a matched warning persisted for dedup and delivery tracking.
// The pair (BMKGAlertCode, MatchedLocationID) is unique across all statuses:
// a republished upstream code never re-notifies the same location.
type Alert struct {
	ID            string `json:"id"`
	BMKGAlertCode string `json:"bmkg_alert_code"`

	Event          string   `json:"event"`
	Severity       Severity `json:"severity"`
	Urgency        string   `json:"urgency,omitempty"`
	Certainty      string   `json:"certainty,omitempty"`
	Headline       string   `json:"headline,omitempty"`
	Description    string   `json:"description,omitempty"`
	Effective      string   `json:"effective,omitempty"`
	Expires        string   `json:"expires,omitempty"`
	InfographicURL string   `json:"infographic_url,omitempty"`

	// PolygonData is the serialized warning area list (name + polygon),
	// kept opaque for map rendering on the admin UI.
	PolygonData json.RawMessage `json:"polygon_data,omitempty"`

	MatchedLocationID string    `json:"matched_location_id"`
	MatchType         MatchType `json:"match_type"`
	MatchedText       string    `json:"matched_text"`

	Status          AlertStatus `json:"status"`
	ExpiredNotified bool        `json:"expired_notified"`
	CreatedAt       time.Time   `json:"created_at"`

	// Populated by joins for API responses.
	LocationLabel string `json:"location_label,omitempty"`
}

// AlertFilter narrows alert list queries.
type AlertFilter struct {
	Status     *AlertStatus
	Severity   *Severity
	LocationID *string
	Limit      int
	Offset     int
}

// AlertStats are the dashboard counters.
type AlertStats struct {
	TotalAlerts        int `json:"total_alerts"`
	ActiveAlerts       int `json:"active_alerts"`
	AlertsThisMonth    int `json:"alerts_this_month"`
	MonitoredLocations int `json:"monitored_locations"`
	ActiveChannels     int `json:"active_channels"`
}

// =============================================================================
// DELIVERIES
// =============================================================================

// DeliveryStatus is the outcome of one dispatch attempt.
type DeliveryStatus string

const (
	DeliverySent              DeliveryStatus = "sent"
	DeliveryFailed            DeliveryStatus = "failed"
	DeliverySkippedQuietHours DeliveryStatus = "skipped_quiet_hours"
	DeliverySkippedSeverity   DeliveryStatus = "skipped_severity"
)

// Delivery is an append-only record of a dispatch attempt for one
// alert x channel pair.
type Delivery struct {
	ID           string         `json:"id"`
	AlertID      string         `json:"alert_id"`
	ChannelID    string         `json:"channel_id"`
	Status       DeliveryStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	SentAt       time.Time      `json:"sent_at"`
}

// =============================================================================
// NOTIFICATION CHANNELS
// =============================================================================

// ChannelType selects the sender implementation for a channel.
type ChannelType string

const (
	ChannelTelegram ChannelType = "telegram"
	ChannelDiscord  ChannelType = "discord"
	ChannelSlack    ChannelType = "slack"
	ChannelEmail    ChannelType = "email"
	ChannelWebhook  ChannelType = "webhook"
)

// NotificationChannel is an admin-managed delivery target. Config is an
// opaque JSON object whose schema depends on ChannelType; the sender decodes
// and validates it at entry.
type NotificationChannel struct {
	ID          string          `json:"id"`
	ChannelType ChannelType     `json:"channel_type"`
	Enabled     bool            `json:"enabled"`
	Config      json.RawMessage `json:"config"`

	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// TRIAL SUBSCRIPTIONS
// =============================================================================

// TrialSubscription is a time-bounded Telegram subscription keyed by chat ID,
// matched independently of persistent locations.
type TrialSubscription struct {
	ID                string    `json:"id"`
	TelegramChatID    string    `json:"telegram_chat_id"`
	SubdistrictCode   string    `json:"subdistrict_code"`
	SubdistrictName   string    `json:"subdistrict_name"`
	DistrictName      string    `json:"district_name,omitempty"`
	ProvinceName      string    `json:"province_name,omitempty"`
	SeverityThreshold string    `json:"severity_threshold"` // severity name or "all"
	RegisteredAt      time.Time `json:"registered_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	ExpiredNotified   bool      `json:"expired_notified"`
	IPAddress         string    `json:"ip_address,omitempty"`
}

// =============================================================================
// ACTIVITY LOG
// =============================================================================

// ActivityLogEntry is an append-only operational event. The engine writes
// them; nothing in the engine reads them back.
type ActivityLogEntry struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

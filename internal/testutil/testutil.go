// Package testutil provides testing utilities and fixtures.
//
// Fixtures use functional options for customization:
//
//	loc := testutil.FixtureLocation()
//	loc := testutil.FixtureLocation(func(l *types.Location) {
//		l.SubdistrictName = "Mirit"
//		l.Enabled = false
//	})
package testutil

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// NewTestLogger returns a logger that discards all output.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// LOCATION FIXTURES
// =============================================================================

// FixtureLocation creates a monitored location with sensible defaults.
// Use overrides to customize specific fields.
func FixtureLocation(overrides ...func(*types.Location)) types.Location {
	location := types.Location{
		ID:              uuid.New().String(),
		ProvinceCode:    "33",
		ProvinceName:    "Jawa Tengah",
		DistrictCode:    "33.05",
		DistrictName:    "Kebumen",
		SubdistrictCode: "33.05.01",
		SubdistrictName: "Alian",
		Enabled:         true,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	for _, override := range overrides {
		override(&location)
	}

	return location
}

// =============================================================================
// WARNING FIXTURES
// =============================================================================

// FixtureWarning creates a nowcast warning with sensible defaults.
func FixtureWarning(overrides ...func(*types.Warning)) types.Warning {
	warning := types.Warning{
		Event:       "Hujan Lebat",
		Severity:    types.SeverityModerate,
		Urgency:     "Immediate",
		Certainty:   "Likely",
		Effective:   "2026-01-15T10:00:00+07:00",
		Expires:     "2026-01-15T12:00:00+07:00",
		Headline:    "Peringatan Dini Cuaca Jawa Tengah",
		Description: "Hujan sedang hingga lebat di Alian, Bonorowo, Bruno.",
		Areas: []types.WarningArea{
			{Name: "Kebumen", Polygon: [][]float64{{109.5, -7.6}, {109.7, -7.6}, {109.7, -7.8}}},
		},
	}

	for _, override := range overrides {
		override(&warning)
	}

	return warning
}

// FixtureNowcastListItem creates one entry of the nowcast list feed.
func FixtureNowcastListItem(overrides ...func(*types.NowcastListItem)) types.NowcastListItem {
	item := types.NowcastListItem{
		Code:        "W-2026-0115-001",
		Province:    "Jawa Tengah",
		Description: "Peringatan dini cuaca Jawa Tengah",
		PublishedAt: "2026-01-15T09:55:00+07:00",
		DetailURL:   "/v1/nowcast/W-2026-0115-001",
	}

	for _, override := range overrides {
		override(&item)
	}

	return item
}

// =============================================================================
// ALERT FIXTURES
// =============================================================================

// FixtureAlert creates a stored alert with sensible defaults.
func FixtureAlert(overrides ...func(*types.Alert)) types.Alert {
	alert := types.Alert{
		ID:                uuid.New().String(),
		BMKGAlertCode:     "W-2026-0115-001",
		Event:             "Hujan Lebat",
		Severity:          types.SeverityModerate,
		Urgency:           "Immediate",
		Certainty:         "Likely",
		Headline:          "Peringatan Dini Cuaca Jawa Tengah",
		Description:       "Hujan sedang hingga lebat di Alian, Bonorowo, Bruno.",
		Effective:         "2026-01-15T10:00:00+07:00",
		Expires:           "2026-01-15T12:00:00+07:00",
		MatchedLocationID: uuid.New().String(),
		MatchType:         types.MatchKecamatan,
		MatchedText:       "Alian",
		Status:            types.AlertStatusActive,
		CreatedAt:         time.Now(),
		LocationLabel:     "Alian",
	}

	for _, override := range overrides {
		override(&alert)
	}

	return alert
}

// =============================================================================
// CHANNEL FIXTURES
// =============================================================================

// FixtureChannel creates an enabled Telegram channel. Override the type and
// config together when another sender is needed.
func FixtureChannel(overrides ...func(*types.NotificationChannel)) types.NotificationChannel {
	channel := types.NotificationChannel{
		ID:          uuid.New().String(),
		ChannelType: types.ChannelTelegram,
		Enabled:     true,
		Config:      []byte(`{"bot_token":"123456:test-token","chat_id":"-1001234"}`),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	for _, override := range overrides {
		override(&channel)
	}

	return channel
}

// =============================================================================
// TRIAL FIXTURES
// =============================================================================

// FixtureTrial creates an active trial subscription expiring in 24 hours.
func FixtureTrial(overrides ...func(*types.TrialSubscription)) types.TrialSubscription {
	trial := types.TrialSubscription{
		ID:                uuid.New().String(),
		TelegramChatID:    "987654321",
		SubdistrictCode:   "33.05.01",
		SubdistrictName:   "Alian",
		DistrictName:      "Kebumen",
		ProvinceName:      "Jawa Tengah",
		SeverityThreshold: "all",
		RegisteredAt:      time.Now(),
		ExpiresAt:         time.Now().Add(24 * time.Hour),
		IPAddress:         "203.0.113.10",
	}

	for _, override := range overrides {
		override(&trial)
	}

	return trial
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Ptr returns a pointer to the given value.
// Useful for setting optional fields in fixtures.
func Ptr[T any](v T) *T {
	return &v
}

package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// maxDescriptionLen bounds the description section of formatted messages.
const maxDescriptionLen = 500

// SeverityEmoji returns the marker glyph for a severity level.
func SeverityEmoji(s types.Severity) string {
	switch s {
	case types.SeverityMinor:
		return "🔵"
	case types.SeverityModerate:
		return "🟡"
	case types.SeveritySevere:
		return "🔴"
	case types.SeverityExtreme:
		return "⚫"
	default:
		return "⚠️"
	}
}

// severityColor returns the embed color for a severity level, used by the
// Discord sender.
func severityColor(s types.Severity) int {
	switch s {
	case types.SeverityMinor:
		return 0x3B82F6
	case types.SeverityModerate:
		return 0xEAB308
	case types.SeveritySevere:
		return 0xEF4444
	case types.SeverityExtreme:
		return 0x1F2937
	default:
		return 0xEAB308
	}
}

// FormatTimestamp renders an upstream ISO-8601 timestamp with the Indonesian
// timezone abbreviation derived from its offset (+07 WIB, +08 WITA, +09 WIT).
// Unparseable input is returned verbatim.
func FormatTimestamp(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}

	_, offset := t.Zone()
	var zone string
	switch offset {
	case 7 * 3600:
		zone = "WIB"
	case 8 * 3600:
		zone = "WITA"
	case 9 * 3600:
		zone = "WIT"
	default:
		zone = "UTC"
		t = t.UTC()
	}
	return t.Format("02 Jan 2006 15:04") + " " + zone
}

// TruncateDescription caps a description at maxDescriptionLen runes.
func TruncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDescriptionLen {
		return s
	}
	return string(runes[:maxDescriptionLen]) + "..."
}

// FormatAlertMessage builds the reference multi-section alert body. The
// Telegram sender uses it directly; the other senders carry the same logical
// fields in their own wire formats.
func FormatAlertMessage(warning types.Warning, match types.Match, isTrial bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s PERINGATAN DINI CUACA\n\n", SeverityEmoji(warning.Severity))
	fmt.Fprintf(&b, "%s\n", warning.Event)
	fmt.Fprintf(&b, "Tingkat: %s\n\n", warning.Severity)

	loc := match.Location
	fmt.Fprintf(&b, "📍 %s\n", loc.DisplayLabel())
	fmt.Fprintf(&b, "Kec. %s, Kab. %s, %s\n\n", loc.SubdistrictName, loc.DistrictName, loc.ProvinceName)

	if warning.Effective != "" {
		fmt.Fprintf(&b, "⏰ Berlaku: %s\n", FormatTimestamp(warning.Effective))
	}
	if warning.Expires != "" {
		fmt.Fprintf(&b, "⏳ Berakhir: %s\n", FormatTimestamp(warning.Expires))
	}

	if warning.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", TruncateDescription(warning.Description))
	}

	fmt.Fprintf(&b, "\nWilayah terdeteksi: %s (%s)\n", match.MatchedText, match.MatchType)

	if warning.InfographicURL != "" {
		fmt.Fprintf(&b, "\n🗺 Infografis: %s\n", warning.InfographicURL)
	}

	if isTrial {
		b.WriteString("\n---\nPesan ini dikirim dalam mode trial (berlaku 24 jam).\n")
	}

	return b.String()
}

// FormatTrialMessage builds the alert body for a trial subscription, which
// carries location fields on the trial row instead of a stored location.
func FormatTrialMessage(warning types.Warning, trial types.TrialSubscription, matchType types.MatchType, matchedText string) string {
	match := types.Match{
		Location: types.Location{
			SubdistrictName: trial.SubdistrictName,
			DistrictName:    trial.DistrictName,
			ProvinceName:    trial.ProvinceName,
		},
		MatchType:   matchType,
		MatchedText: matchedText,
	}
	return FormatAlertMessage(warning, match, true)
}

// FormatExpiryMessage builds the all-clear notice sent when an alert expires.
func FormatExpiryMessage(alert types.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ PERINGATAN BERAKHIR\n\n")
	fmt.Fprintf(&b, "%s\n", alert.Event)
	if alert.LocationLabel != "" {
		fmt.Fprintf(&b, "📍 %s\n", alert.LocationLabel)
	}
	if alert.Expires != "" {
		fmt.Fprintf(&b, "Berakhir: %s\n", FormatTimestamp(alert.Expires))
	}
	b.WriteString("\nKondisi cuaca di wilayah Anda kembali normal.\n")
	return b.String()
}

// FormatTrialFarewell builds the farewell notice for a just-expired trial.
func FormatTrialFarewell(trial types.TrialSubscription) string {
	var b strings.Builder
	b.WriteString("⏰ Masa trial Anda telah berakhir.\n\n")
	fmt.Fprintf(&b, "Wilayah pantauan: %s", trial.SubdistrictName)
	if trial.DistrictName != "" {
		fmt.Fprintf(&b, ", %s", trial.DistrictName)
	}
	b.WriteString("\n\nTerima kasih telah mencoba layanan peringatan dini cuaca.\n")
	return b.String()
}

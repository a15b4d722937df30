package notify

import (
	"strings"
	"testing"

	"github.com/dhanyyudi/bmkg-alert/internal/testutil"
	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

func TestSeverityEmoji(t *testing.T) {
	tests := []struct {
		severity types.Severity
		want     string
	}{
		{types.SeverityMinor, "🔵"},
		{types.SeverityModerate, "🟡"},
		{types.SeveritySevere, "🔴"},
		{types.SeverityExtreme, "⚫"},
		{types.Severity("Unknown"), "⚠️"},
	}
	for _, tt := range tests {
		if got := SeverityEmoji(tt.severity); got != tt.want {
			t.Errorf("SeverityEmoji(%s): got %s, want %s", tt.severity, got, tt.want)
		}
	}
}

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		severity types.Severity
		want     int
	}{
		{types.SeverityMinor, 0x3B82F6},
		{types.SeverityModerate, 0xEAB308},
		{types.SeveritySevere, 0xEF4444},
		{types.SeverityExtreme, 0x1F2937},
	}
	for _, tt := range tests {
		if got := severityColor(tt.severity); got != tt.want {
			t.Errorf("severityColor(%s): got %06X, want %06X", tt.severity, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		iso  string
		want string
	}{
		{"WIB", "2026-01-15T10:00:00+07:00", "15 Jan 2026 10:00 WIB"},
		{"WITA", "2026-01-15T11:00:00+08:00", "15 Jan 2026 11:00 WITA"},
		{"WIT", "2026-01-15T12:00:00+09:00", "15 Jan 2026 12:00 WIT"},
		{"UTC fallback", "2026-01-15T03:00:00Z", "15 Jan 2026 03:00 UTC"},
		{"unparseable returned verbatim", "not-a-time", "not-a-time"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.iso); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateDescription(t *testing.T) {
	short := "hujan ringan"
	if got := TruncateDescription(short); got != short {
		t.Errorf("short description changed: %q", got)
	}

	long := strings.Repeat("a", 600)
	got := TruncateDescription(long)
	if len([]rune(got)) != maxDescriptionLen+3 {
		t.Errorf("truncated length: got %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated description missing ellipsis")
	}
}

func TestFormatAlertMessage(t *testing.T) {
	warning := testutil.FixtureWarning(func(w *types.Warning) {
		w.Severity = types.SeveritySevere
		w.InfographicURL = "https://example.org/info.png"
	})
	match := types.Match{
		Location:    testutil.FixtureLocation(),
		MatchType:   types.MatchKecamatan,
		MatchedText: "Alian",
	}

	msg := FormatAlertMessage(warning, match, false)

	for _, want := range []string{
		"🔴",
		"Hujan Lebat",
		"Tingkat: Severe",
		"Alian",
		"Kab. Kebumen",
		"Jawa Tengah",
		"Berlaku: 15 Jan 2026 10:00 WIB",
		"Alian (kecamatan)",
		"https://example.org/info.png",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "trial") {
		t.Error("non-trial message carries trial footer")
	}
}

func TestFormatAlertMessageTrialFooter(t *testing.T) {
	warning := testutil.FixtureWarning()
	match := types.Match{Location: testutil.FixtureLocation(), MatchType: types.MatchKecamatan, MatchedText: "Alian"}

	msg := FormatAlertMessage(warning, match, true)
	if !strings.Contains(msg, "mode trial") {
		t.Errorf("trial message missing footer:\n%s", msg)
	}
}

func TestFormatTrialFarewell(t *testing.T) {
	trial := testutil.FixtureTrial()
	msg := FormatTrialFarewell(trial)
	if !strings.Contains(msg, "Alian") || !strings.Contains(msg, "berakhir") {
		t.Errorf("unexpected farewell:\n%s", msg)
	}
}

func TestBuildDiscordMessage(t *testing.T) {
	warning := testutil.FixtureWarning(func(w *types.Warning) {
		w.Severity = types.SeverityExtreme
	})
	match := types.Match{Location: testutil.FixtureLocation(), MatchType: types.MatchKabupaten, MatchedText: "Kebumen"}

	msg := buildDiscordMessage(warning, match, false)
	if len(msg.Embeds) != 1 {
		t.Fatalf("got %d embeds, want 1", len(msg.Embeds))
	}
	if msg.Embeds[0].Color != 0x1F2937 {
		t.Errorf("embed color: got %06X", msg.Embeds[0].Color)
	}
	if !strings.Contains(msg.Embeds[0].Title, "Hujan Lebat") {
		t.Errorf("embed title: %s", msg.Embeds[0].Title)
	}
}

func TestBuildSlackMessage(t *testing.T) {
	warning := testutil.FixtureWarning(func(w *types.Warning) {
		w.Severity = types.SeveritySevere
	})
	match := types.Match{Location: testutil.FixtureLocation(), MatchType: types.MatchKecamatan, MatchedText: "Alian"}

	msg := buildSlackMessage(warning, match, false)
	if len(msg.Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(msg.Attachments))
	}
	if msg.Attachments[0].Color != "#EF4444" {
		t.Errorf("attachment color: got %s", msg.Attachments[0].Color)
	}
}

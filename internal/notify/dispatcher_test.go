package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dhanyyudi/bmkg-alert/internal/testutil"
	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// mockState records dispatcher bookkeeping calls.
type mockState struct {
	config     map[string]string
	deliveries []types.Delivery
	successes  []string
	errors     []string
}

func (m *mockState) ConfigValue(ctx context.Context, key string) (string, error) {
	return m.config[key], nil
}

func (m *mockState) LogDelivery(ctx context.Context, alertID, channelID string, status types.DeliveryStatus, errorMessage string) error {
	m.deliveries = append(m.deliveries, types.Delivery{
		AlertID: alertID, ChannelID: channelID, Status: status, ErrorMessage: errorMessage,
	})
	return nil
}

func (m *mockState) RecordChannelSuccess(ctx context.Context, channelID string) error {
	m.successes = append(m.successes, channelID)
	return nil
}

func (m *mockState) RecordChannelError(ctx context.Context, channelID, errMsg string) error {
	m.errors = append(m.errors, channelID)
	return nil
}

// mockSender counts sends and optionally fails.
type mockSender struct {
	sendCount int
	rawCount  int
	err       error
}

func (m *mockSender) Send(ctx context.Context, warning types.Warning, match types.Match, config json.RawMessage, isTrial bool) error {
	m.sendCount++
	return m.err
}

func (m *mockSender) SendRaw(ctx context.Context, config json.RawMessage, message string) error {
	m.rawCount++
	return m.err
}

func newTestDispatcher(state *mockState, sender Sender) *Dispatcher {
	if state.config == nil {
		state.config = map[string]string{}
	}
	return NewDispatcher(
		map[types.ChannelType]Sender{types.ChannelTelegram: sender},
		state,
		testutil.NewTestLogger(),
	)
}

func fixedClock(hourUTC int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 1, 15, hourUTC, 30, 0, 0, time.UTC)
	}
}

func TestDispatchSent(t *testing.T) {
	state := &mockState{}
	sender := &mockSender{}
	d := newTestDispatcher(state, sender)

	status, err := d.Dispatch(context.Background(), "alert-1",
		testutil.FixtureWarning(), types.Match{Location: testutil.FixtureLocation()}, testutil.FixtureChannel())

	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if status != types.DeliverySent {
		t.Errorf("status: got %s, want sent", status)
	}
	if sender.sendCount != 1 {
		t.Errorf("sends: got %d, want 1", sender.sendCount)
	}
	if len(state.deliveries) != 1 || state.deliveries[0].Status != types.DeliverySent {
		t.Errorf("deliveries: %+v", state.deliveries)
	}
	if len(state.successes) != 1 {
		t.Errorf("channel success not recorded")
	}
}

func TestDispatchSenderFailure(t *testing.T) {
	state := &mockState{}
	sender := &mockSender{err: errors.New("telegram send: 401")}
	d := newTestDispatcher(state, sender)

	status, err := d.Dispatch(context.Background(), "alert-1",
		testutil.FixtureWarning(), types.Match{Location: testutil.FixtureLocation()}, testutil.FixtureChannel())

	if err == nil {
		t.Fatal("expected error")
	}
	if status != types.DeliveryFailed {
		t.Errorf("status: got %s, want failed", status)
	}
	if len(state.deliveries) != 1 || state.deliveries[0].Status != types.DeliveryFailed {
		t.Errorf("deliveries: %+v", state.deliveries)
	}
	if state.deliveries[0].ErrorMessage == "" {
		t.Error("failed delivery missing error message")
	}
	if len(state.errors) != 1 {
		t.Error("channel error not recorded")
	}
}

func TestDispatchUnsupportedChannelType(t *testing.T) {
	state := &mockState{}
	sender := &mockSender{}
	d := newTestDispatcher(state, sender)

	channel := testutil.FixtureChannel(func(c *types.NotificationChannel) {
		c.ChannelType = types.ChannelType("pager")
	})

	status, err := d.Dispatch(context.Background(), "alert-1",
		testutil.FixtureWarning(), types.Match{Location: testutil.FixtureLocation()}, channel)

	if err == nil {
		t.Fatal("expected error for unsupported channel type")
	}
	if status != types.DeliveryFailed {
		t.Errorf("status: got %s, want failed", status)
	}
	if sender.sendCount != 0 {
		t.Error("sender invoked for unsupported type")
	}
}

func TestDispatchQuietHours(t *testing.T) {
	quietConfig := map[string]string{
		"quiet_hours_enabled":         "true",
		"quiet_hours_start":           "22:00",
		"quiet_hours_end":             "06:00",
		"quiet_hours_override_severe": "true",
		"quiet_hours_utc_offset":      "7",
	}

	tests := []struct {
		name       string
		hourUTC    int // local hour = UTC + 7
		severity   types.Severity
		override   string
		wantStatus types.DeliveryStatus
		wantSends  int
	}{
		// 16 UTC = 23 local, inside 22:00-06:00.
		{"moderate suppressed at 23 local", 16, types.SeverityModerate, "true", types.DeliverySkippedQuietHours, 0},
		{"severe bypasses at 23 local", 16, types.SeveritySevere, "true", types.DeliverySent, 1},
		{"extreme bypasses at 23 local", 16, types.SeverityExtreme, "true", types.DeliverySent, 1},
		{"severe suppressed when override off", 16, types.SeveritySevere, "false", types.DeliverySkippedQuietHours, 0},
		// 5 UTC = 12 local, outside the window.
		{"moderate sent at noon local", 5, types.SeverityModerate, "true", types.DeliverySent, 1},
		// 22 UTC = 05 local, still inside the overnight window.
		{"moderate suppressed at 05 local", 22, types.SeverityModerate, "true", types.DeliverySkippedQuietHours, 0},
		// 23 UTC = 06 local, end is exclusive.
		{"moderate sent at 06 local", 23, types.SeverityModerate, "true", types.DeliverySent, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := make(map[string]string, len(quietConfig))
			for k, v := range quietConfig {
				config[k] = v
			}
			config["quiet_hours_override_severe"] = tt.override

			state := &mockState{config: config}
			sender := &mockSender{}
			d := newTestDispatcher(state, sender)
			d.now = fixedClock(tt.hourUTC)

			warning := testutil.FixtureWarning(func(w *types.Warning) {
				w.Severity = tt.severity
			})

			status, _ := d.Dispatch(context.Background(), "alert-1",
				warning, types.Match{Location: testutil.FixtureLocation()}, testutil.FixtureChannel())

			if status != tt.wantStatus {
				t.Errorf("status: got %s, want %s", status, tt.wantStatus)
			}
			if sender.sendCount != tt.wantSends {
				t.Errorf("sends: got %d, want %d", sender.sendCount, tt.wantSends)
			}
			if len(state.deliveries) != 1 {
				t.Fatalf("deliveries: got %d, want 1", len(state.deliveries))
			}
			if state.deliveries[0].Status != tt.wantStatus {
				t.Errorf("logged status: got %s, want %s", state.deliveries[0].Status, tt.wantStatus)
			}
		})
	}
}

func TestDispatchQuietHoursConfigurableOffset(t *testing.T) {
	state := &mockState{config: map[string]string{
		"quiet_hours_enabled":         "true",
		"quiet_hours_start":           "22:00",
		"quiet_hours_end":             "06:00",
		"quiet_hours_override_severe": "false",
		"quiet_hours_utc_offset":      "9", // WIT
	}}
	sender := &mockSender{}
	d := newTestDispatcher(state, sender)
	d.now = fixedClock(14) // 23:30 at UTC+9

	status, _ := d.Dispatch(context.Background(), "alert-1",
		testutil.FixtureWarning(), types.Match{Location: testutil.FixtureLocation()}, testutil.FixtureChannel())

	if status != types.DeliverySkippedQuietHours {
		t.Errorf("status: got %s, want skipped_quiet_hours", status)
	}
}

func TestHourInWindow(t *testing.T) {
	tests := []struct {
		hour, start, end int
		want             bool
	}{
		{23, 22, 6, true},
		{2, 22, 6, true},
		{5, 22, 6, true},
		{6, 22, 6, false},
		{12, 22, 6, false},
		{22, 22, 6, true},
		{10, 9, 17, true},
		{8, 9, 17, false},
		{17, 9, 17, false},
		{12, 8, 8, false}, // start == end: empty window
	}
	for _, tt := range tests {
		if got := hourInWindow(tt.hour, tt.start, tt.end); got != tt.want {
			t.Errorf("hourInWindow(%d, %d, %d): got %v, want %v", tt.hour, tt.start, tt.end, got, tt.want)
		}
	}
}

func TestParseHour(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"22:00", 22, false},
		{"06:30", 6, false},
		{"0:00", 0, false},
		{"24:00", 0, true},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseHour(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseHour(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseHour(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseHour(%q): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSendRawBypassesQuietHours(t *testing.T) {
	state := &mockState{config: map[string]string{
		"quiet_hours_enabled":    "true",
		"quiet_hours_start":      "00:00",
		"quiet_hours_end":        "23:00",
		"quiet_hours_utc_offset": "0",
	}}
	sender := &mockSender{}
	d := newTestDispatcher(state, sender)
	d.now = fixedClock(12)

	if err := d.SendRaw(context.Background(), testutil.FixtureChannel(), "test message"); err != nil {
		t.Fatalf("SendRaw: %v", err)
	}
	if sender.rawCount != 1 {
		t.Errorf("raw sends: got %d, want 1", sender.rawCount)
	}
	if len(state.deliveries) != 0 {
		t.Error("SendRaw must not write delivery rows")
	}
}

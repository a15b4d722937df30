package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// State is what the dispatcher needs from the state manager: runtime config
// reads, the delivery log, and channel bookkeeping.
type State interface {
	ConfigValue(ctx context.Context, key string) (string, error)
	LogDelivery(ctx context.Context, alertID, channelID string, status types.DeliveryStatus, errorMessage string) error
	RecordChannelSuccess(ctx context.Context, channelID string) error
	RecordChannelError(ctx context.Context, channelID, errMsg string) error
}

// Dispatcher routes one stored alert through one channel, enforcing the
// quiet-hours policy and recording exactly one delivery row per call.
// There is no automatic retry: failed deliveries are not re-sent.
type Dispatcher struct {
	senders map[types.ChannelType]Sender
	state   State
	logger  *slog.Logger

	now func() time.Time // test seam
}

// NewDispatcher creates a dispatcher over the fixed sender map.
func NewDispatcher(senders map[types.ChannelType]Sender, state State, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		senders: senders,
		state:   state,
		logger:  logger.With("component", "dispatcher"),
		now:     time.Now,
	}
}

// Dispatch sends an alert through one channel. The returned status is the
// delivery row outcome; err is non-nil only for the failed status.
func (d *Dispatcher) Dispatch(ctx context.Context, alertID string, warning types.Warning, match types.Match, channel types.NotificationChannel) (types.DeliveryStatus, error) {
	if d.suppressedByQuietHours(ctx, warning.Severity) {
		d.logger.Debug("delivery suppressed by quiet hours",
			"alert_id", alertID, "channel_id", channel.ID, "severity", warning.Severity)
		d.recordDelivery(ctx, alertID, channel.ID, types.DeliverySkippedQuietHours, "")
		return types.DeliverySkippedQuietHours, nil
	}

	sender, ok := d.senders[channel.ChannelType]
	if !ok {
		err := fmt.Errorf("unsupported channel type: %s", channel.ChannelType)
		d.logger.Warn("unsupported channel type", "channel_id", channel.ID, "channel_type", channel.ChannelType)
		d.recordDelivery(ctx, alertID, channel.ID, types.DeliveryFailed, err.Error())
		d.recordChannelError(ctx, channel.ID, err.Error())
		return types.DeliveryFailed, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, senderTimeout)
	defer cancel()

	if err := sender.Send(sendCtx, warning, match, channel.Config, false); err != nil {
		d.logger.Warn("delivery failed",
			"alert_id", alertID, "channel_id", channel.ID, "channel_type", channel.ChannelType, "error", err)
		d.recordDelivery(ctx, alertID, channel.ID, types.DeliveryFailed, err.Error())
		d.recordChannelError(ctx, channel.ID, err.Error())
		return types.DeliveryFailed, err
	}

	d.logger.Info("delivery sent",
		"alert_id", alertID, "channel_id", channel.ID, "channel_type", channel.ChannelType)
	d.recordDelivery(ctx, alertID, channel.ID, types.DeliverySent, "")
	if err := d.state.RecordChannelSuccess(ctx, channel.ID); err != nil {
		d.logger.Warn("channel bookkeeping failed", "channel_id", channel.ID, "error", err)
	}
	return types.DeliverySent, nil
}

// SendRaw sends an arbitrary message through one channel, bypassing the
// quiet-hours policy and the delivery log. Used by the admin test endpoint
// and the expiry notices.
func (d *Dispatcher) SendRaw(ctx context.Context, channel types.NotificationChannel, message string) error {
	sender, ok := d.senders[channel.ChannelType]
	if !ok {
		return fmt.Errorf("unsupported channel type: %s", channel.ChannelType)
	}

	sendCtx, cancel := context.WithTimeout(ctx, senderTimeout)
	defer cancel()

	if err := sender.SendRaw(sendCtx, channel.Config, message); err != nil {
		d.recordChannelError(ctx, channel.ID, err.Error())
		return err
	}
	if err := d.state.RecordChannelSuccess(ctx, channel.ID); err != nil {
		d.logger.Warn("channel bookkeeping failed", "channel_id", channel.ID, "error", err)
	}
	return nil
}

func (d *Dispatcher) recordDelivery(ctx context.Context, alertID, channelID string, status types.DeliveryStatus, errMsg string) {
	if err := d.state.LogDelivery(ctx, alertID, channelID, status, errMsg); err != nil {
		d.logger.Error("delivery log write failed",
			"alert_id", alertID, "channel_id", channelID, "status", status, "error", err)
	}
}

func (d *Dispatcher) recordChannelError(ctx context.Context, channelID, errMsg string) {
	if err := d.state.RecordChannelError(ctx, channelID, errMsg); err != nil {
		d.logger.Warn("channel bookkeeping failed", "channel_id", channelID, "error", err)
	}
}

// suppressedByQuietHours reports whether a delivery must be skipped now.
// Severe and Extreme warnings bypass the window when the override is on.
// Config read errors fail open: a broken config table must not silence alerts.
func (d *Dispatcher) suppressedByQuietHours(ctx context.Context, severity types.Severity) bool {
	enabled, err := d.state.ConfigValue(ctx, "quiet_hours_enabled")
	if err != nil || enabled != "true" {
		return false
	}

	override, _ := d.state.ConfigValue(ctx, "quiet_hours_override_severe")
	if override == "true" && (severity == types.SeveritySevere || severity == types.SeverityExtreme) {
		return false
	}

	startRaw, _ := d.state.ConfigValue(ctx, "quiet_hours_start")
	endRaw, _ := d.state.ConfigValue(ctx, "quiet_hours_end")
	offsetRaw, _ := d.state.ConfigValue(ctx, "quiet_hours_utc_offset")

	start, err := parseHour(startRaw)
	if err != nil {
		return false
	}
	end, err := parseHour(endRaw)
	if err != nil {
		return false
	}

	offset, err := strconv.Atoi(offsetRaw)
	if err != nil {
		offset = 7
	}

	localHour := d.now().UTC().Add(time.Duration(offset) * time.Hour).Hour()
	return hourInWindow(localHour, start, end)
}

// hourInWindow tests hour against [start, end) modulo 24. A window crossing
// midnight is expressed as start > end.
func hourInWindow(hour, start, end int) bool {
	if start == end {
		return false
	}
	if start > end {
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// parseHour extracts the hour field of a "HH:MM" config value.
func parseHour(s string) (int, error) {
	field, _, _ := strings.Cut(s, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("invalid hour %q: %w", s, err)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("hour %d out of range", hour)
	}
	return hour, nil
}

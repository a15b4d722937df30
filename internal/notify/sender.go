// Package notify routes stored alerts to notification channels.
//
// The Dispatcher holds a fixed sender per channel type, applies the
// quiet-hours policy, and records exactly one delivery row per
// (alert, channel) call. Senders are stateless: every transport identifier
// comes from the channel config, decoded and validated at entry.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// senderTimeout bounds one delivery attempt.
const senderTimeout = 15 * time.Second

// Sender delivers notifications for one channel type.
type Sender interface {
	// Send delivers a formatted alert notification.
	Send(ctx context.Context, warning types.Warning, match types.Match, config json.RawMessage, isTrial bool) error
	// SendRaw delivers an arbitrary text message. Used by the admin channel
	// test endpoint and for expiry and trial lifecycle notices.
	SendRaw(ctx context.Context, config json.RawMessage, message string) error
}

// NewSenders returns the fixed channel type to sender map.
func NewSenders(logger *slog.Logger) map[types.ChannelType]Sender {
	return map[types.ChannelType]Sender{
		types.ChannelTelegram: NewTelegramSender(logger),
		types.ChannelDiscord:  NewDiscordSender(logger),
		types.ChannelSlack:    NewSlackSender(logger),
		types.ChannelEmail:    NewEmailSender(logger),
		types.ChannelWebhook:  NewWebhookSender(logger),
	}
}

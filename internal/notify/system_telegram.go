package notify

import (
	"context"
	"fmt"
)

// SystemTelegram sends messages through the system-wide trial bot. Unlike
// channel senders it carries a single token resolved at startup rather than
// per-channel config.
type SystemTelegram struct {
	token string
}

// NewSystemTelegram creates the system bot messenger. Returns nil when no
// token is configured so the trial pipeline is skipped cleanly.
func NewSystemTelegram(token string) *SystemTelegram {
	if token == "" {
		return nil
	}
	return &SystemTelegram{token: token}
}

// SendMessage sends one plain-text message to a chat.
func (s *SystemTelegram) SendMessage(ctx context.Context, chatID, message string) error {
	if s == nil {
		return fmt.Errorf("system telegram bot not configured")
	}
	return SendTelegramMessage(ctx, s.token, chatID, message)
}

// BotInfo returns the bot's username via getMe.
func (s *SystemTelegram) BotInfo(ctx context.Context) (string, error) {
	if s == nil {
		return "", fmt.Errorf("system telegram bot not configured")
	}
	return TelegramBotInfo(ctx, s.token)
}

// Configured reports whether a token is present.
func (s *SystemTelegram) Configured() bool {
	return s != nil && s.token != ""
}

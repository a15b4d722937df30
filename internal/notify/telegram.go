package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// telegramHTTPClient is shared by every Telegram call so each attempt carries
// the per-attempt timeout. The default bot client has none, and the library's
// Send takes no context.
var telegramHTTPClient = &http.Client{Timeout: senderTimeout}

// TelegramSender delivers alerts through the Telegram Bot API.
//
// The bot handle is constructed per send: channels carry their own tokens and
// a long-lived handle per token is not worth the bookkeeping at this volume.
type TelegramSender struct {
	logger *slog.Logger
}

// NewTelegramSender creates the Telegram sender.
func NewTelegramSender(logger *slog.Logger) *TelegramSender {
	return &TelegramSender{logger: logger.With("sender", "telegram")}
}

// Send implements Sender.
func (s *TelegramSender) Send(ctx context.Context, warning types.Warning, match types.Match, config json.RawMessage, isTrial bool) error {
	return s.SendRaw(ctx, config, FormatAlertMessage(warning, match, isTrial))
}

// SendRaw implements Sender.
func (s *TelegramSender) SendRaw(ctx context.Context, config json.RawMessage, message string) error {
	cfg, err := decodeTelegramConfig(config)
	if err != nil {
		return err
	}
	return SendTelegramMessage(ctx, cfg.BotToken, cfg.ChatID, message)
}

// SendTelegramMessage sends one plain-text message to a chat. Shared with the
// trial pipeline, which uses the system bot token instead of a channel config.
func SendTelegramMessage(ctx context.Context, botToken, chatID, message string) error {
	return sendTelegramMessage(ctx, tgbotapi.APIEndpoint, botToken, chatID, message)
}

func sendTelegramMessage(ctx context.Context, endpoint, botToken, chatID, message string) error {
	done := make(chan error, 1)
	go func() {
		bot, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, telegramHTTPClient)
		if err != nil {
			done <- fmt.Errorf("telegram bot init: %w", err)
			return
		}

		var msg tgbotapi.Chattable
		if numericID, err := strconv.ParseInt(chatID, 10, 64); err == nil {
			msg = tgbotapi.NewMessage(numericID, message)
		} else {
			// Non-numeric chat IDs are @channelusername references.
			msg = tgbotapi.NewMessageToChannel(chatID, message)
		}

		if _, err := bot.Send(msg); err != nil {
			done <- fmt.Errorf("telegram send: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TelegramBotInfo returns the bot's username via getMe. Used by the trial
// registration surface so users know which bot to start.
func TelegramBotInfo(ctx context.Context, botToken string) (string, error) {
	return telegramBotInfo(ctx, tgbotapi.APIEndpoint, botToken)
}

func telegramBotInfo(ctx context.Context, endpoint, botToken string) (string, error) {
	type result struct {
		username string
		err      error
	}
	done := make(chan result, 1)
	go func() {
		bot, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, telegramHTTPClient)
		if err != nil {
			done <- result{err: fmt.Errorf("telegram bot init: %w", err)}
			return
		}
		done <- result{username: bot.Self.UserName}
	}()

	select {
	case res := <-done:
		return res.username, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

package notify

import (
	"encoding/json"
	"fmt"
)

// Per-channel-type config structs. The channel row stores config as an opaque
// JSON object; the channel_type discriminator selects which struct is decoded.
// Senders decode and validate at entry so a misconfigured channel fails with a
// precise error before any transport attempt.

// TelegramConfig configures a Telegram bot channel.
type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

// DiscordConfig configures a Discord incoming webhook.
type DiscordConfig struct {
	WebhookURL string `json:"webhook_url"`
}

// SlackConfig configures a Slack incoming webhook.
type SlackConfig struct {
	WebhookURL string `json:"webhook_url"`
}

// EmailConfig configures SMTP delivery.
type EmailConfig struct {
	SMTPHost string   `json:"smtp_host"`
	SMTPPort int      `json:"smtp_port"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

// WebhookConfig configures a generic JSON webhook.
type WebhookConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

func decodeTelegramConfig(raw json.RawMessage) (*TelegramConfig, error) {
	var cfg TelegramConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("telegram config: %w", err)
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram config: bot_token is required")
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram config: chat_id is required")
	}
	return &cfg, nil
}

func decodeDiscordConfig(raw json.RawMessage) (*DiscordConfig, error) {
	var cfg DiscordConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("discord config: %w", err)
	}
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("discord config: webhook_url is required")
	}
	return &cfg, nil
}

func decodeSlackConfig(raw json.RawMessage) (*SlackConfig, error) {
	var cfg SlackConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("slack config: %w", err)
	}
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("slack config: webhook_url is required")
	}
	return &cfg, nil
}

func decodeEmailConfig(raw json.RawMessage) (*EmailConfig, error) {
	var cfg EmailConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("email config: %w", err)
	}
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("email config: smtp_host is required")
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email config: from is required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("email config: at least one recipient is required")
	}
	return &cfg, nil
}

func decodeWebhookConfig(raw json.RawMessage) (*WebhookConfig, error) {
	var cfg WebhookConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("webhook config: %w", err)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook config: url is required")
	}
	return &cfg, nil
}

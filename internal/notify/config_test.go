package notify

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeTelegramConfig(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"valid", `{"bot_token":"123:abc","chat_id":"-100"}`, ""},
		{"missing token", `{"chat_id":"-100"}`, "bot_token"},
		{"missing chat", `{"bot_token":"123:abc"}`, "chat_id"},
		{"malformed", `{`, "telegram config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := decodeTelegramConfig(json.RawMessage(tt.raw))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg.BotToken == "" || cfg.ChatID == "" {
					t.Errorf("incomplete config: %+v", cfg)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error: got %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeEmailConfig(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"valid", `{"smtp_host":"mail.example.org","smtp_port":465,"from":"a@b","to":["c@d"]}`, ""},
		{"default port", `{"smtp_host":"mail.example.org","from":"a@b","to":["c@d"]}`, ""},
		{"missing host", `{"from":"a@b","to":["c@d"]}`, "smtp_host"},
		{"missing recipients", `{"smtp_host":"h","from":"a@b"}`, "recipient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := decodeEmailConfig(json.RawMessage(tt.raw))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg.SMTPPort == 0 {
					t.Error("port default not applied")
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error: got %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeWebhookConfigValidation(t *testing.T) {
	if _, err := decodeWebhookConfig(json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for missing url")
	}
	cfg, err := decodeWebhookConfig(json.RawMessage(`{"url":"https://example.org/hook","headers":{"X-Token":"t"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Headers["X-Token"] != "t" {
		t.Errorf("headers not decoded: %+v", cfg.Headers)
	}
}

func TestDecodeDiscordAndSlackConfig(t *testing.T) {
	if _, err := decodeDiscordConfig(json.RawMessage(`{}`)); err == nil {
		t.Error("discord: expected error for missing webhook_url")
	}
	if _, err := decodeSlackConfig(json.RawMessage(`{}`)); err == nil {
		t.Error("slack: expected error for missing webhook_url")
	}
	if _, err := decodeDiscordConfig(json.RawMessage(`{"webhook_url":"https://discord.com/api/webhooks/1/x"}`)); err != nil {
		t.Errorf("discord: %v", err)
	}
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// DiscordSender posts alerts to a Discord incoming webhook as an embed.
type DiscordSender struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDiscordSender creates the Discord sender.
func NewDiscordSender(logger *slog.Logger) *DiscordSender {
	return &DiscordSender{
		httpClient: &http.Client{Timeout: senderTimeout},
		logger:     logger.With("sender", "discord"),
	}
}

type discordMessage struct {
	Username string         `json:"username,omitempty"`
	Content  string         `json:"content,omitempty"`
	Embeds   []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	URL         string              `json:"url,omitempty"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Send implements Sender.
func (s *DiscordSender) Send(ctx context.Context, warning types.Warning, match types.Match, config json.RawMessage, isTrial bool) error {
	cfg, err := decodeDiscordConfig(config)
	if err != nil {
		return err
	}
	return s.post(ctx, cfg.WebhookURL, buildDiscordMessage(warning, match, isTrial))
}

// SendRaw implements Sender.
func (s *DiscordSender) SendRaw(ctx context.Context, config json.RawMessage, message string) error {
	cfg, err := decodeDiscordConfig(config)
	if err != nil {
		return err
	}
	return s.post(ctx, cfg.WebhookURL, discordMessage{
		Username: "BMKG Alert",
		Content:  message,
	})
}

func (s *DiscordSender) post(ctx context.Context, webhookURL string, msg discordMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord request: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 on webhook success; accept any 2xx.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("discord webhook returned %d", resp.StatusCode)
	}
	return nil
}

func buildDiscordMessage(warning types.Warning, match types.Match, isTrial bool) discordMessage {
	loc := match.Location

	description := TruncateDescription(warning.Description)
	if isTrial {
		description += "\n\n*Pesan ini dikirim dalam mode trial (berlaku 24 jam).*"
	}

	fields := []discordEmbedField{
		{Name: "Lokasi", Value: loc.DisplayLabel(), Inline: true},
		{Name: "Tingkat", Value: string(warning.Severity), Inline: true},
		{Name: "Wilayah terdeteksi", Value: fmt.Sprintf("%s (%s)", match.MatchedText, match.MatchType), Inline: true},
	}
	if warning.Effective != "" {
		fields = append(fields, discordEmbedField{Name: "Berlaku", Value: FormatTimestamp(warning.Effective), Inline: true})
	}
	if warning.Expires != "" {
		fields = append(fields, discordEmbedField{Name: "Berakhir", Value: FormatTimestamp(warning.Expires), Inline: true})
	}

	return discordMessage{
		Username: "BMKG Alert",
		Embeds: []discordEmbed{{
			Title:       fmt.Sprintf("%s %s", SeverityEmoji(warning.Severity), warning.Event),
			URL:         warning.InfographicURL,
			Description: description,
			Color:       severityColor(warning.Severity),
			Fields:      fields,
		}},
	}
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// SlackSender posts alerts to a Slack incoming webhook.
type SlackSender struct {
	logger *slog.Logger
}

// NewSlackSender creates the Slack sender.
func NewSlackSender(logger *slog.Logger) *SlackSender {
	return &SlackSender{logger: logger.With("sender", "slack")}
}

// Send implements Sender.
func (s *SlackSender) Send(ctx context.Context, warning types.Warning, match types.Match, config json.RawMessage, isTrial bool) error {
	cfg, err := decodeSlackConfig(config)
	if err != nil {
		return err
	}

	if err := slack.PostWebhookContext(ctx, cfg.WebhookURL, buildSlackMessage(warning, match, isTrial)); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// SendRaw implements Sender.
func (s *SlackSender) SendRaw(ctx context.Context, config json.RawMessage, message string) error {
	cfg, err := decodeSlackConfig(config)
	if err != nil {
		return err
	}

	if err := slack.PostWebhookContext(ctx, cfg.WebhookURL, &slack.WebhookMessage{Text: message}); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

func buildSlackMessage(warning types.Warning, match types.Match, isTrial bool) *slack.WebhookMessage {
	loc := match.Location

	text := TruncateDescription(warning.Description)
	if isTrial {
		text += "\n_Pesan ini dikirim dalam mode trial (berlaku 24 jam)._"
	}

	fields := []slack.AttachmentField{
		{Title: "Lokasi", Value: loc.DisplayLabel(), Short: true},
		{Title: "Tingkat", Value: string(warning.Severity), Short: true},
		{Title: "Wilayah terdeteksi", Value: fmt.Sprintf("%s (%s)", match.MatchedText, match.MatchType), Short: true},
	}
	if warning.Expires != "" {
		fields = append(fields, slack.AttachmentField{Title: "Berakhir", Value: FormatTimestamp(warning.Expires), Short: true})
	}

	return &slack.WebhookMessage{
		Text: fmt.Sprintf("%s %s", SeverityEmoji(warning.Severity), warning.Event),
		Attachments: []slack.Attachment{{
			Color:     fmt.Sprintf("#%06X", severityColor(warning.Severity)),
			Title:     warning.Event,
			TitleLink: warning.InfographicURL,
			Text:      text,
			Fields:    fields,
		}},
	}
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// WebhookSender posts a structured JSON payload to an arbitrary endpoint.
type WebhookSender struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookSender creates the generic webhook sender.
func NewWebhookSender(logger *slog.Logger) *WebhookSender {
	return &WebhookSender{
		httpClient: &http.Client{Timeout: senderTimeout},
		logger:     logger.With("sender", "webhook"),
	}
}

// webhookPayload is the wire format for generic webhook consumers.
type webhookPayload struct {
	Event          string `json:"event"`
	Severity       string `json:"severity"`
	Urgency        string `json:"urgency,omitempty"`
	Headline       string `json:"headline,omitempty"`
	Description    string `json:"description,omitempty"`
	Effective      string `json:"effective,omitempty"`
	Expires        string `json:"expires,omitempty"`
	InfographicURL string `json:"infographic_url,omitempty"`

	Location struct {
		Label       string `json:"label"`
		Subdistrict string `json:"subdistrict"`
		District    string `json:"district"`
		Province    string `json:"province"`
	} `json:"location"`

	MatchType   string `json:"match_type"`
	MatchedText string `json:"matched_text"`
	IsTrial     bool   `json:"is_trial"`
	Timestamp   string `json:"timestamp"`
}

// Send implements Sender.
func (s *WebhookSender) Send(ctx context.Context, warning types.Warning, match types.Match, config json.RawMessage, isTrial bool) error {
	cfg, err := decodeWebhookConfig(config)
	if err != nil {
		return err
	}

	payload := webhookPayload{
		Event:          warning.Event,
		Severity:       string(warning.Severity),
		Urgency:        warning.Urgency,
		Headline:       warning.Headline,
		Description:    TruncateDescription(warning.Description),
		Effective:      warning.Effective,
		Expires:        warning.Expires,
		InfographicURL: warning.InfographicURL,
		MatchType:      string(match.MatchType),
		MatchedText:    match.MatchedText,
		IsTrial:        isTrial,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	payload.Location.Label = match.Location.DisplayLabel()
	payload.Location.Subdistrict = match.Location.SubdistrictName
	payload.Location.District = match.Location.DistrictName
	payload.Location.Province = match.Location.ProvinceName

	return s.post(ctx, cfg, payload)
}

// SendRaw implements Sender.
func (s *WebhookSender) SendRaw(ctx context.Context, config json.RawMessage, message string) error {
	cfg, err := decodeWebhookConfig(config)
	if err != nil {
		return err
	}
	return s.post(ctx, cfg, map[string]string{
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *WebhookSender) post(ctx context.Context, cfg *WebhookConfig, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.URL, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// EmailSender delivers alerts over SMTP with STARTTLS when the server offers
// it (net/smtp upgrades automatically on port 587).
type EmailSender struct {
	logger *slog.Logger
}

// NewEmailSender creates the email sender.
func NewEmailSender(logger *slog.Logger) *EmailSender {
	return &EmailSender{logger: logger.With("sender", "email")}
}

// Send implements Sender.
func (s *EmailSender) Send(ctx context.Context, warning types.Warning, match types.Match, config json.RawMessage, isTrial bool) error {
	cfg, err := decodeEmailConfig(config)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("[%s] Peringatan Dini Cuaca: %s", warning.Severity, warning.Event)
	body := FormatAlertMessage(warning, match, isTrial)
	return s.deliver(ctx, cfg, subject, body)
}

// SendRaw implements Sender.
func (s *EmailSender) SendRaw(ctx context.Context, config json.RawMessage, message string) error {
	cfg, err := decodeEmailConfig(config)
	if err != nil {
		return err
	}
	return s.deliver(ctx, cfg, "BMKG Alert", message)
}

// deliver sends one message. smtp.SendMail has no context support, so the
// send runs in a goroutine and the result is raced against ctx expiry; an
// abandoned attempt finishes in the background on its own TCP timeouts.
func (s *EmailSender) deliver(ctx context.Context, cfg *EmailConfig, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}

	msg := buildEmailMessage(cfg.From, cfg.To, subject, body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, cfg.From, cfg.To, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func buildEmailMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

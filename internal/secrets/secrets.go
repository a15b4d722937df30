// Package secrets resolves system credentials at startup.
//
// The engine needs a system Telegram bot token for the trial pipeline and the
// admin surface needs a password hash. Production deployments keep these in a
// 1Password Connect vault; the env backend serves development and tests.
package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Well-known secret names.
const (
	SecretTrialBotToken     = "trial-bot-token"
	SecretAdminPasswordHash = "admin-password-hash"
)

// Resolver looks up one named secret. A missing secret is ("", nil): most
// secrets are optional and the caller decides whether absence is fatal.
type Resolver interface {
	Get(ctx context.Context, name string) (string, error)
	Close() error
}

// Config holds configuration for the secrets backend.
type Config struct {
	// Backend selects the implementation: "1password", "env", or "auto".
	// "auto" (default) uses 1Password when configured, otherwise env.
	Backend string

	// 1Password Connect settings.
	ConnectHost  string // OP_CONNECT_HOST
	ConnectToken string // OP_CONNECT_TOKEN
	VaultID      string // OP_VAULT_ID
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	backend := os.Getenv("BMKGALERT_SECRETS_BACKEND")
	if backend == "" {
		backend = "auto"
	}
	return Config{
		Backend:      backend,
		ConnectHost:  os.Getenv("OP_CONNECT_HOST"),
		ConnectToken: os.Getenv("OP_CONNECT_TOKEN"),
		VaultID:      os.Getenv("OP_VAULT_ID"),
	}
}

// NewResolver creates a Resolver based on configuration.
func NewResolver(cfg Config, logger *slog.Logger) (Resolver, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = "auto"
	}

	switch backend {
	case "1password":
		return NewOnePasswordResolver(cfg, logger)

	case "env":
		return NewEnvResolver(), nil

	case "auto":
		if cfg.ConnectHost != "" && cfg.ConnectToken != "" && cfg.VaultID != "" {
			r, err := NewOnePasswordResolver(cfg, logger)
			if err != nil {
				logger.Warn("1Password Connect unavailable, falling back to env secrets", "error", err)
				return NewEnvResolver(), nil
			}
			return r, nil
		}
		logger.Info("1Password Connect not configured, using env secrets")
		return NewEnvResolver(), nil

	default:
		return nil, fmt.Errorf("unknown secrets backend: %s", backend)
	}
}

// EnvResolver reads secrets from BMKGALERT_SECRET_* environment variables.
// The name "trial-bot-token" maps to BMKGALERT_SECRET_TRIAL_BOT_TOKEN.
type EnvResolver struct{}

// NewEnvResolver creates the env-backed resolver.
func NewEnvResolver() *EnvResolver {
	return &EnvResolver{}
}

// Get implements Resolver.
func (r *EnvResolver) Get(ctx context.Context, name string) (string, error) {
	key := "BMKGALERT_SECRET_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	return os.Getenv(key), nil
}

// Close implements Resolver.
func (r *EnvResolver) Close() error {
	return nil
}

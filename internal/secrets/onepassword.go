package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/1Password/connect-sdk-go/connect"
)

// OnePasswordResolver reads secrets from a 1Password Connect vault. Items are
// matched by title; the value comes from the item's concealed "credential"
// field (falling back to "password").
type OnePasswordResolver struct {
	client  connect.Client
	vaultID string
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewOnePasswordResolver creates a Connect-backed resolver.
func NewOnePasswordResolver(cfg Config, logger *slog.Logger) (*OnePasswordResolver, error) {
	if cfg.ConnectHost == "" || cfg.ConnectToken == "" || cfg.VaultID == "" {
		return nil, fmt.Errorf("1Password configuration incomplete: host, token, and vault_id are required")
	}

	client := connect.NewClientWithUserAgent(cfg.ConnectHost, cfg.ConnectToken, "bmkg-alert")

	return &OnePasswordResolver{
		client:  client,
		vaultID: cfg.VaultID,
		logger:  logger.With("component", "secrets"),
		cache:   make(map[string]string),
	}, nil
}

// Get implements Resolver. Values are cached for the process lifetime;
// rotating a secret requires a restart.
func (r *OnePasswordResolver) Get(ctx context.Context, name string) (string, error) {
	r.mu.RLock()
	if cached, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	items, err := r.client.GetItemsByTitle(name, r.vaultID)
	if err != nil {
		if isNotFoundError(err) {
			return "", nil
		}
		return "", fmt.Errorf("listing vault items: %w", err)
	}
	if len(items) == 0 {
		return "", nil
	}

	item, err := r.client.GetItem(items[0].ID, r.vaultID)
	if err != nil {
		return "", fmt.Errorf("getting vault item %s: %w", name, err)
	}

	var value string
	for _, field := range item.Fields {
		switch field.ID {
		case "credential":
			value = field.Value
		case "password":
			if value == "" {
				value = field.Value
			}
		}
	}
	if value == "" {
		return "", fmt.Errorf("vault item %s has no credential field", name)
	}

	r.mu.Lock()
	r.cache[name] = value
	r.mu.Unlock()

	r.logger.Debug("secret resolved from vault", "name", name)
	return value, nil
}

// Close implements Resolver.
func (r *OnePasswordResolver) Close() error {
	r.mu.Lock()
	r.cache = make(map[string]string)
	r.mu.Unlock()
	return nil
}

// isNotFoundError checks whether a Connect error is a missing item.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404") || strings.Contains(msg, "no items")
}

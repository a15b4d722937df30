// Package auth guards the mutating admin routes.
//
// Login verifies the admin password against a bcrypt hash and issues an
// opaque in-memory bearer token. Tokens do not survive a restart; this is a
// single-admin service and re-login is cheap. Read-only routes stay open.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long an issued token stays valid.
const DefaultSessionTTL = 24 * time.Hour

// ErrInvalidCredentials is returned for a wrong password.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

// Authenticator verifies logins and tracks issued bearer tokens.
type Authenticator struct {
	passwordHash []byte
	sessionTTL   time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[string]time.Time // token -> expiry

	now func() time.Time // test seam
}

// New creates an authenticator. passwordHash is a bcrypt hash; when empty the
// admin surface runs unauthenticated (development mode) and Enabled reports
// false.
func New(passwordHash string, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		passwordHash: []byte(passwordHash),
		sessionTTL:   DefaultSessionTTL,
		logger:       logger.With("component", "auth"),
		sessions:     make(map[string]time.Time),
		now:          time.Now,
	}
}

// Enabled reports whether a password hash is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.passwordHash) > 0
}

// Login verifies the password and returns a fresh bearer token.
func (a *Authenticator) Login(ctx context.Context, password string) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("authentication not configured")
	}

	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		a.logger.Warn("login rejected")
		return "", ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	a.mu.Lock()
	a.pruneLocked()
	a.sessions[token] = a.now().Add(a.sessionTTL)
	a.mu.Unlock()

	a.logger.Info("admin login")
	return token, nil
}

// Validate reports whether a bearer token is a live session.
func (a *Authenticator) Validate(token string) bool {
	if token == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	expiry, ok := a.sessions[token]
	if !ok {
		return false
	}
	if a.now().After(expiry) {
		delete(a.sessions, token)
		return false
	}
	return true
}

// Logout revokes a token.
func (a *Authenticator) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// pruneLocked drops expired sessions. Caller holds the mutex.
func (a *Authenticator) pruneLocked() {
	now := a.now()
	for token, expiry := range a.sessions {
		if now.After(expiry) {
			delete(a.sessions, token)
		}
	}
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword produces a bcrypt hash for setup tooling.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

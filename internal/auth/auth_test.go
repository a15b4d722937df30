package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dhanyyudi/bmkg-alert/internal/testutil"
)

func newTestAuthenticator(t *testing.T, password string) *Authenticator {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return New(hash, testutil.NewTestLogger())
}

func TestLoginAndValidate(t *testing.T) {
	a := newTestAuthenticator(t, "hunter2")

	token, err := a.Login(context.Background(), "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if !a.Validate(token) {
		t.Error("fresh token rejected")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	a := newTestAuthenticator(t, "hunter2")

	_, err := a.Login(context.Background(), "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	a := newTestAuthenticator(t, "hunter2")

	if a.Validate("bogus") {
		t.Error("unknown token accepted")
	}
	if a.Validate("") {
		t.Error("empty token accepted")
	}
}

func TestTokenExpiry(t *testing.T) {
	a := newTestAuthenticator(t, "hunter2")

	current := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return current }

	token, err := a.Login(context.Background(), "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !a.Validate(token) {
		t.Fatal("fresh token rejected")
	}

	current = current.Add(DefaultSessionTTL + time.Minute)
	if a.Validate(token) {
		t.Error("expired token accepted")
	}
}

func TestLogout(t *testing.T) {
	a := newTestAuthenticator(t, "hunter2")

	token, _ := a.Login(context.Background(), "hunter2")
	a.Logout(token)
	if a.Validate(token) {
		t.Error("revoked token accepted")
	}
}

func TestDisabledWithoutHash(t *testing.T) {
	a := New("", testutil.NewTestLogger())
	if a.Enabled() {
		t.Error("authenticator enabled without a hash")
	}
	if _, err := a.Login(context.Background(), "anything"); err == nil {
		t.Error("login succeeded without a configured hash")
	}
}

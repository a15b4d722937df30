package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dhanyyudi/bmkg-alert/internal/testutil"
)

const telegramTestToken = "123456:test-token"

func telegramTestResponse(method string) string {
	if strings.HasSuffix(method, "getMe") {
		return `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"bmkg","username":"bmkg_test_bot"}}`
	}
	return `{"ok":true,"result":{"message_id":1}}`
}

// newTelegramTestServer fakes the bot API. It records sendMessage form values
// and answers getMe so bot construction succeeds.
func newTelegramTestServer(t *testing.T) (*httptest.Server, *map[string]string) {
	t.Helper()
	sent := make(map[string]string)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "sendMessage") {
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			for key, values := range r.Form {
				sent[key] = values[0]
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(telegramTestResponse(r.URL.Path)))
	}))
	t.Cleanup(ts.Close)
	return ts, &sent
}

func TestSendTelegramMessageNumericChat(t *testing.T) {
	ts, sent := newTelegramTestServer(t)

	err := sendTelegramMessage(context.Background(), ts.URL+"/bot%s/%s", telegramTestToken, "-1001234", "halo")
	if err != nil {
		t.Fatalf("sendTelegramMessage: %v", err)
	}
	if got := (*sent)["chat_id"]; got != "-1001234" {
		t.Errorf("chat_id = %q, want -1001234", got)
	}
	if got := (*sent)["text"]; got != "halo" {
		t.Errorf("text = %q, want halo", got)
	}
}

func TestSendTelegramMessageChannelUsername(t *testing.T) {
	ts, sent := newTelegramTestServer(t)

	err := sendTelegramMessage(context.Background(), ts.URL+"/bot%s/%s", telegramTestToken, "@bmkg_updates", "halo")
	if err != nil {
		t.Fatalf("sendTelegramMessage: %v", err)
	}
	if got := (*sent)["chat_id"]; got != "@bmkg_updates" {
		t.Errorf("chat_id = %q, want @bmkg_updates", got)
	}
}

func TestTelegramBotInfo(t *testing.T) {
	ts, _ := newTelegramTestServer(t)

	username, err := telegramBotInfo(context.Background(), ts.URL+"/bot%s/%s", telegramTestToken)
	if err != nil {
		t.Fatalf("telegramBotInfo: %v", err)
	}
	if username != "bmkg_test_bot" {
		t.Errorf("username = %q, want bmkg_test_bot", username)
	}
}

// A stalled bot API must not hold the caller past its context deadline.
func TestSendTelegramMessageHonorsContext(t *testing.T) {
	stop := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "sendMessage") {
			select {
			case <-stop:
			case <-r.Context().Done():
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(telegramTestResponse(r.URL.Path)))
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(stop) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := sendTelegramMessage(ctx, ts.URL+"/bot%s/%s", telegramTestToken, "99", "halo")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("send blocked for %v past its deadline", elapsed)
	}
}

func TestTelegramHTTPClientHasTimeout(t *testing.T) {
	if telegramHTTPClient.Timeout != senderTimeout {
		t.Errorf("telegram client timeout = %v, want %v", telegramHTTPClient.Timeout, senderTimeout)
	}
}

func TestTelegramSenderRejectsBadConfig(t *testing.T) {
	s := NewTelegramSender(testutil.NewTestLogger())
	err := s.SendRaw(context.Background(), json.RawMessage(`{"chat_id":"1"}`), "halo")
	if err == nil || !strings.Contains(err.Error(), "bot_token") {
		t.Errorf("err = %v, want bot_token validation error", err)
	}
}

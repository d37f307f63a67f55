package mailer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverPostsToWebhook(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	t.Setenv("EMAIL_WEBHOOK_URL", srv.URL)
	m := New()
	m.SendTenantOnboardingWithPassword("asha@example.com", "Asha", "Sunrise PG", "101", "abcdef123456")

	assert.Equal(t, "asha@example.com", got.To)
	assert.Contains(t, got.Subject, "Sunrise PG")
	assert.Contains(t, got.Body, "abcdef123456")
	assert.Contains(t, got.Body, "room 101")
}

func TestLogOnlyModeDoesNotPanic(t *testing.T) {
	t.Setenv("EMAIL_WEBHOOK_URL", "")
	m := New()
	m.SendTenantWelcome("asha@example.com", "Asha", "Sunrise PG", "101")
}

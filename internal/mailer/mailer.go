// Package mailer delivers transactional email through an external
// delivery webhook. Delivery is best-effort: every failure is logged and
// swallowed, so a mail outage can never fail or roll back the workflow
// operation that triggered the message.
package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// Mailer posts rendered messages to the configured EMAIL_WEBHOOK_URL.
// When the variable is unset the mailer runs in log-only mode, which is
// the default for development and tests.
type Mailer struct {
	webhookURL string
	client     *http.Client
}

// New builds a Mailer from the environment. The HTTP client carries its
// own timeout so a slow mail provider cannot hold a goroutine for long.
func New() *Mailer {
	return &Mailer{
		webhookURL: os.Getenv("EMAIL_WEBHOOK_URL"),
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

type message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendTenantWelcome greets a freshly onboarded tenant who already had a
// working account.
func (m *Mailer) SendTenantWelcome(to, name, pgName, roomNumber string) {
	m.deliver(message{
		To:      to,
		Subject: "Welcome to " + pgName,
		Body: fmt.Sprintf("Hi %s, your onboarding was approved. You are now a tenant of %s, room %s. Log in to see your rent details.",
			name, pgName, roomNumber),
	})
}

// SendTenantOnboardingWithPassword is used when onboarding provisioned a
// temporary password for an account that had no usable credentials.
func (m *Mailer) SendTenantOnboardingWithPassword(to, name, pgName, roomNumber, tempPassword string) {
	m.deliver(message{
		To:      to,
		Subject: "Your room at " + pgName + " is ready",
		Body: fmt.Sprintf("Hi %s, your onboarding was approved for %s, room %s. A temporary password was set for your account: %s. Please change it after your first login.",
			name, pgName, roomNumber, tempPassword),
	})
}

// SendTenantOnboardingExistingUser is used when a tenant who previously
// lived in another of the owner's pgs re-onboards.
func (m *Mailer) SendTenantOnboardingExistingUser(to, name, pgName, roomNumber string) {
	m.deliver(message{
		To:      to,
		Subject: "Your move to " + pgName + " is confirmed",
		Body: fmt.Sprintf("Hi %s, welcome back. Your tenancy has been moved to %s, room %s. Your existing login keeps working.",
			name, pgName, roomNumber),
	})
}

// deliver posts the message to the webhook, or logs it when no webhook
// is configured. Errors are logged only.
func (m *Mailer) deliver(msg message) {
	if m.webhookURL == "" {
		log.Printf("mailer: (log-only) to=%s subject=%q", msg.To, msg.Subject)
		return
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("mailer: marshal failed: %v", err)
		return
	}
	resp, err := m.client.Post(m.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("mailer: delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("mailer: delivery rejected: status=%d to=%s", resp.StatusCode, msg.To)
	}
}

// Package email delivers contact-form mail. SMTPSender talks to a real
// server; NoopSender logs instead and is used when SMTP is not configured.
package email

import (
	"context"
	"strings"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// headerSafe strips line breaks so user-supplied values cannot inject
// extra headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}

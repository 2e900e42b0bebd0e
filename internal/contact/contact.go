// Package contact handles the site's contact form.
package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/internal/email"
	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// Submission is one contact-form post.
type Submission struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

// Service validates submissions and forwards them to the site inbox.
type Service struct {
	mailer email.Sender
	to     string
	logger *zap.Logger
}

// NewService creates a Service delivering to the inbox address to.
func NewService(mailer email.Sender, to string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{mailer: mailer, to: to, logger: logger}
}

// Submit validates s and sends it. Validation failures are returned as
// *client.ValidationError and nothing is sent.
func (svc *Service) Submit(ctx context.Context, s Submission) error {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Subject = strings.TrimSpace(s.Subject)
	s.Message = strings.TrimSpace(s.Message)
	if err := client.Validate(s); err != nil {
		return err
	}
	if svc.to == "" {
		return errors.New("contact: no inbox address configured")
	}

	subject := "Contact form: " + s.Name
	if s.Subject != "" {
		subject += " - " + s.Subject
	}
	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", s.Name, s.Email, s.Message)

	if err := svc.mailer.Send(ctx, email.Message{
		To:      svc.to,
		ReplyTo: s.Email,
		Subject: subject,
		Body:    body,
	}); err != nil {
		svc.logger.Error("contact delivery failed", zap.Error(err))
		return fmt.Errorf("send contact message: %w", err)
	}
	svc.logger.Info("contact message sent", zap.String("reply_to", s.Email))
	return nil
}

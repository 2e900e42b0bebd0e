package contact_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Dongwon38/wpyvr-sub000/internal/contact"
	"github.com/Dongwon38/wpyvr-sub000/internal/email"
	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

type recordingSender struct {
	sent []email.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg email.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestSubmit_sends(t *testing.T) {
	rec := &recordingSender{}
	svc := contact.NewService(rec, "hello@wpyvr.org", nil)

	err := svc.Submit(context.Background(), contact.Submission{
		Name:    "  Ann ",
		Email:   "ann@example.com",
		Subject: "Meetup",
		Message: "When is the next one?",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(rec.sent) != 1 {
		t.Fatalf("sent %d messages", len(rec.sent))
	}
	msg := rec.sent[0]
	if msg.To != "hello@wpyvr.org" || msg.ReplyTo != "ann@example.com" {
		t.Errorf("msg = %+v", msg)
	}
	if msg.Subject != "Contact form: Ann - Meetup" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "When is the next one?") {
		t.Errorf("Body = %q", msg.Body)
	}
}

func TestSubmit_validation(t *testing.T) {
	cases := []struct {
		name  string
		in    contact.Submission
		field string
	}{
		{"missing name", contact.Submission{Email: "a@b.org", Message: "hi"}, "name"},
		{"blank name", contact.Submission{Name: "   ", Email: "a@b.org", Message: "hi"}, "name"},
		{"missing email", contact.Submission{Name: "Ann", Message: "hi"}, "email"},
		{"bad email", contact.Submission{Name: "Ann", Email: "not-an-email", Message: "hi"}, "email"},
		{"missing message", contact.Submission{Name: "Ann", Email: "a@b.org"}, "message"},
		{"long message", contact.Submission{Name: "Ann", Email: "a@b.org", Message: strings.Repeat("x", 5001)}, "message"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recordingSender{}
			err := contact.NewService(rec, "hello@wpyvr.org", nil).Submit(context.Background(), tc.in)
			var ve *client.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("Field = %q, want %q", ve.Field, tc.field)
			}
			if len(rec.sent) != 0 {
				t.Error("nothing should be sent on validation failure")
			}
		})
	}
}

func TestSubmit_deliveryFailure(t *testing.T) {
	boom := errors.New("smtp down")
	svc := contact.NewService(&recordingSender{err: boom}, "hello@wpyvr.org", nil)
	err := svc.Submit(context.Background(), contact.Submission{Name: "Ann", Email: "a@b.org", Message: "hi"})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestSubmit_noInbox(t *testing.T) {
	rec := &recordingSender{}
	err := contact.NewService(rec, "", nil).Submit(context.Background(), contact.Submission{Name: "Ann", Email: "a@b.org", Message: "hi"})
	if err == nil || len(rec.sent) != 0 {
		t.Errorf("err = %v sent = %d", err, len(rec.sent))
	}
}

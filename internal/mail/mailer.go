// Package mail delivers verification and password-reset links.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
)

var ErrDelivery = errors.New("email delivery failed")

type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer is the outbound email provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer records that a message would have been sent. Used when no
// provider API key is configured. Bodies carry live tokens and are never
// logged.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	slog.Info("email not sent (no provider configured)", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Sender builds and delivers one kind of templated email for a user.
type Sender struct {
	mailer  Mailer
	kind    kind
	timeout time.Duration
	ttl     time.Duration
}

func (s *Sender) Send(ctx context.Context, user *models.User, url, token string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	msg, err := render(s.kind, user, url, s.ttl)
	if err != nil {
		return fmt.Errorf("%w: render %s: %w", ErrDelivery, s.kind, err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.Error("email send failed", "action", string(s.kind), "user_id", user.ID.String(), "error", err)
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	slog.Info("email sent", "action", string(s.kind), "user_id", user.ID.String())
	return nil
}

// ResetPasswordSender returns the password-reset delivery function. ttl is
// quoted in the message body.
func ResetPasswordSender(m Mailer, timeout, ttl time.Duration) func(ctx context.Context, user *models.User, url, token string) error {
	s := &Sender{mailer: m, kind: kindResetPassword, timeout: timeout, ttl: ttl}
	return s.Send
}

// VerificationSender returns the email-verification delivery function.
func VerificationSender(m Mailer, timeout time.Duration) func(ctx context.Context, user *models.User, url, token string) error {
	s := &Sender{mailer: m, kind: kindVerifyEmail, timeout: timeout}
	return s.Send
}

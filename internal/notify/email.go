// Package notify emails the practice when an appointment request arrives.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	defaultFromName = "Recovery Kneads"
	// category lets the practice filter request notifications in SendGrid.
	category = "appointment-request"
)

var errNoSendGrid = errors.New("notify: sendgrid not configured")

// Email is a plain-text message to the practice inbox.
type Email struct {
	To      string
	Subject string
	Text    string
}

// EmailSender delivers practice notifications.
type EmailSender interface {
	Send(ctx context.Context, e Email) error
}

// SendGridConfig is the sending identity for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *zap.Logger
}

// NewSendGridSender returns nil when no API key is configured, so callers
// can fall back to LogSender.
func NewSendGridSender(cfg SendGridConfig, logger *zap.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	name := cfg.FromName
	if name == "" {
		name = defaultFromName
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   mail.NewEmail(name, cfg.FromEmail),
		logger: logger.With(zap.String("sender", "sendgrid")),
	}
}

// Send posts e as a single-recipient text message.  A non-2xx status is an
// error; the recipient address is never logged.
func (s *SendGridSender) Send(ctx context.Context, e Email) error {
	if s == nil || s.client == nil {
		return errNoSendGrid
	}
	m := mail.NewV3Mail()
	m.SetFrom(s.from)
	m.Subject = e.Subject
	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", e.To))
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/plain", e.Text))
	m.AddCategories(category)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		s.logger.Warn("notification not delivered", zap.String("subject", e.Subject), zap.Error(err))
		return fmt.Errorf("notify: send: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		s.logger.Warn("notification rejected", zap.String("subject", e.Subject), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("notify: sendgrid status %d", resp.StatusCode)
	}
	s.logger.Debug("notification delivered", zap.String("subject", e.Subject))
	return nil
}

// LogSender writes notifications to the log instead of mailing them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the subject and size; the text may name the service booked, so
// it stays out of the log.
func (s *LogSender) Send(_ context.Context, e Email) error {
	s.logger.Info("notification (not mailed)", zap.String("subject", e.Subject), zap.Int("bytes", len(e.Text)))
	return nil
}

// Package notify sends outbound email to staff members.
package notify

import (
	"fmt"

	"github.com/fixpoint-as/repair-api/internal/config"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Mailer sends plain-text email through the configured SMTP relay. A nil
// Mailer is safe to call and drops messages, so callers do not need to guard
// on whether mail is enabled.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewMailer creates a mailer from config. Returns nil when mail is disabled
// or the SMTP host is not configured.
func NewMailer(cfg *config.MailConfig, logger *zap.Logger) *Mailer {
	if cfg == nil || !cfg.Enabled || cfg.Host == "" {
		logger.Info("Outbound mail disabled")
		return nil
	}

	logger.Info("Outbound mail enabled",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("from", cfg.From),
	)

	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if m == nil {
		return nil
	}
	if to == "" {
		return fmt.Errorf("missing recipient address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	m.logger.Debug("mail sent",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

// Package mailer delivers password reset links over SMTP, or writes them to
// the log when no SMTP host is configured.
package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AnthoniusHendriyanto/backoffice-auth/config"
	"github.com/rs/zerolog"
)

const resetSubject = "Reset your back-office password"

type Sender interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

type Message struct {
	FromEmail string
	ToEmail   string
	Subject   string
	TextBody  string
}

// New picks the SMTP mailer when SMTP_HOST is set and the log mailer
// otherwise. The log mailer refuses to deliver in production.
func New(cfg *config.Config, logger zerolog.Logger) Sender {
	if cfg.SMTPHost != "" {
		return NewSMTPMailer(SMTPSettings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			TLSMode:  cfg.SMTPTLSMode,
			From:     cfg.SMTPFrom,
			ResetTTL: cfg.ResetTokenTTL,
		})
	}
	return NewLogMailer(logger, cfg.IsProduction())
}

func resetMessage(from, to, resetURL string, ttl time.Duration) Message {
	linkLine := "Reset your password using this link:"
	if ttl > 0 {
		linkLine = "Reset your password using this link (valid for " + humanDuration(ttl) + "):"
	}
	return Message{
		FromEmail: from,
		ToEmail:   to,
		Subject:   resetSubject,
		TextBody: strings.Join([]string{
			"You requested a password reset.",
			"",
			linkLine,
			resetURL,
			"",
			"If you did not request this, you can ignore this email.",
		}, "\n"),
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d == time.Minute:
		return "1 minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}

package mailer

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

var ErrNotConfigured = errors.New("mailer: SMTP is not configured")

// LogMailer writes reset links to the log for local development.
type LogMailer struct {
	logger     zerolog.Logger
	production bool
}

func NewLogMailer(logger zerolog.Logger, production bool) *LogMailer {
	return &LogMailer{logger: logger, production: production}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	if m.production {
		return ErrNotConfigured
	}
	m.logger.Info().Str("to", to).Str("reset_url", resetURL).Msg("password reset link (SMTP not configured)")
	return nil
}

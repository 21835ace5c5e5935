package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

const (
	dialTimeout = 10 * time.Second
	// DefaultSendTimeout bounds the whole SMTP conversation when the caller's
	// context carries no earlier deadline.
	DefaultSendTimeout = 30 * time.Second
)

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	// TLSMode is "starttls" (default), "tls" or "none".
	TLSMode string
	From    string
	// SendTimeout defaults to DefaultSendTimeout.
	SendTimeout time.Duration
	// ResetTTL is quoted in the reset email; zero omits it.
	ResetTTL time.Duration
}

type SMTPMailer struct {
	settings SMTPSettings
}

func NewSMTPMailer(settings SMTPSettings) *SMTPMailer {
	if settings.SendTimeout <= 0 {
		settings.SendTimeout = DefaultSendTimeout
	}
	return &SMTPMailer{settings: settings}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	return m.Send(ctx, resetMessage(m.settings.From, to, resetURL, m.settings.ResetTTL))
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(m.settings.Host, fmt.Sprint(m.settings.Port))
	client, err := m.connect(ctx, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if m.settings.Username != "" {
		auth := smtp.PlainAuth("", m.settings.Username, m.settings.Password, m.settings.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(msg.FromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := client.Rcpt(msg.ToEmail); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write([]byte(buildMessage(msg))); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	if err := client.Quit(); err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
		return fmt.Errorf("smtp quit: %w", err)
	}
	return nil
}

func (m *SMTPMailer) connect(ctx context.Context, addr string) (*smtp.Client, error) {
	tlsConfig := &tls.Config{ServerName: m.settings.Host, MinVersion: tls.VersionTLS12}
	dialer := &net.Dialer{Timeout: dialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if m.settings.TLSMode == "tls" {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp dial: %w", err)
	}
	deadline := time.Now().Add(m.settings.SendTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, m.settings.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	if m.settings.TLSMode == "" || m.settings.TLSMode == "starttls" {
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
	}
	return client, nil
}

func buildMessage(msg Message) string {
	lines := []string{
		"From: " + msg.FromEmail,
		"To: " + msg.ToEmail,
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		strings.ReplaceAll(msg.TextBody, "\n", "\r\n"),
	}
	return strings.Join(lines, "\r\n")
}

package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// SMTPSender delivers email through a plain SMTP relay using AUTH PLAIN when
// credentials are configured.
type SMTPSender struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, pass: pass, from: from}
}

func (s *SMTPSender) SendEmail(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogEmailSender writes outgoing mail to the log instead of delivering it.
// Used when SMTP is not configured, so notification flows still exercise the
// full template path in development.
type LogEmailSender struct {
	logger zerolog.Logger
}

func NewLogEmailSender(logger zerolog.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (l *LogEmailSender) SendEmail(_ context.Context, to, subject, _ string) error {
	l.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Msg("email delivery skipped: SMTP not configured")
	return nil
}

// LogSMSSender is the SMS counterpart of LogEmailSender. No SMS gateway is
// wired in this deployment.
type LogSMSSender struct {
	logger zerolog.Logger
}

func NewLogSMSSender(logger zerolog.Logger) *LogSMSSender {
	return &LogSMSSender{logger: logger}
}

func (l *LogSMSSender) SendSMS(_ context.Context, to, _ string) error {
	l.logger.Info().
		Str("to", to).
		Msg("sms delivery skipped: no gateway configured")
	return nil
}

package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	"shopbackend/internal/config"
)

// Mailer delivers transactional mail. Tasks treat delivery failures as
// retryable, so implementations should return an error rather than swallow
// one.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	host string
	port int
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		host: cfg.Host,
		port: cfg.Port,
		auth: auth,
		from: cfg.FromAddress,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, m.auth, m.from, to, []byte(msg.String()))
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	}
}

// LogMailer writes mail to the log instead of sending it. Used in
// development and tests when no SMTP relay is configured.
type LogMailer struct {
	log *logrus.Logger
}

func NewLogMailer(log *logrus.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to []string, subject, body string) error {
	m.log.WithFields(logrus.Fields{
		"to":      strings.Join(to, ", "),
		"subject": subject,
	}).Infof("mail (not sent):\n%s", body)
	return nil
}

// FromConfig picks the SMTP mailer when a host is configured, the log mailer
// otherwise.
func FromConfig(cfg config.SMTPConfig, log *logrus.Logger) Mailer {
	if cfg.Host == "" {
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg)
}

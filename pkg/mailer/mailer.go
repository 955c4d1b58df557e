// Package mailer delivers outbound mail through an SMTP relay.
package mailer

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/khoido2003/natour-api/pkg/config"
)

// Message is a single outbound mail.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends through the configured relay.
type SMTPMailer struct {
	from   string
	dialer dialer
}

// NewSMTPMailer builds a mailer for cfg. Without credentials the relay is used unauthenticated.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Username == "" {
		d.Auth = nil
	}
	return &SMTPMailer{from: cfg.From, dialer: d}
}

// Build renders msg into a gomail message.
func (m *SMTPMailer) Build(msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}
	return gm
}

// Send delivers msg unless ctx is already done.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.dialer.DialAndSend(m.Build(msg))
}

// LogMailer writes messages to the log instead of sending them. Used when mail is disabled.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs the envelope of msg. Bodies may carry reset links, so only their
// sizes are recorded.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("mail delivery disabled, logging message",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("text_bytes", len(msg.Text)),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}

// New picks the SMTP mailer when mail is enabled and the log mailer otherwise.
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Enabled {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(logger)
}

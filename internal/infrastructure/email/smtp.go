// Package email delivers outbound mail for notification jobs.
package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/retailhub/retailhub/internal/shared/config"
)

// Message is one outbound email. HTMLBody is optional.
type Message struct {
	To        string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPSender struct {
	from   string
	dialer dialer
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	from := cfg.FromAddress
	if cfg.FromName != "" {
		from = gomail.NewMessage().FormatAddress(cfg.FromAddress, cfg.FromName)
	}
	return &SMTPSender{
		from:   from,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("email recipient is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.PlainBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

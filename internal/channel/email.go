package channel

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email delivers notifications over SMTP.
type Email struct {
	from   string
	sender MailSender
}

func NewEmail(cfg EmailConfig) *Email {
	return NewEmailWithSender(cfg.From, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password))
}

func NewEmailWithSender(from string, sender MailSender) *Email {
	return &Email{from: from, sender: sender}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Recipient(patient model.Record) (string, error) {
	addr := patient.String("email")
	if addr == "" {
		return "", ErrNoEmail
	}
	return addr, nil
}

// Send gives up when ctx expires. The SMTP exchange itself cannot be
// interrupted and finishes in the background.
func (e *Email) Send(ctx context.Context, to, subject, message string, _ Credentials) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", message)

	done := make(chan error, 1)
	go func() { done <- e.sender.DialAndSend(m) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

package smtp

import (
	"bytes"
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"
)

type SMTP struct {
	From string
	Host string
	User string
	Pass string
	Port int
}

func New(from, host, user, pass string, port int) *SMTP {
	return &SMTP{
		From: from,
		Host: host,
		User: user,
		Pass: pass,
		Port: port,
	}
}

func (s *SMTP) Send(subject, text, html string, recipients []string) error {
	m, err := s.message(subject, text, html, recipients)
	if err != nil {
		return err
	}
	return s.dialAndSend(m)
}

func (s *SMTP) SendWithAttachment(subject, text, html string, recipients []string, filename string, attachment []byte) error {
	m, err := s.message(subject, text, html, recipients)
	if err != nil {
		return err
	}
	if err := m.AttachReader(filename, bytes.NewReader(attachment)); err != nil {
		return fmt.Errorf("attachment error: %w", err)
	}
	return s.dialAndSend(m)
}

func (s *SMTP) message(subject, text, html string, recipients []string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.From); err != nil {
		return nil, fmt.Errorf("smtp 'from' error: %w", err)
	}
	if err := m.To(recipients...); err != nil {
		return nil, fmt.Errorf("to error: %w", err)
	}
	m.Subject(subject)
	if html != "" {
		m.SetBodyString(mail.TypeTextHTML, html)
	} else {
		m.SetBodyString(mail.TypeTextPlain, text)
	}
	return m, nil
}

func (s *SMTP) dialAndSend(m *mail.Msg) error {
	c, err := mail.NewClient(
		s.Host,
		mail.WithPort(s.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.User),
		mail.WithPassword(s.Pass),
	)
	if err != nil {
		return err
	}
	return c.DialAndSendWithContext(context.Background(), m)
}

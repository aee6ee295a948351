package services

import (
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

// Mailer delivers an exported file by email.
type Mailer interface {
	SendExport(to, filename string, content []byte) error
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type mailService struct {
	sender mailSender
	from   string
}

func NewMailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) Mailer {
	return &mailService{
		sender: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
	}
}

func (s *mailService) SendExport(to, filename string, content []byte) error {
	m := s.exportMessage(to, filename, content)
	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send export email: %w", err)
	}
	return nil
}

func (s *mailService) exportMessage(to, filename string, content []byte) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your study plan: "+filename)

	body := fmt.Sprintf(`
		<h3>Your study plan export</h3>
		<p>The file <strong>%s</strong> is attached.</p>
		<p>Good luck with your studies!</p>
	`, filename)
	m.SetBody("text/html", body)
	m.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	}))
	return m
}

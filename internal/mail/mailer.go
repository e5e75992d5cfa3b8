// Package mail sends transactional e-mail. The SMTP implementation covers
// deployments with real credentials; the log mailer keeps development
// setups working without any.
package mail

import (
	"fmt"
	"log"
	"net/smtp"
)

// Mailer delivers one message to one recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends through an authenticated SMTP relay (STARTTLS ports).
type SMTPMailer struct {
	Host     string
	Port     int
	From     string
	Password string
}

// Send delivers the message via smtp.SendMail.
func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	auth := smtp.PlainAuth("", m.From, m.Password, m.Host)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.From, to, subject, body)
	if err := smtp.SendMail(addr, auth, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes the message to the log instead of sending it.
type LogMailer struct{}

// Send logs the message.
func (LogMailer) Send(to, subject, body string) error {
	log.Printf("[mail] to=%s subject=%q body=%q", to, subject, body)
	return nil
}

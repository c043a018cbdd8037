package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rogerio-castellano/storefront/internal/config"
)

// Mailer delivers one HTML message to one recipient.
type Mailer interface {
	Send(to, subject, html string) error
}

type SMTPMailer struct {
	cfg config.SMTP
}

func NewSMTPMailer(cfg config.SMTP) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, html string) error {
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		html,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%s", m.cfg.Server, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Server)
	if m.cfg.AuthDisabled {
		auth = nil
	}

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}

// Package mailer delivers the out-of-band emails the user workflow needs:
// initial credentials for provisioned accounts and password-reset links.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/acadocs/backend/internal/config"
	"github.com/acadocs/backend/pkg/logger"
)

type Mailer interface {
	SendCredentials(email, password string) error
	SendPasswordReset(email, resetLink string) error
}

type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: cfg.Host + ":" + cfg.Port,
		auth: auth,
		from: cfg.From,
	}
}

func (m *SMTPMailer) SendCredentials(email, password string) error {
	body := fmt.Sprintf(
		"An account has been created for you.\r\n\r\nLogin: %s\r\nTemporary password: %s\r\n\r\nPlease change your password after your first login.\r\n",
		email, password,
	)
	return m.send(email, "Your account is ready", body)
}

func (m *SMTPMailer) SendPasswordReset(email, resetLink string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your account.\r\n\r\nFollow this link to choose a new password:\r\n%s\r\n\r\nIf you did not request this, you can ignore this email.\r\n",
		resetLink,
	)
	return m.send(email, "Password reset", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		logger.Error("email_send_failed", err, map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return err
	}

	logger.Info("email_sent", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return nil
}

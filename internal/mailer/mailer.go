// Package mailer delivers OTP codes to users over SMTP.
package mailer

import (
	"fmt"

	"github.com/dmarrec/authflow-be/internal/config"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Mailer sends a single HTML email. The auth flows only ever need this one
// operation, and tests substitute a recording fake.
type Mailer interface {
	Send(to, subject, html string) error
}

// SMTPMailer delivers mail through a configured SMTP relay.
type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTPMailer creates a mailer from the SMTP section of the configuration.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	from := cfg.FromEmail
	if from == "" {
		from = cfg.SMTPUser
	}
	return &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: from,
	}
}

// Send delivers a single message. Failures are returned to the caller, who
// decides whether persisted OTP state needs rolling back.
func (m *SMTPMailer) Send(to, subject, html string) error {
	if m.host == "" || m.user == "" || m.from == "" {
		return fmt.Errorf("mail config missing")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	log.Info().Str("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}

// VerificationBody renders the email-verification OTP message.
func VerificationBody(code string) string {
	return otpBody("Verify your email", code, "The code is valid for 24 hours.")
}

// ResetBody renders the password-reset OTP message.
func ResetBody(code string) string {
	return otpBody("Reset your password", code, "The code is valid for 5 minutes.")
}

func otpBody(title, code, validity string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>%s</h2>
    <p>Your OTP is:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>%s</p>
  </div>
</body>
</html>`, title, code, validity)
}

// Package mailer sends transactional email over SMTP. Delivery failures
// are reported to the caller and never retried here; the auth flows treat
// them as fire-and-forget.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sidrstudio/atlas/pkg/config"
)

type Mailer struct {
	cfg *config.SMTPConfig
	// send is swappable in tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg *config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// SendOTP emails the verification code. When a catcher address is
// configured (development), mail is diverted there instead of the real
// recipient.
func (m *Mailer) SendOTP(ctx context.Context, recipient, otp string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := recipient
	if m.cfg.Catcher != "" {
		to = m.cfg.Catcher
	}

	msg := buildMessage(m.cfg.Sender, to, "Email verification code", otpBody(otp))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.Sender, []string{to}, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func otpBody(otp string) string {
	return fmt.Sprintf(`<html>
<body style="font-family: sans-serif;">
  <p>Use the code below to verify your email address.</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 4px;">%s</p>
  <p>The code expires in one hour. If you did not request it, you can ignore this email.</p>
</body>
</html>`, otp)
}

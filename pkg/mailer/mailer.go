package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/shutterdesk/shutterdesk/config"
)

// Mailer delivers transactional email over SMTP.
type Mailer struct {
	from     string
	addr     string
	auth     smtp.Auth
	enabled  bool
	hostname string
}

func NewMailer(cfg *config.EmailConfig) *Mailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Mailer{
		from:     cfg.From,
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:     auth,
		enabled:  cfg.Enabled,
		hostname: cfg.Host,
	}
}

const altBoundary = "shutterdesk-alt"

// Send delivers a multipart/alternative message with text and HTML parts.
// A disabled mailer is a silent no-op so development setups do not need an
// SMTP server.
func (m *Mailer) Send(to, subject, html, text string) error {
	if !m.enabled {
		return nil
	}
	if to == "" {
		return fmt.Errorf("recipient address is required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", altBoundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", altBoundary)
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(text)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", altBoundary)
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", altBoundary)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}

package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"warden/internal/platform/config"
)

// SMTPSink delivers messages through a plain-auth SMTP relay.
type SMTPSink struct {
	cfg config.SMTP
}

func NewSMTPSink(cfg config.SMTP) *SMTPSink {
	return &SMTPSink{cfg: cfg}
}

func (s *SMTPSink) Send(_ context.Context, msg Message) error {
	addr := s.cfg.Host + ":" + s.cfg.Port

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// Package notify delivers confirmation and password-reset links by email.
// Delivery is fire-and-forget from the engine's point of view: failures
// propagate as errors but never roll back credential state.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// Message is a rendered outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sink is the delivery backend. Implementations: SMTPSink, MemorySink.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

var confirmTemplate = template.Must(template.New("confirm").Parse(
	`Hello {{.Name}},

welcome! Please confirm your email address by following this link:

{{.Link}}

If you did not create this account you can ignore this message.
`))

var resetTemplate = template.Must(template.New("reset").Parse(
	`Hello {{.Name}},

a password reset was requested for your account. Follow this link to choose
a new password:

{{.Link}}

If you did not request a reset you can ignore this message.
`))

type templateData struct {
	Name string
	Link string
}

// Mailer renders the notification templates and hands them to the sink.
type Mailer struct {
	sink Sink
}

func NewMailer(sink Sink) *Mailer {
	return &Mailer{sink: sink}
}

// SendConfirmEmail delivers the account confirmation link.
func (m *Mailer) SendConfirmEmail(ctx context.Context, email, username, confirmationLink string) error {
	body, err := render(confirmTemplate, templateData{Name: username, Link: confirmationLink})
	if err != nil {
		return err
	}
	return m.sink.Send(ctx, Message{
		To:      email,
		Subject: fmt.Sprintf("Welcome %s - Confirm your Email", username),
		Body:    body,
	})
}

// SendResetPasswordEmail delivers the password reset link.
func (m *Mailer) SendResetPasswordEmail(ctx context.Context, email, username, resetLink string) error {
	body, err := render(resetTemplate, templateData{Name: username, Link: resetLink})
	if err != nil {
		return err
	}
	return m.sink.Send(ctx, Message{
		To:      email,
		Subject: "Reset your password",
		Body:    body,
	})
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email template: %w", err)
	}
	return buf.String(), nil
}

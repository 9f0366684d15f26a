package notify

import (
	"fmt"
	"net/url"

	"warden/internal/platform/config"
)

// Links builds the frontend links embedded in notification emails.
type Links struct {
	frontend config.Frontend
}

func NewLinks(frontend config.Frontend) Links {
	return Links{frontend: frontend}
}

// ConfirmEmail returns the confirm-email link for the given recipient.
func (l Links) ConfirmEmail(email, token string) string {
	return withQuery(l.frontend.ConfirmEmailURL(), email, token)
}

// PasswordReset returns the reset-password link for the given recipient.
func (l Links) PasswordReset(email, token string) string {
	return withQuery(l.frontend.PasswordResetURL(), email, token)
}

func withQuery(base, email, token string) string {
	return fmt.Sprintf("%s?email=%s&token=%s", base, url.QueryEscape(email), url.QueryEscape(token))
}

package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/platform/config"
)

func TestMailerRendersConfirmEmail(t *testing.T) {
	sink := NewMemorySink()
	mailer := NewMailer(sink)

	err := mailer.SendConfirmEmail(context.Background(),
		"alice@example.com", "alice", "http://localhost/confirm-email?email=a&token=b")
	require.NoError(t, err)

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice@example.com", msgs[0].To)
	assert.Equal(t, "Welcome alice - Confirm your Email", msgs[0].Subject)
	assert.Contains(t, msgs[0].Body, "Hello alice")
	assert.Contains(t, msgs[0].Body, "http://localhost/confirm-email?email=a&token=b")
}

func TestMailerRendersResetEmail(t *testing.T) {
	sink := NewMemorySink()
	mailer := NewMailer(sink)

	err := mailer.SendResetPasswordEmail(context.Background(),
		"alice@example.com", "alice", "http://localhost/password-reset?email=a&token=b")
	require.NoError(t, err)

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Reset your password", msgs[0].Subject)
	assert.Contains(t, msgs[0].Body, "password reset was requested")
	assert.Contains(t, msgs[0].Body, "http://localhost/password-reset?email=a&token=b")
}

func TestMailerPropagatesSinkFailure(t *testing.T) {
	sink := NewMemorySink()
	sink.FailWith(assert.AnError)
	mailer := NewMailer(sink)

	err := mailer.SendConfirmEmail(context.Background(), "alice@example.com", "alice", "link")
	assert.Error(t, err)
	assert.Empty(t, sink.Messages())
}

func TestLinksEscapeQueryValues(t *testing.T) {
	links := NewLinks(config.Frontend{
		URL:           "https://app.example.com/",
		ConfirmEmail:  "confirm-email",
		PasswordReset: "password-reset",
	})

	confirm := links.ConfirmEmail("a+b@example.com", "tok/en=")
	assert.Equal(t,
		"https://app.example.com/confirm-email?email=a%2Bb%40example.com&token=tok%2Fen%3D",
		confirm)

	reset := links.PasswordReset("a@example.com", "token123")
	assert.Equal(t,
		"https://app.example.com/password-reset?email=a%40example.com&token=token123",
		reset)
}

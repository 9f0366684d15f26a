package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/auth/models"
	derrors "warden/pkg/domain-errors"
)

func testCredential() *models.Credential {
	return &models.Credential{
		ID:       "cred-1",
		Username: "alice",
		Email:    "alice@example.com",
		Roles:    []models.Role{models.RoleAdmin, models.RoleUser},
	}
}

func TestIssueAndVerify(t *testing.T) {
	issued := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", "warden-auth", "warden-clients",
		WithClock(func() time.Time { return issued }))

	session, err := issuer.Issue(testCredential())
	require.NoError(t, err)
	assert.Equal(t, issued.Add(SessionValidity), session.Expiration)

	claims, err := issuer.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "warden-auth", claims.Issuer)
	assert.Equal(t, []string{"ADMIN", "USER"}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
}

func TestIssueFreshJTIPerSession(t *testing.T) {
	issuer := NewIssuer("secret", "warden-auth", "warden-clients")
	cred := testCredential()

	first, err := issuer.Issue(cred)
	require.NoError(t, err)
	second, err := issuer.Issue(cred)
	require.NoError(t, err)

	c1, err := issuer.Verify(first.Token)
	require.NoError(t, err)
	c2, err := issuer.Verify(second.Token)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestVerifyRejections(t *testing.T) {
	issued := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", "warden-auth", "warden-clients",
		WithClock(func() time.Time { return issued }))
	session, err := issuer.Issue(testCredential())
	require.NoError(t, err)

	t.Run("expired token", func(t *testing.T) {
		late := NewIssuer("secret", "warden-auth", "warden-clients",
			WithClock(func() time.Time { return issued.Add(SessionValidity + time.Minute) }))
		_, err := late.Verify(session.Token)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewIssuer("other-secret", "warden-auth", "warden-clients",
			WithClock(func() time.Time { return issued }))
		_, err := other.Verify(session.Token)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewIssuer("secret", "warden-auth", "other-clients",
			WithClock(func() time.Time { return issued }))
		_, err := other.Verify(session.Token)
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})
}

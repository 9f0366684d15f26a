package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/auth/models"
	"warden/pkg/platform/sentinel"
)

func testCredential(id, username, email string) *models.Credential {
	return &models.Credential{
		ID:            id,
		Username:      username,
		Email:         email,
		PasswordHash:  "hash",
		SecurityStamp: "stamp",
		RegisteredAt:  time.Now().UTC(),
	}
}

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Create(ctx, testCredential("1", "alice", "Alice@Example.com")))

	t.Run("by id", func(t *testing.T) {
		cred, err := s.FindByID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "alice", cred.Username)
	})

	t.Run("by username", func(t *testing.T) {
		cred, err := s.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "1", cred.ID)
	})

	t.Run("by email is case-insensitive", func(t *testing.T) {
		cred, err := s.FindByEmail(ctx, "alice@example.COM")
		require.NoError(t, err)
		assert.Equal(t, "1", cred.ID)
	})

	t.Run("unknown lookups", func(t *testing.T) {
		_, err := s.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.FindByUsername(ctx, "missing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.FindByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestCreateConflicts(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Create(ctx, testCredential("1", "alice", "alice@example.com")))

	t.Run("duplicate username", func(t *testing.T) {
		err := s.Create(ctx, testCredential("2", "alice", "other@example.com"))
		require.ErrorIs(t, err, sentinel.ErrConflict)
		assert.Contains(t, err.Error(), "username already taken")
	})

	t.Run("duplicate email ignoring case", func(t *testing.T) {
		err := s.Create(ctx, testCredential("2", "bob", "ALICE@example.com"))
		require.ErrorIs(t, err, sentinel.ErrConflict)
		assert.Contains(t, err.Error(), "email already taken")
	})
}

func TestFindReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Create(ctx, testCredential("1", "alice", "alice@example.com")))

	cred, err := s.FindByID(ctx, "1")
	require.NoError(t, err)
	cred.Username = "mutated"

	again, err := s.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Create(ctx, testCredential("1", "alice", "alice@example.com")))

	cred, err := s.FindByID(ctx, "1")
	require.NoError(t, err)
	cred.EmailConfirmed = true
	require.NoError(t, s.Update(ctx, cred))

	stored, err := s.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.True(t, stored.EmailConfirmed)

	err = s.Update(ctx, testCredential("missing", "bob", "bob@example.com"))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRoles(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Create(ctx, testCredential("1", "alice", "alice@example.com")))

	t.Run("assigning an unknown role fails", func(t *testing.T) {
		err := s.AssignRoles(ctx, "1", models.RoleAdmin)
		assert.Error(t, err)
	})

	t.Run("ensure is idempotent and assign sticks", func(t *testing.T) {
		require.NoError(t, s.EnsureRole(ctx, models.RoleAdmin))
		require.NoError(t, s.EnsureRole(ctx, models.RoleAdmin))
		require.NoError(t, s.EnsureRole(ctx, models.RoleUser))

		require.NoError(t, s.AssignRoles(ctx, "1", models.RoleAdmin, models.RoleUser))
		cred, err := s.FindByID(ctx, "1")
		require.NoError(t, err)
		assert.True(t, cred.HasRole(models.RoleAdmin))
		assert.True(t, cred.HasRole(models.RoleUser))
	})
}

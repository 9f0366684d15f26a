package provision

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"warden/internal/profile/models"
	"warden/internal/profile/provision/mocks"
	"warden/internal/profile/store/memory"
)

func TestSynchronize(t *testing.T) {
	ctx := context.Background()

	t.Run("skips when a profile already exists", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)

		profiles := memory.New()
		require.NoError(t, profiles.Create(ctx, &models.Profile{ID: "existing"}))

		s := NewSynchronizer(client, profiles, "admin@example.com", WithRetryDelay(0))
		require.NoError(t, s.Synchronize(ctx))
		assert.Equal(t, StateProvisioned, s.State())
	})

	t.Run("provisions the admin profile on first success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		client.EXPECT().
			ResolveIDByEmail(gomock.Any(), "admin@example.com").
			Return("cred-7", nil)

		profiles := memory.New()
		s := NewSynchronizer(client, profiles, "admin@example.com", WithRetryDelay(0))
		require.NoError(t, s.Synchronize(ctx))
		assert.Equal(t, StateProvisioned, s.State())

		profile, err := profiles.FindByID(ctx, "cred-7")
		require.NoError(t, err)
		assert.Equal(t, "Admin", profile.FirstName)
		assert.Equal(t, "", profile.LastName)
	})

	t.Run("retries transient failures then succeeds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		gomock.InOrder(
			client.EXPECT().ResolveIDByEmail(gomock.Any(), "admin@example.com").
				Return("", errors.New("connection refused")),
			client.EXPECT().ResolveIDByEmail(gomock.Any(), "admin@example.com").
				Return("", errors.New("connection refused")),
			client.EXPECT().ResolveIDByEmail(gomock.Any(), "admin@example.com").
				Return("cred-7", nil),
		)

		s := NewSynchronizer(client, memory.New(), "admin@example.com", WithRetryDelay(0))
		require.NoError(t, s.Synchronize(ctx))
		assert.Equal(t, StateProvisioned, s.State())
	})

	t.Run("exhausts after the attempt limit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		client.EXPECT().
			ResolveIDByEmail(gomock.Any(), "admin@example.com").
			Return("", errors.New("connection refused")).
			Times(MaxAttempts)

		s := NewSynchronizer(client, memory.New(), "admin@example.com", WithRetryDelay(0))
		err := s.Synchronize(ctx)
		require.ErrorIs(t, err, ErrExhausted)
		assert.Equal(t, StateExhausted, s.State())
	})

	t.Run("duplicate insert from a racing replica is benign", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)

		profiles := memory.New()
		// The racing replica inserts between the emptiness check and the
		// local insert; the resolve callback is the window in between.
		client.EXPECT().
			ResolveIDByEmail(gomock.Any(), "admin@example.com").
			DoAndReturn(func(context.Context, string) (string, error) {
				require.NoError(t, profiles.Create(ctx, &models.Profile{ID: "cred-7", FirstName: "Admin"}))
				return "cred-7", nil
			})

		s := NewSynchronizer(client, profiles, "admin@example.com", WithRetryDelay(0))
		require.NoError(t, s.Synchronize(ctx))
		assert.Equal(t, StateProvisioned, s.State())
	})

	t.Run("context cancellation stops the retry loop", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)

		cancelCtx, cancel := context.WithCancel(ctx)
		client.EXPECT().
			ResolveIDByEmail(gomock.Any(), "admin@example.com").
			DoAndReturn(func(context.Context, string) (string, error) {
				cancel()
				return "", errors.New("connection refused")
			})

		s := NewSynchronizer(client, memory.New(), "admin@example.com")
		err := s.Synchronize(cancelCtx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

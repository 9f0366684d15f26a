//go:build integration

package purpose_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"warden/internal/auth/models"
	"warden/internal/auth/store/purpose"
	"warden/pkg/platform/sentinel"
	"warden/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *purpose.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = purpose.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestConsumeIsSingleUse() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "u1", models.PurposeConfirmEmail, "hash-1", time.Minute))

	s.Require().NoError(s.store.Consume(ctx, "u1", models.PurposeConfirmEmail, "hash-1"))
	s.ErrorIs(s.store.Consume(ctx, "u1", models.PurposeConfirmEmail, "hash-1"), sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestWrongHashKeepsToken() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "u1", models.PurposePasswordReset, "hash-1", time.Minute))

	s.ErrorIs(s.store.Consume(ctx, "u1", models.PurposePasswordReset, "wrong"), sentinel.ErrNotFound)
	s.NoError(s.store.Consume(ctx, "u1", models.PurposePasswordReset, "hash-1"))
}

func (s *RedisStoreSuite) TestExpiry() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "u1", models.PurposePasswordReset, "hash-1", time.Second))

	time.Sleep(1500 * time.Millisecond)
	err := s.store.Consume(ctx, "u1", models.PurposePasswordReset, "hash-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestSaveReplacesOutstandingToken() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "u1", models.PurposeConfirmEmail, "old", time.Minute))
	s.Require().NoError(s.store.Save(ctx, "u1", models.PurposeConfirmEmail, "new", time.Minute))

	s.ErrorIs(s.store.Consume(ctx, "u1", models.PurposeConfirmEmail, "old"), sentinel.ErrNotFound)
	s.NoError(s.store.Consume(ctx, "u1", models.PurposeConfirmEmail, "new"))
}

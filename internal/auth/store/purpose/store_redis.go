package purpose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"warden/internal/auth/models"
	"warden/pkg/platform/sentinel"
)

// Redis key prefix for purpose-bound tokens.
const tokenKeyPrefix = "pbt:"

// RedisStore is a Redis-backed token store. Expiry is delegated to Redis
// TTLs; the GETDEL on consumption makes a token single-use across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, userID string, purpose models.TokenPurpose, tokenHash string, ttl time.Duration) error {
	if err := s.client.Set(ctx, redisKey(userID, purpose), tokenHash, ttl).Err(); err != nil {
		return fmt.Errorf("save purpose token: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, userID string, purpose models.TokenPurpose, tokenHash string) error {
	k := redisKey(userID, purpose)

	// Reject mismatches before taking the token so a wrong guess does not
	// destroy an outstanding valid token.
	current, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("get purpose token: %w", err)
	}
	if current != tokenHash {
		return sentinel.ErrNotFound
	}

	// GETDEL is the atomic take: exactly one concurrent consumer sees the
	// matching value.
	taken, err := s.client.GetDel(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("consume purpose token: %w", err)
	}
	if taken != tokenHash {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func redisKey(userID string, purpose models.TokenPurpose) string {
	return tokenKeyPrefix + string(purpose) + ":" + userID
}

package purpose

import (
	"context"
	"sync"
	"time"

	"warden/internal/auth/models"
	"warden/pkg/platform/sentinel"
)

type entry struct {
	hash      string
	expiresAt time.Time
}

// MemoryStore keeps purpose-bound token hashes in a mutex-guarded map.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]entry
	now    func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the clock function for testability.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		tokens: make(map[string]entry),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Save(_ context.Context, userID string, purpose models.TokenPurpose, tokenHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[key(userID, purpose)] = entry{hash: tokenHash, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, userID string, purpose models.TokenPurpose, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, purpose)
	e, ok := s.tokens[k]
	if !ok {
		return sentinel.ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.tokens, k)
		return sentinel.ErrExpired
	}
	if e.hash != tokenHash {
		return sentinel.ErrNotFound
	}
	delete(s.tokens, k)
	return nil
}

func key(userID string, purpose models.TokenPurpose) string {
	return string(purpose) + ":" + userID
}

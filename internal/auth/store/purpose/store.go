// Package purpose stores single-use, time-limited tokens bound to one
// credential and one purpose (email confirmation or password reset). Only
// the SHA-256 hash of a token is ever stored.
package purpose

import (
	"context"
	"time"

	"warden/internal/auth/models"
)

// TokenStore persists purpose-bound token hashes with a TTL. Consume removes
// the token on a successful match so re-use fails verification.
type TokenStore interface {
	// Save stores the token hash, replacing any outstanding token for the
	// same credential and purpose.
	Save(ctx context.Context, userID string, purpose models.TokenPurpose, tokenHash string, ttl time.Duration) error
	// Consume verifies the presented hash and deletes it exactly once.
	// Returns sentinel.ErrNotFound for absent/mismatched tokens,
	// sentinel.ErrExpired for expired ones and sentinel.ErrAlreadyUsed when
	// a concurrent consumer won the race.
	Consume(ctx context.Context, userID string, purpose models.TokenPurpose, tokenHash string) error
}

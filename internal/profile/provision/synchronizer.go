package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"warden/internal/platform/metrics"
	"warden/internal/profile/models"
	"warden/internal/profile/store"
	"warden/pkg/platform/sentinel"
)

// State is the synchronizer lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateResolving
	StateProvisioned
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateResolving:
		return "resolving"
	case StateProvisioned:
		return "provisioned"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

const (
	// MaxAttempts bounds the resolve retries before giving up.
	MaxAttempts = 3
	// RetryDelay is the fixed pause between failed resolve attempts.
	RetryDelay = 1000 * time.Millisecond
)

// ErrExhausted is returned when every resolve attempt failed. The service
// must treat it as fatal and refuse to start.
var ErrExhausted = errors.New("provisioning attempts exhausted")

// Synchronizer seeds the local profile table with the bootstrap admin
// identity resolved from the authentication service. It runs once at
// startup and is not safe for concurrent use.
type Synchronizer struct {
	client         Client
	store          store.Store
	bootstrapEmail string
	retryDelay     time.Duration

	state   State
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// SyncOption configures a Synchronizer.
type SyncOption func(*Synchronizer)

func WithSyncLogger(logger *slog.Logger) SyncOption {
	return func(s *Synchronizer) { s.logger = logger }
}

func WithSyncMetrics(m *metrics.Metrics) SyncOption {
	return func(s *Synchronizer) { s.metrics = m }
}

// WithRetryDelay overrides the pause between attempts. Tests use it to
// avoid real sleeping.
func WithRetryDelay(d time.Duration) SyncOption {
	return func(s *Synchronizer) { s.retryDelay = d }
}

func NewSynchronizer(client Client, profiles store.Store, bootstrapEmail string, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		client:         client,
		store:          profiles,
		bootstrapEmail: bootstrapEmail,
		retryDelay:     RetryDelay,
		state:          StateNotStarted,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State { return s.state }

// Synchronize ensures the bootstrap admin profile exists. It is a no-op
// when any profile is already present. Resolve failures are retried up to
// MaxAttempts with a fixed delay; exhaustion is fatal. A duplicate-key
// conflict on insert means another replica won the race and is benign.
func (s *Synchronizer) Synchronize(ctx context.Context) error {
	s.state = StateResolving

	count, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count profiles: %w", err)
	}
	if count > 0 {
		s.logger.Info("profiles already present, skipping bootstrap")
		s.state = StateProvisioned
		return nil
	}

	id, err := s.resolveWithRetry(ctx)
	if err != nil {
		s.state = StateExhausted
		s.metrics.IncProvisioningExhausted()
		return err
	}

	profile := &models.Profile{
		ID:        id,
		FirstName: "Admin",
		LastName:  "",
	}
	if err := s.store.Create(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.logger.Warn("admin profile already exists, skipping insert", "profile_id", id)
			s.state = StateProvisioned
			return nil
		}
		s.state = StateExhausted
		return fmt.Errorf("failed to insert admin profile: %w", err)
	}

	s.logger.Info("bootstrap admin profile provisioned", "profile_id", id)
	s.state = StateProvisioned
	return nil
}

func (s *Synchronizer) resolveWithRetry(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		s.metrics.IncProvisioningAttempts()

		id, err := s.client.ResolveIDByEmail(ctx, s.bootstrapEmail)
		if err == nil {
			s.logger.Info("resolved bootstrap credential",
				"email", s.bootstrapEmail, "attempt", attempt)
			return id, nil
		}
		lastErr = err
		s.logger.Warn("failed to resolve bootstrap credential",
			"email", s.bootstrapEmail, "attempt", attempt, "error", err)

		if attempt == MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %s", ErrExhausted, MaxAttempts, lastErr)
}

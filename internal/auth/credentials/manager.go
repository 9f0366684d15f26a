// Package credentials implements the credential-store capability set behind
// an explicit interface boundary: create/find/update of credential records,
// password verification and purpose-bound token issuance and consumption.
// Hashing and token persistence are pluggable strategies.
package credentials

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"warden/internal/auth/models"
	"warden/internal/auth/store"
	"warden/internal/auth/store/purpose"
)

// Token lifetimes per purpose.
const (
	ConfirmTokenTTL = 24 * time.Hour
	ResetTokenTTL   = time.Hour
)

// Manager composes the credential store with the hashing and token
// strategies. It owns every sensitive state transition on a credential.
type Manager struct {
	store  store.Store
	tokens purpose.TokenStore
	hasher PasswordHasher
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithHasher overrides the password hashing strategy.
func WithHasher(hasher PasswordHasher) Option {
	return func(m *Manager) {
		if hasher != nil {
			m.hasher = hasher
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(credentials store.Store, tokens purpose.TokenStore, opts ...Option) *Manager {
	m := &Manager{
		store:  credentials,
		tokens: tokens,
		hasher: BcryptHasher{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create validates the password against policy, hashes it and inserts a new
// credential. Uniqueness violations come back wrapping sentinel.ErrConflict;
// policy violations come back as *PolicyError.
func (m *Manager) Create(ctx context.Context, username, email, password string) (*models.Credential, error) {
	if err := checkPasswordPolicy(password); err != nil {
		return nil, err
	}
	hash, err := m.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cred := &models.Credential{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		SecurityStamp: uuid.NewString(),
		RegisteredAt:  m.now().UTC(),
	}
	if err := m.store.Create(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

func (m *Manager) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	return m.store.FindByID(ctx, id)
}

func (m *Manager) FindByUsername(ctx context.Context, username string) (*models.Credential, error) {
	return m.store.FindByUsername(ctx, username)
}

func (m *Manager) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	return m.store.FindByEmail(ctx, email)
}

// CheckPassword verifies a password against the stored hash.
func (m *Manager) CheckPassword(cred *models.Credential, password string) bool {
	return m.hasher.Verify(password, cred.PasswordHash)
}

// RecordLogin stamps the last successful login time.
func (m *Manager) RecordLogin(ctx context.Context, cred *models.Credential) error {
	now := m.now().UTC()
	cred.LastLoginAt = &now
	return m.store.Update(ctx, cred)
}

// GenerateToken issues a fresh purpose-bound token for the credential,
// replacing any outstanding token for the same purpose. The opaque value is
// returned once; only its hash is stored.
func (m *Manager) GenerateToken(ctx context.Context, cred *models.Credential, p models.TokenPurpose) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate token: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)

	ttl := ConfirmTokenTTL
	if p == models.PurposePasswordReset {
		ttl = ResetTokenTTL
	}
	if err := m.tokens.Save(ctx, cred.ID, p, hashToken(raw), ttl); err != nil {
		return "", fmt.Errorf("save %s token: %w", p, err)
	}
	return raw, nil
}

// ConfirmEmail consumes a confirmation token and flips the confirmed flag
// exactly once. The security stamp rotates so artifacts derived from the
// unconfirmed state stop being trusted.
func (m *Manager) ConfirmEmail(ctx context.Context, cred *models.Credential, rawToken string) error {
	if err := m.tokens.Consume(ctx, cred.ID, models.PurposeConfirmEmail, hashToken(rawToken)); err != nil {
		return err
	}
	cred.EmailConfirmed = true
	cred.SecurityStamp = uuid.NewString()
	return m.store.Update(ctx, cred)
}

// ResetPassword consumes a reset token, validates the replacement password
// and swaps the hash. Policy violations come back as *PolicyError without
// consuming the token.
func (m *Manager) ResetPassword(ctx context.Context, cred *models.Credential, rawToken, newPassword string) error {
	if err := checkPasswordPolicy(newPassword); err != nil {
		return err
	}
	if err := m.tokens.Consume(ctx, cred.ID, models.PurposePasswordReset, hashToken(rawToken)); err != nil {
		return err
	}
	hash, err := m.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	cred.PasswordHash = hash
	cred.SecurityStamp = uuid.NewString()
	return m.store.Update(ctx, cred)
}

// EnsureRole adds a role to the vocabulary if missing (idempotent).
func (m *Manager) EnsureRole(ctx context.Context, role models.Role) error {
	return m.store.EnsureRole(ctx, role)
}

// AssignRoles attaches roles to a credential.
func (m *Manager) AssignRoles(ctx context.Context, cred *models.Credential, roles ...models.Role) error {
	if err := m.store.AssignRoles(ctx, cred.ID, roles...); err != nil {
		return err
	}
	for _, role := range roles {
		if !cred.HasRole(role) {
			cred.Roles = append(cred.Roles, role)
		}
	}
	return nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

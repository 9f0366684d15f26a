// Package store defines the persistence interfaces behind the credential
// manager. Stores are interface-driven to keep the domain logic testable and
// to allow swapping in-memory and PostgreSQL persistence without rewiring
// business code.
package store

import (
	"context"

	"warden/internal/auth/models"
)

// Store persists credential records. Uniqueness of username and email is
// enforced here (the storage layer is the concurrency control primitive):
// Create returns an error wrapping sentinel.ErrConflict when either is
// already taken, with a message naming the field.
type Store interface {
	Create(ctx context.Context, cred *models.Credential) error
	FindByID(ctx context.Context, id string) (*models.Credential, error)
	FindByUsername(ctx context.Context, username string) (*models.Credential, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)
	Update(ctx context.Context, cred *models.Credential) error

	// EnsureRole creates the role in the role vocabulary if missing
	// (idempotent).
	EnsureRole(ctx context.Context, role models.Role) error
	// AssignRoles adds roles to an existing credential; already-assigned
	// roles are kept, not duplicated.
	AssignRoles(ctx context.Context, id string, roles ...models.Role) error
}

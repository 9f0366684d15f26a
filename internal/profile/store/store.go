// Package store defines persistence for profiles.
package store

import (
	"context"

	"warden/internal/profile/models"
)

// Store is the persistence contract for profiles.
//
// Create returns an error wrapping sentinel.ErrConflict when a profile with
// the same id already exists. FindByID returns an error wrapping
// sentinel.ErrNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, profile *models.Profile) error
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	Count(ctx context.Context) (int, error)
}

// Package service implements profile reads and updates on top of the store.
package service

import (
	"context"
	"errors"
	"log/slog"

	"warden/internal/profile/models"
	"warden/internal/profile/store"
	derrors "warden/pkg/domain-errors"
	"warden/pkg/platform/sentinel"
)

type Service struct {
	store  store.Store
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(profiles store.Store, opts ...Option) *Service {
	s := &Service{store: profiles, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the profile with the given id.
func (s *Service) Get(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeUserNotFound, "User not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load profile")
	}
	return profile, nil
}

// List returns all profiles.
func (s *Service) List(ctx context.Context) ([]*models.Profile, error) {
	profiles, err := s.store.List(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list profiles")
	}
	return profiles, nil
}

// Update replaces the mutable profile fields.
func (s *Service) Update(ctx context.Context, id, firstName, lastName string) (*models.Profile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	profile.FirstName = firstName
	profile.LastName = lastName
	if err := s.store.Update(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeUserNotFound, "User not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update profile")
	}
	return profile, nil
}

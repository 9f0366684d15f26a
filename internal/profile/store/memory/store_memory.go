// Package memory provides an in-memory profile store for tests and local
// development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"warden/internal/profile/models"
	"warden/pkg/platform/sentinel"
)

type Store struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
}

func New() *Store {
	return &Store{profiles: make(map[string]*models.Profile)}
}

func (s *Store) Create(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[profile.ID]; exists {
		return fmt.Errorf("profile %s already exists: %w", profile.ID, sentinel.ErrConflict)
	}
	s.profiles[profile.ID] = profile.Clone()
	return nil
}

func (s *Store) FindByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, sentinel.ErrNotFound)
	}
	return profile.Clone(), nil
}

func (s *Store) List(_ context.Context) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Profile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		out = append(out, profile.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Update(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; !ok {
		return fmt.Errorf("profile %s: %w", profile.ID, sentinel.ErrNotFound)
	}
	s.profiles[profile.ID] = profile.Clone()
	return nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}

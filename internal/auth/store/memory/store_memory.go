// Package memory provides the in-memory credential store used in tests and
// single-node development runs.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"warden/internal/auth/models"
	"warden/pkg/platform/sentinel"
)

// Store keeps credentials in maps guarded by a mutex. Username and email
// indexes enforce the same uniqueness the PostgreSQL constraints do.
type Store struct {
	mu         sync.RWMutex
	byID       map[string]*models.Credential
	byUsername map[string]string
	byEmail    map[string]string
	roles      map[models.Role]struct{}
}

func New() *Store {
	return &Store{
		byID:       make(map[string]*models.Credential),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		roles:      make(map[models.Role]struct{}),
	}
}

func (s *Store) Create(_ context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[cred.Username]; exists {
		return fmt.Errorf("username already taken: %w", sentinel.ErrConflict)
	}
	emailKey := strings.ToLower(cred.Email)
	if _, exists := s.byEmail[emailKey]; exists {
		return fmt.Errorf("email already taken: %w", sentinel.ErrConflict)
	}

	s.byID[cred.ID] = cred.Clone()
	s.byUsername[cred.Username] = cred.ID
	s.byEmail[emailKey] = cred.ID
	return nil
}

func (s *Store) FindByID(_ context.Context, id string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cred.Clone(), nil
}

func (s *Store) FindByUsername(_ context.Context, username string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *Store) Update(_ context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[cred.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[cred.ID] = cred.Clone()
	return nil
}

func (s *Store) EnsureRole(_ context.Context, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roles[role] = struct{}{}
	return nil
}

func (s *Store) AssignRoles(_ context.Context, id string, roles ...models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	for _, role := range roles {
		if _, known := s.roles[role]; !known {
			return fmt.Errorf("role %s not in vocabulary: %w", role, sentinel.ErrNotFound)
		}
		if !cred.HasRole(role) {
			cred.Roles = append(cred.Roles, role)
		}
	}
	return nil
}

// Count reports the number of stored credentials matching the username.
// Used by tests asserting that failed registrations do not insert rows.
func (s *Store) Count(username string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, cred := range s.byID {
		if cred.Username == username {
			n++
		}
	}
	return n
}

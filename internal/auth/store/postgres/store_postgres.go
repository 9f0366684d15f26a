// Package postgres persists credential records in PostgreSQL. The unique
// constraints on username and lower(email) are the concurrency control for
// racing registrations; the store only translates their violations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"warden/internal/auth/models"
	"warden/pkg/platform/sentinel"
)

// Schema creates the credential tables. Applied by EnsureSchema at startup;
// production deployments run the same statements through their migration
// tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id              TEXT PRIMARY KEY,
	username        TEXT NOT NULL CONSTRAINT credentials_username_key UNIQUE,
	email           TEXT NOT NULL,
	password_hash   TEXT NOT NULL,
	email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
	security_stamp  TEXT NOT NULL,
	roles           TEXT[] NOT NULL DEFAULT '{}',
	registered_at   TIMESTAMPTZ NOT NULL,
	last_login_at   TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS credentials_email_key ON credentials (LOWER(email));
CREATE TABLE IF NOT EXISTS credential_roles (
	name TEXT PRIMARY KEY
);
`

// Store is the PostgreSQL-backed credential store.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies the schema statements.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure credentials schema: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, cred *models.Credential) error {
	query := `
		INSERT INTO credentials (id, username, email, password_hash, email_confirmed, security_stamp, roles, registered_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		cred.ID,
		cred.Username,
		cred.Email,
		cred.PasswordHash,
		cred.EmailConfirmed,
		cred.SecurityStamp,
		pq.Array(rolesToStrings(cred.Roles)),
		cred.RegisteredAt,
		cred.LastLoginAt,
	)
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return fmt.Errorf("%s already taken: %w", field, sentinel.ErrConflict)
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	return s.findWhere(ctx, `id = $1`, id)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*models.Credential, error) {
	return s.findWhere(ctx, `username = $1`, username)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	return s.findWhere(ctx, `LOWER(email) = LOWER($1)`, email)
}

func (s *Store) Update(ctx context.Context, cred *models.Credential) error {
	query := `
		UPDATE credentials
		SET username = $2, email = $3, password_hash = $4, email_confirmed = $5,
		    security_stamp = $6, roles = $7, last_login_at = $8
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		cred.ID,
		cred.Username,
		cred.Email,
		cred.PasswordHash,
		cred.EmailConfirmed,
		cred.SecurityStamp,
		pq.Array(rolesToStrings(cred.Roles)),
		cred.LastLoginAt,
	)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) EnsureRole(ctx context.Context, role models.Role) error {
	query := `INSERT INTO credential_roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, string(role)); err != nil {
		return fmt.Errorf("ensure role: %w", err)
	}
	return nil
}

func (s *Store) AssignRoles(ctx context.Context, id string, roles ...models.Role) error {
	query := `
		UPDATE credentials
		SET roles = (
			SELECT ARRAY(SELECT DISTINCT r FROM unnest(roles || $2::text[]) AS r)
		)
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, pq.Array(rolesToStrings(roles)))
	if err != nil {
		return fmt.Errorf("assign roles: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign roles rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) findWhere(ctx context.Context, where string, arg any) (*models.Credential, error) {
	query := `
		SELECT id, username, email, password_hash, email_confirmed, security_stamp, roles, registered_at, last_login_at
		FROM credentials
		WHERE ` + where

	var cred models.Credential
	var roles []string
	var lastLogin sql.NullTime
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&cred.ID,
		&cred.Username,
		&cred.Email,
		&cred.PasswordHash,
		&cred.EmailConfirmed,
		&cred.SecurityStamp,
		pq.Array(&roles),
		&cred.RegisteredAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if lastLogin.Valid {
		cred.LastLoginAt = &lastLogin.Time
	}
	for _, r := range roles {
		cred.Roles = append(cred.Roles, models.Role(r))
	}
	return &cred, nil
}

// uniqueViolationField inspects a driver error for SQLSTATE 23505 and names
// the violated field from the constraint.
func uniqueViolationField(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return "", false
	}
	if strings.Contains(pqErr.Constraint, "email") {
		return "email", true
	}
	return "username", true
}

func rolesToStrings(roles []models.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

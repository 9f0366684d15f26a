// Package postgres implements the profile store on PostgreSQL through the
// pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"warden/internal/profile/models"
	"warden/pkg/platform/sentinel"
)

// Schema creates the profiles table.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id         TEXT PRIMARY KEY,
    first_name TEXT NOT NULL DEFAULT '',
    last_name  TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`

type Store struct {
	db *sql.DB
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies the profile schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to ensure profile schema: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, profile *models.Profile) error {
	const query = `
        INSERT INTO profiles (id, first_name, last_name, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)`

	now := time.Now().UTC()
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.ExecContext(ctx, query,
		profile.ID, profile.FirstName, profile.LastName, createdAt, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("profile %s already exists: %w", profile.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	const query = `
        SELECT id, first_name, last_name, created_at, updated_at
        FROM profiles WHERE id = $1`

	var profile models.Profile
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID, &profile.FirstName, &profile.LastName,
		&profile.CreatedAt, &profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &profile, nil
}

func (s *Store) List(ctx context.Context) ([]*models.Profile, error) {
	const query = `
        SELECT id, first_name, last_name, created_at, updated_at
        FROM profiles ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		var profile models.Profile
		if err := rows.Scan(&profile.ID, &profile.FirstName, &profile.LastName,
			&profile.CreatedAt, &profile.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, &profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, profile *models.Profile) error {
	const query = `
        UPDATE profiles
        SET first_name = $2, last_name = $3, updated_at = $4
        WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		profile.ID, profile.FirstName, profile.LastName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile %s: %w", profile.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a PostgreSQL duplicate-key error
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

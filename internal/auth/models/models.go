// Package models holds the credential-side domain types. Keep them free of
// transport and storage concerns so stores and services can share them.
package models

import "time"

// Role is an authorization claim attached to a credential.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// TokenPurpose binds a single-use token to exactly one state transition.
type TokenPurpose string

const (
	PurposeConfirmEmail  TokenPurpose = "confirm_email"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// Credential is the authoritative identity row. ID is assigned at creation
// and immutable; username and email are globally unique (email
// case-insensitive). PasswordHash is opaque to everything but the hasher.
// SecurityStamp rotates on sensitive changes so artifacts derived from the
// old credential state stop being trusted.
type Credential struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	EmailConfirmed bool
	SecurityStamp  string
	Roles          []Role
	RegisteredAt   time.Time
	LastLoginAt    *time.Time
}

// HasRole reports whether the credential carries the given role.
func (c *Credential) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so in-memory stores never leak internal state.
func (c *Credential) Clone() *Credential {
	clone := *c
	clone.Roles = append([]Role(nil), c.Roles...)
	if c.LastLoginAt != nil {
		t := *c.LastLoginAt
		clone.LastLoginAt = &t
	}
	return &clone
}

// Session is the issued token artifact returned to a successful login.
// It is never persisted; verification is stateless via the signature.
type Session struct {
	Token      string
	Expiration time.Time
}

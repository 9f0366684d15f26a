// Package models holds the profile domain types.
package models

import "time"

// Profile is the service-local user record. Its ID is the canonical
// credential id issued by the authentication service; the profile never
// stores credentials of its own.
type Profile struct {
	ID        string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

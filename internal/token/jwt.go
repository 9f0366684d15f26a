// Package token issues and verifies the signed session tokens handed out by
// the authentication engine.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"warden/internal/auth/models"
	derrors "warden/pkg/domain-errors"
)

// SessionValidity is the fixed window from issuance to expiry.
const SessionValidity = 3 * time.Hour

// Claims carried by a session token: subject is the username, ID is a fresh
// jti per issuance, Roles one entry per assigned role.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs session tokens with a symmetric key (HMAC-SHA256).
type Issuer struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

func NewIssuer(signingKey, issuer, audience string, opts ...Option) *Issuer {
	iss := &Issuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss
}

// Issue builds a signed token for the credential. Deterministic given
// identical claims, clock and key, except for the random jti.
func (i *Issuer) Issue(cred *models.Credential) (models.Session, error) {
	now := i.now()
	expires := now.Add(SessionValidity)

	roles := make([]string, 0, len(cred.Roles))
	for _, r := range cred.Roles {
		roles = append(roles, string(r))
	}

	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.Username,
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Audience:  []string{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{Token: signed, Expiration: expires}, nil
}

// Verify validates signature, issuer, audience and expiry. Expired and
// mis-signed tokens are rejected uniformly as unauthenticated so callers
// cannot distinguish the cause.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("token invalid")
		}
		return nil, derrors.Wrap(err, derrors.CodeUnauthorized, "unauthenticated")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, derrors.New(derrors.CodeUnauthorized, "unauthenticated")
	}
	return claims, nil
}

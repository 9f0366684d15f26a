// Package config builds service configuration from environment variables so
// the cmd mains stay lean.
package config

import (
	"os"
	"strings"
	"time"

	platformstrings "warden/pkg/platform/strings"
)

// JWT carries token signing and validation settings shared by both services.
type JWT struct {
	Secret        string
	ValidIssuer   string
	ValidAudience string
}

// Frontend holds the public base URL and the relative paths used to build
// the confirm-email, request-reset and reset-password links.
type Frontend struct {
	URL                  string
	ConfirmEmail         string
	RequestPasswordReset string
	PasswordReset        string
}

// ConfirmEmailURL returns the absolute confirm-email link base.
func (f Frontend) ConfirmEmailURL() string { return joinURL(f.URL, f.ConfirmEmail) }

// RequestPasswordResetURL returns the absolute request-reset link base.
func (f Frontend) RequestPasswordResetURL() string { return joinURL(f.URL, f.RequestPasswordReset) }

// PasswordResetURL returns the absolute reset-password link base.
func (f Frontend) PasswordResetURL() string { return joinURL(f.URL, f.PasswordReset) }

// SMTP configures the outbound notification sender. Empty host disables
// real delivery.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Redis connection settings. Empty URL means Redis is not configured and
// in-memory fallbacks are used.
type Redis struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthService is the configuration for cmd/authservice.
type AuthService struct {
	Addr        string
	DatabaseURL string
	JWT         JWT
	Frontend    Frontend
	SMTP        SMTP
	Redis       Redis
	// KafkaBrokers enables the security audit publisher when non-empty.
	KafkaBrokers []string
	OTelEndpoint string
}

// UserService is the configuration for cmd/userservice.
type UserService struct {
	Addr        string
	DatabaseURL string
	JWT         JWT
	// AuthBaseURL is the provisioning client target.
	AuthBaseURL string
	// BootstrapEmail is the well-known credential the synchronizer resolves
	// at startup.
	BootstrapEmail string
	OTelEndpoint   string
}

// AuthFromEnv builds the authservice config from environment variables.
func AuthFromEnv() AuthService {
	return AuthService{
		Addr:        getenv("WARDEN_AUTH_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWT:         jwtFromEnv(),
		Frontend: Frontend{
			URL:                  getenv("FRONTEND_URL", "http://localhost:5173"),
			ConfirmEmail:         getenv("FRONTEND_CONFIRM_EMAIL_PATH", "confirm-email"),
			RequestPasswordReset: getenv("FRONTEND_REQUEST_PASSWORD_RESET_PATH", "request-password-reset"),
			PasswordReset:        getenv("FRONTEND_PASSWORD_RESET_PATH", "password-reset"),
		},
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM", "no-reply@localhost"),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		OTelEndpoint: os.Getenv("OTEL_EXPORTER_ENDPOINT"),
	}
}

// UserFromEnv builds the userservice config from environment variables.
func UserFromEnv() UserService {
	return UserService{
		Addr:           getenv("WARDEN_USER_ADDR", ":8081"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWT:            jwtFromEnv(),
		AuthBaseURL:    getenv("AUTH_SERVICE_BASE_URL", "http://localhost:8080"),
		BootstrapEmail: getenv("BOOTSTRAP_ADMIN_EMAIL", "admin@example.com"),
		OTelEndpoint:   os.Getenv("OTEL_EXPORTER_ENDPOINT"),
	}
}

func jwtFromEnv() JWT {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Use a default for development - must be overridden in production.
		secret = "dev-secret-key-change-in-production"
	}
	return JWT{
		Secret:        secret,
		ValidIssuer:   getenv("JWT_VALID_ISSUER", "warden-auth"),
		ValidAudience: getenv("JWT_VALID_AUDIENCE", "warden-clients"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(raw, ","))
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

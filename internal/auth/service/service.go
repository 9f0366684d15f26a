// Package service implements the authentication engine: login, registration,
// admin registration, email confirmation and the password reset flow. All
// business-rule failures are returned as coded domain errors; only
// infrastructure faults propagate unclassified.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"warden/internal/auth/credentials"
	"warden/internal/auth/models"
	"warden/internal/notify"
	"warden/internal/platform/metrics"
	derrors "warden/pkg/domain-errors"
	"warden/pkg/platform/audit"
	"warden/pkg/platform/sentinel"
)

// TokenIssuer mints signed session tokens for authenticated credentials.
type TokenIssuer interface {
	Issue(cred *models.Credential) (models.Session, error)
}

// Mailer is the subset of the notification pipeline the engine uses.
type Mailer interface {
	SendConfirmEmail(ctx context.Context, email, username, confirmationLink string) error
	SendResetPasswordEmail(ctx context.Context, email, username, resetLink string) error
}

// Service orchestrates the credential manager, token issuer and notification
// sink. It holds no mutable state of its own; all cross-request coordination
// is pushed down to the store's uniqueness constraints.
type Service struct {
	manager *credentials.Manager
	issuer  TokenIssuer
	mailer  Mailer
	links   notify.Links

	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher audit.Publisher
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func New(manager *credentials.Manager, issuer TokenIssuer, mailer Mailer, links notify.Links, opts ...Option) *Service {
	s := &Service{
		manager: manager,
		issuer:  issuer,
		mailer:  mailer,
		links:   links,
		logger:  slog.Default(),
		tracer:  otel.Tracer("warden/internal/auth/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is the successful outcome of Login.
type LoginResult struct {
	Session    models.Session
	Credential *models.Credential
}

// Login authenticates by email and password. An unknown email and a wrong
// password are indistinguishable to the caller; an unconfirmed email is
// rejected before any token is issued.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	cred, err := s.manager.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Verify against a throwaway value so the miss costs roughly
			// the same as a wrong password.
			s.manager.CheckPassword(&models.Credential{PasswordHash: burnHash}, password)
			return nil, s.loginRejected(ctx, email, "unknown email")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to look up credential")
	}

	if !s.manager.CheckPassword(cred, password) {
		return nil, s.loginRejected(ctx, email, "wrong password")
	}

	if !cred.EmailConfirmed {
		s.metrics.IncLoginFailures()
		return nil, derrors.New(derrors.CodeEmailNotConfirmed, "Email is not confirmed yet")
	}

	session, err := s.issuer.Issue(cred)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to issue session token")
	}

	if err := s.manager.RecordLogin(ctx, cred); err != nil {
		// Last-login is incidental metadata; a failed stamp must not fail
		// the login.
		s.logger.Warn("failed to record last login", "user_id", cred.ID, "error", err)
	}

	s.metrics.IncLogins()
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action: audit.ActionLoginSucceeded,
		UserID: cred.ID,
		Email:  cred.Email,
	})
	return &LoginResult{Session: session, Credential: cred}, nil
}

// Register creates a new credential and dispatches the confirmation email.
// The notification is best-effort: once the credential row exists, link
// construction or delivery failures are logged and the registration still
// succeeds.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.Credential, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer span.End()

	if _, err := s.manager.FindByUsername(ctx, username); err == nil {
		return nil, derrors.New(derrors.CodeUserAlreadyExists, "User already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to look up credential")
	}

	cred, err := s.manager.Create(ctx, username, email, password)
	if err != nil {
		var policyErr *credentials.PolicyError
		switch {
		case errors.As(err, &policyErr):
			return nil, derrors.New(derrors.CodeUserCreationFailed, "User creation failed").
				WithDetails(policyErr.Violations...)
		case errors.Is(err, sentinel.ErrConflict):
			return nil, derrors.New(derrors.CodeUserCreationFailed, "User creation failed").
				WithDetails(conflictDetail(err))
		default:
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create credential")
		}
	}

	s.metrics.IncUsersRegistered()
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action: audit.ActionUserRegistered,
		UserID: cred.ID,
		Email:  cred.Email,
	})

	s.dispatchConfirmEmail(ctx, cred)
	return cred, nil
}

// RegisterAdmin registers a credential and grants it the ADMIN and USER
// roles, creating them in the role vocabulary first if missing.
func (s *Service) RegisterAdmin(ctx context.Context, username, email, password string) (*models.Credential, error) {
	ctx, span := s.tracer.Start(ctx, "auth.RegisterAdmin")
	defer span.End()

	cred, err := s.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}

	for _, role := range []models.Role{models.RoleAdmin, models.RoleUser} {
		if err := s.manager.EnsureRole(ctx, role); err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to ensure role")
		}
	}
	if err := s.manager.AssignRoles(ctx, cred, models.RoleAdmin, models.RoleUser); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to assign roles")
	}

	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action: audit.ActionAdminRegistered,
		UserID: cred.ID,
		Email:  cred.Email,
	})
	return cred, nil
}

// ConfirmEmail verifies a confirmation token and marks the email confirmed.
func (s *Service) ConfirmEmail(ctx context.Context, email, token string) error {
	ctx, span := s.tracer.Start(ctx, "auth.ConfirmEmail")
	defer span.End()

	if email == "" || token == "" {
		return derrors.New(derrors.CodeInvalidLink, "Invalid link")
	}

	cred, err := s.manager.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return derrors.New(derrors.CodeUserNotFound, "User not found")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to look up credential")
	}

	if err := s.manager.ConfirmEmail(ctx, cred, token); err != nil {
		if isTokenRejection(err) {
			return derrors.New(derrors.CodeEmailConfirmationFailed, "Email confirmation failed")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to confirm email")
	}

	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action: audit.ActionEmailConfirmed,
		UserID: cred.ID,
		Email:  cred.Email,
	})
	return nil
}

// RequestPasswordReset issues a reset token and mails the reset link. An
// unknown email is reported as such; callers relying on this endpoint for
// anti-enumeration must accept that leak.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := s.tracer.Start(ctx, "auth.RequestPasswordReset")
	defer span.End()

	cred, err := s.manager.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return derrors.New(derrors.CodeUserNotFound, "User not found")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to look up credential")
	}

	token, err := s.manager.GenerateToken(ctx, cred, models.PurposePasswordReset)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to generate reset token")
	}

	resetLink := s.links.PasswordReset(cred.Email, token)
	if err := s.mailer.SendResetPasswordEmail(ctx, cred.Email, cred.Username, resetLink); err != nil {
		s.metrics.IncNotificationFailures()
		return derrors.Wrap(err, derrors.CodeInternal, "failed to send reset email")
	}
	s.metrics.IncNotificationsSent()
	s.metrics.IncPasswordResetRequests()

	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action: audit.ActionPasswordResetRequested,
		UserID: cred.ID,
		Email:  cred.Email,
	})
	return nil
}

// ResetPassword completes a reset with a previously issued token.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	ctx, span := s.tracer.Start(ctx, "auth.ResetPassword")
	defer span.End()

	cred, err := s.manager.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return derrors.New(derrors.CodeUserNotFound, "User not found")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to look up credential")
	}

	if err := s.manager.ResetPassword(ctx, cred, token, newPassword); err != nil {
		var policyErr *credentials.PolicyError
		switch {
		case errors.As(err, &policyErr):
			return derrors.New(derrors.CodePasswordResetFailed, "Password reset failed").
				WithDetails(policyErr.Violations...)
		case isTokenRejection(err):
			return derrors.New(derrors.CodePasswordResetFailed, "Password reset failed").
				WithDetails("Invalid token.")
		default:
			return derrors.Wrap(err, derrors.CodeInternal, "failed to reset password")
		}
	}

	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action: audit.ActionPasswordReset,
		UserID: cred.ID,
		Email:  cred.Email,
	})
	return nil
}

// ResolveIDByEmail returns the canonical credential id registered under the
// given email. Downstream services use it to link their own records to a
// credential without holding a copy of it.
func (s *Service) ResolveIDByEmail(ctx context.Context, email string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "auth.ResolveIDByEmail")
	defer span.End()

	cred, err := s.manager.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", derrors.New(derrors.CodeUserNotFound, "User not found")
		}
		return "", derrors.Wrap(err, derrors.CodeInternal, "failed to look up credential")
	}
	return cred.ID, nil
}

// dispatchConfirmEmail generates the confirmation token and mails the link.
// Runs strictly after the credential row is durably created.
func (s *Service) dispatchConfirmEmail(ctx context.Context, cred *models.Credential) {
	token, err := s.manager.GenerateToken(ctx, cred, models.PurposeConfirmEmail)
	if err != nil {
		s.metrics.IncNotificationFailures()
		s.logger.Error("failed to generate confirmation token", "user_id", cred.ID, "error", err)
		return
	}
	link := s.links.ConfirmEmail(cred.Email, token)
	if err := s.mailer.SendConfirmEmail(ctx, cred.Email, cred.Username, link); err != nil {
		s.metrics.IncNotificationFailures()
		s.logger.Error("failed to send confirmation email", "user_id", cred.ID, "error", err)
		return
	}
	s.metrics.IncNotificationsSent()
}

func (s *Service) loginRejected(ctx context.Context, email, reason string) error {
	s.metrics.IncLoginFailures()
	audit.Log(ctx, s.logger, s.publisher, audit.Event{
		Action: audit.ActionLoginFailed,
		Email:  email,
		Reason: reason,
	})
	return derrors.New(derrors.CodeInvalidCredentials, "Invalid email or password")
}

func isTokenRejection(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) ||
		errors.Is(err, sentinel.ErrExpired) ||
		errors.Is(err, sentinel.ErrAlreadyUsed)
}

// conflictDetail extracts the store's human-readable uniqueness message.
// Store messages look like "email already taken: conflict"; keep the leading
// clause.
func conflictDetail(err error) string {
	msg := err.Error()
	if before, _, found := strings.Cut(msg, ":"); found {
		return before
	}
	return msg
}

// burnHash is a valid bcrypt hash of a random value, used to equalize the
// cost of unknown-email and wrong-password rejections.
const burnHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

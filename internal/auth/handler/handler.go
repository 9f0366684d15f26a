// Package handler exposes the authentication engine over HTTP. Handlers stay
// thin: parse, delegate, translate the outcome code to a status.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"warden/internal/auth/models"
	authservice "warden/internal/auth/service"
	derrors "warden/pkg/domain-errors"
)

// Service is the engine surface the handler depends on.
type Service interface {
	Login(ctx context.Context, email, password string) (*authservice.LoginResult, error)
	Register(ctx context.Context, username, email, password string) (*models.Credential, error)
	RegisterAdmin(ctx context.Context, username, email, password string) (*models.Credential, error)
	ConfirmEmail(ctx context.Context, email, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, newPassword string) error
	ResolveIDByEmail(ctx context.Context, email string) (string, error)
}

// Handler handles the /api/authenticate endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authentication routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	router.Post("/api/authenticate/login", h.handleLogin)
	router.Post("/api/authenticate/register", h.handleRegister)
	router.Post("/api/authenticate/register-admin", h.handleRegisterAdmin)
	router.Get("/api/authenticate/confirm-email", h.handleConfirmEmail)
	router.Post("/api/authenticate/request-password-reset", h.handleRequestPasswordReset)
	router.Post("/api/authenticate/reset-password", h.handleResetPassword)
	router.Get("/api/authenticate/{email}", h.handleResolveByEmail)

	r.Mount("/", router)
}

type loginRequest struct {
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

type registerRequest struct {
	Username string `json:"Username"`
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

type requestPasswordResetRequest struct {
	Email string `json:"Email"`
}

type resetPasswordRequest struct {
	Email       string `json:"Email"`
	Token       string `json:"Token"`
	NewPassword string `json:"NewPassword"`
}

type credentialResponse struct {
	ID             string     `json:"Id"`
	Username       string     `json:"Username"`
	Email          string     `json:"Email"`
	RegisteredAt   time.Time  `json:"RegisterDate"`
	LastLoginAt    *time.Time `json:"LastLoginDate,omitempty"`
	EmailConfirmed bool       `json:"EmailConfirmed"`
}

func toCredentialResponse(cred *models.Credential) credentialResponse {
	return credentialResponse{
		ID:             cred.ID,
		Username:       cred.Username,
		Email:          cred.Email,
		RegisteredAt:   cred.RegisteredAt,
		LastLoginAt:    cred.LastLoginAt,
		EmailConfirmed: cred.EmailConfirmed,
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := requireEmail(req.Email); err != nil {
		writeError(w, err)
		return
	}
	if req.Password == "" {
		writeError(w, derrors.New(derrors.CodeBadRequest, "Password is required"))
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      result.Session.Token,
		"expiration": result.Session.Expiration,
		"user":       toCredentialResponse(result.Credential),
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.service.Register)
}

func (h *Handler) handleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.service.RegisterAdmin)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, create func(ctx context.Context, username, email, password string) (*models.Credential, error)) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Username == "" {
		writeError(w, derrors.New(derrors.CodeBadRequest, "User Name is required"))
		return
	}
	if err := requireEmail(req.Email); err != nil {
		writeError(w, err)
		return
	}
	if req.Password == "" {
		writeError(w, derrors.New(derrors.CodeBadRequest, "Password is required"))
		return
	}

	cred, err := create(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"Message": "User created successfully",
		"UserId":  cred.ID,
	})
}

func (h *Handler) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")

	if err := h.service.ConfirmEmail(r.Context(), email, token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Message": "Email confirmed successfully"})
}

func (h *Handler) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req requestPasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := requireEmail(req.Email); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Message": "Password reset email sent"})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := requireEmail(req.Email); err != nil {
		writeError(w, err)
		return
	}
	if req.Token == "" {
		writeError(w, derrors.New(derrors.CodeBadRequest, "Token is required"))
		return
	}
	if req.NewPassword == "" {
		writeError(w, derrors.New(derrors.CodeBadRequest, "Password is required"))
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Message": "Password reset successfully"})
}

// handleResolveByEmail returns the canonical credential id for an email.
// Consumed by the downstream provisioning client.
func (h *Handler) handleResolveByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	id, err := h.service.ResolveIDByEmail(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Id": id})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses. The
// status is a pure function of the outcome code.
func writeError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	body := map[string]any{"Message": messageOf(err)}
	if details := derrors.DetailsOf(err); len(details) > 0 {
		body["Details"] = details
	}
	writeJSON(w, derrors.ToHTTPStatus(code), body)
}

func messageOf(err error) string {
	var de *derrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

func requireEmail(email string) error {
	if email == "" {
		return derrors.New(derrors.CodeBadRequest, "Email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return derrors.New(derrors.CodeBadRequest, "Email is invalid")
	}
	return nil
}

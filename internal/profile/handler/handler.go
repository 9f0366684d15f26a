// Package handler exposes the profile endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"warden/internal/profile/models"
	derrors "warden/pkg/domain-errors"
)

// Service is the profile surface the handler depends on.
type Service interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	Update(ctx context.Context, id, firstName, lastName string) (*models.Profile, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the profile routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	router.Get("/api/users", h.handleList)
	router.Get("/api/users/{id}", h.handleGet)
	router.Put("/api/users/{id}", h.handleUpdate)

	r.Mount("/", router)
}

type profileResponse struct {
	ID        string `json:"Id"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
}

type updateProfileRequest struct {
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
}

func toProfileResponse(p *models.Profile) profileResponse {
	return profileResponse{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeBadRequest, "invalid request body"))
		return
	}

	profile, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.FirstName, req.LastName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

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

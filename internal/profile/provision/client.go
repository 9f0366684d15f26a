// Package provision links the profile service to the authentication
// service: an HTTP client for the credential API and a synchronizer that
// bootstraps the admin profile at startup.
package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	derrors "warden/pkg/domain-errors"
	"warden/pkg/platform/circuit"
)

// Client calls the authentication service's credential API.
type Client interface {
	RegisterCredential(ctx context.Context, username, email, password string) (string, error)
	ResolveIDByEmail(ctx context.Context, email string) (string, error)
}

// HTTPClient is the production Client over the authentication service's
// REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.http = c }
}

func WithLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTPClient) { h.logger = logger }
}

func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: circuit.New("auth-service"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type registerCredentialRequest struct {
	Username string `json:"Username"`
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

type registerCredentialResponse struct {
	Message string `json:"Message"`
	UserID  string `json:"UserId"`
}

type resolveIDResponse struct {
	ID string `json:"Id"`
}

type errorResponse struct {
	Message string `json:"Message"`
}

// RegisterCredential creates a credential on the authentication service and
// returns the new credential id. A conflict maps to CodeUserAlreadyExists
// with the upstream message preserved.
func (c *HTTPClient) RegisterCredential(ctx context.Context, username, email, password string) (string, error) {
	body, err := json.Marshal(registerCredentialRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/authenticate/register", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		var payload errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			payload.Message = "User already exists"
		}
		return "", derrors.New(derrors.CodeUserAlreadyExists, payload.Message)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("register credential: unexpected status %d", resp.StatusCode)
	}

	var payload registerCredentialResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode register response: %w", err)
	}
	return payload.UserID, nil
}

// ResolveIDByEmail returns the credential id registered under email. An
// unknown email maps to CodeUserNotFound.
func (c *HTTPClient) ResolveIDByEmail(ctx context.Context, email string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/authenticate/"+url.PathEscape(email), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build resolve request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", derrors.New(derrors.CodeUserNotFound, "User not found")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("resolve credential id: unexpected status %d", resp.StatusCode)
	}

	var payload resolveIDResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode resolve response: %w", err)
	}
	return payload.ID, nil
}

// do executes the request and feeds the outcome to the breaker. The breaker
// does not block calls; it surfaces sustained upstream failure in the logs.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil || resp.StatusCode >= http.StatusInternalServerError {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.Warn("auth service circuit opened", "breaker", c.breaker.Name())
		}
	} else {
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.logger.Info("auth service circuit closed", "breaker", c.breaker.Name())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("auth service request failed: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("auth service unavailable: status %d", resp.StatusCode)
	}
	return resp, nil
}

// Package audit defines security audit events emitted by the authentication
// engine and the publisher that fans them out. Publishing is best-effort:
// audit failures never roll back the operation that produced them.
package audit

import "time"

// Action names the audited operation outcome.
type Action string

const (
	ActionUserRegistered         Action = "user_registered"
	ActionAdminRegistered        Action = "admin_registered"
	ActionLoginSucceeded         Action = "login_succeeded"
	ActionLoginFailed            Action = "login_failed"
	ActionEmailConfirmed         Action = "email_confirmed"
	ActionPasswordResetRequested Action = "password_reset_requested"
	ActionPasswordReset          Action = "password_reset"
)

// Event is emitted from domain logic to capture key auth actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

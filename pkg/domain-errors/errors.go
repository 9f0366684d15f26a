// Package derrors defines the closed set of domain outcome codes and the
// coded error type services return instead of raising faults for
// business-rule failures. Infrastructure facts live in pkg/platform/sentinel;
// this package is for outcomes a caller is expected to branch on.
package derrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code tags a domain outcome. The set is closed: handlers translate codes to
// HTTP statuses through ToHTTPStatus and nothing else.
type Code string

const (
	// Authentication engine outcomes.
	CodeInvalidCredentials      Code = "invalid_credentials"
	CodeEmailNotConfirmed       Code = "email_not_confirmed"
	CodeUserAlreadyExists       Code = "user_already_exists"
	CodeUserCreationFailed      Code = "user_creation_failed"
	CodeUserNotFound            Code = "user_not_found"
	CodeInvalidLink             Code = "invalid_link"
	CodeEmailConfirmationFailed Code = "email_confirmation_failed"
	CodePasswordResetFailed     Code = "password_reset_failed"

	// Generic transport-facing outcomes.
	CodeUnauthorized Code = "unauthorized"
	CodeBadRequest   Code = "bad_request"
	CodeInternal     Code = "internal"
)

// Error is a domain error with a code, a human-readable message and optional
// multi-line validation details (password policy violations, duplicate email
// messages from the store, and so on).
type Error struct {
	Code    Code
	Message string
	Details []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is/As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithDetails returns a copy of the error carrying validation details.
func (e *Error) WithDetails(details ...string) *Error {
	clone := *e
	clone.Details = append(clone.Details[:len(clone.Details):len(clone.Details)], details...)
	return &clone
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the domain code from err, or CodeInternal when err carries
// no code. Unclassified errors are infrastructure faults by definition.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// DetailsOf extracts validation details from err, if any.
func DetailsOf(err error) []string {
	var de *Error
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}

// ToHTTPStatus is the single pure mapping from outcome code to client-facing
// status category. Handlers must not vary this by call site.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidCredentials, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeEmailNotConfirmed, CodeUserCreationFailed, CodeInvalidLink,
		CodeEmailConfirmationFailed, CodePasswordResetFailed, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUserNotFound:
		return http.StatusNotFound
	case CodeUserAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

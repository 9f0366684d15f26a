package credentials

import (
	"fmt"
	"unicode"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// PolicyError reports password policy violations. The violation messages
// surface verbatim as the Details of a failed registration or reset.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string { return "password does not satisfy policy" }

// checkPasswordPolicy returns nil when the password is acceptable.
func checkPasswordPolicy(password string) error {
	var violations []string
	if len(password) < MinPasswordLength {
		violations = append(violations, fmt.Sprintf("Passwords must be at least %d characters.", MinPasswordLength))
	}

	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	if !hasDigit {
		violations = append(violations, "Passwords must have at least one digit ('0'-'9').")
	}
	if !hasLower {
		violations = append(violations, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if !hasUpper {
		violations = append(violations, "Passwords must have at least one uppercase ('A'-'Z').")
	}

	if len(violations) > 0 {
		return &PolicyError{Violations: violations}
	}
	return nil
}

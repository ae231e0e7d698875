package session

import (
	"regexp"
	"strings"
)

const (
	EmailRequired        = "Email is required."
	EmailInvalid         = "Must be a valid email address."
	PasswordRequired     = "Password is required."
	PasswordTooShort     = "Must be at least 6 characters."
	InvalidCredentials   = "Please fix the highlighted fields."
	minimumPasswordChars = 6
)

var emailShape = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// ValidateCredentials checks the form before any call is made.
// It returns nil when both values are acceptable.
func ValidateCredentials(email string, password string) map[string][]string {
	fields := make(map[string][]string)
	switch {
	case strings.TrimSpace(email) == "":
		fields["email"] = []string{EmailRequired}
	case !emailShape.MatchString(email):
		fields["email"] = []string{EmailInvalid}
	}
	switch {
	case password == "":
		fields["password"] = []string{PasswordRequired}
	case len(password) < minimumPasswordChars:
		fields["password"] = []string{PasswordTooShort}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

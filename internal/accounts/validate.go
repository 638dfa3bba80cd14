package accounts

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"signupgw/pkg/problems"
)

const (
	minPasswordLen = 5
	maxPasswordLen = 32
)

// ValidateEmail accepts plain RFC 5322 addresses (no display names).
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return &problems.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	return nil
}

// ValidatePassword enforces the 5–32 character bounds, inclusive.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return &problems.ValidationError{Field: "password", Reason: "must be 5-32 characters"}
	}
	return nil
}

package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

var (
	// ErrInvalidEmail indicates a malformed email address
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrPasswordTooShort indicates a password below MinPasswordLength
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")

	// ErrInvalidAadhaar indicates an Aadhaar number that is not 12 digits
	ErrInvalidAadhaar = errors.New("aadhaar number must be 12 digits")
)

var aadhaarRegex = regexp.MustCompile(`^[2-9]\d{11}$`)

// NormalizeEmail validates an address and returns it trimmed and lowercased
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ValidatePassword checks the password policy
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// NormalizeAadhaar strips spaces and dashes and checks the 12-digit format
func NormalizeAadhaar(number string) (string, error) {
	number = strings.ReplaceAll(number, " ", "")
	number = strings.ReplaceAll(number, "-", "")
	if !aadhaarRegex.MatchString(number) {
		return "", ErrInvalidAadhaar
	}
	return number, nil
}

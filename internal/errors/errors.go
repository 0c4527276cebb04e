package errors

import (
	"errors"
	"fmt"
)

// Common error types for the device-login session service
var (
	// Fingerprint errors
	ErrInvalidFingerprint = errors.New("invalid fingerprint")

	// Session store errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrFingerprintMismatch = errors.New("fingerprint mismatch")

	// Session guard errors
	ErrNoSession       = errors.New("no session cookies present")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrCSRFMismatch    = errors.New("csrf token mismatch")
	ErrForbidden       = errors.New("forbidden")

	// Device-login errors
	ErrLoginNotFound = errors.New("login attempt not found")
	ErrNotCompleted  = errors.New("login attempt not completed")
	ErrUnauthorized  = errors.New("user not authorized for any role")
	ErrLoginFailed   = errors.New("login attempt failed")
	ErrLoginExpired  = errors.New("login attempt expired")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

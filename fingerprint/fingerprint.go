// Package fingerprint canonicalizes and hashes the client-supplied browser
// fingerprint before it is bound to a session. The digest is a binding aid,
// not a secret: it only needs to distinguish browsers.
package fingerprint

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"

	apperrors "github.com/jrsteele09/go-device-auth/internal/errors"
)

// DigestLength is the length in hex characters of every digest Hash returns.
const DigestLength = 64

// Hash canonicalizes raw and returns a fixed-length BLAKE2b-256 hex digest.
// Empty (or whitespace-only) input is rejected with ErrInvalidFingerprint.
func Hash(raw string) (string, error) {
	canonical := strings.TrimSpace(raw)
	if canonical == "" {
		return "", apperrors.ErrInvalidFingerprint
	}
	sum := blake2b.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}

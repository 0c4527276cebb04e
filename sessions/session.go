// Package sessions owns the lifetime of every active authenticated session.
// Records live in memory only; a restart logs everyone out by design.
package sessions

import (
	"time"

	"github.com/jrsteele09/go-device-auth/identity"
)

// Record is one active session. The store is the only component allowed to
// mutate a Record; everyone else works with copies.
type Record struct {
	SessionID       string        // Opaque, crypto-random, never derived from user input
	FingerprintHash string        // Bound at creation, immutable for the session's lifetime
	PrincipalID     string        // Provider user ID
	Email           string
	Username        string
	TenantID        string
	Roles           []string      // Never empty for an active session
	CSRFToken       string        // Rotated in place, never accepted from the client
	TTL             time.Duration // Sliding-expiry window
	CreatedAt       time.Time
	LastSeenAt      time.Time
	ExpiresAt       time.Time
}

// Repo is the session store contract. Downstream request handlers consume
// sessions through this interface and never touch records directly.
type Repo interface {
	// Create mints a fresh session ID and CSRF token, inserts atomically, and
	// returns the new record.
	Create(fingerprintHash string, principal identity.Principal, roles []string, ttl time.Duration) (Record, error)

	// Touch validates the fingerprint binding and extends the sliding expiry.
	// A fingerprint mismatch deletes the record before returning
	// ErrFingerprintMismatch (fail closed). A missing or lazily-expired
	// record returns ErrSessionNotFound.
	Touch(sessionID, fingerprintHash string) (Record, error)

	// Rotate replaces the CSRF token in place, leaving session ID and roles
	// untouched, and returns the new token.
	Rotate(sessionID string) (string, error)

	// Delete removes a session. Deleting a non-existent session is not an error.
	Delete(sessionID string) error

	// DeleteByFingerprint removes every session bound to the given
	// fingerprint hash and reports how many were removed.
	DeleteByFingerprint(fingerprintHash string) int

	// List returns a snapshot of all live records.
	List() []Record

	// Sweep removes every record whose expiry has passed and reports the count.
	Sweep(now time.Time) int
}

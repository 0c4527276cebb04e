// Package devicelogin drives the identity provider's device-code flow. Each
// login attempt gets a short-lived PendingLogin record and exactly one
// background worker that owns its state transitions.
package devicelogin

import (
	"time"

	"github.com/jrsteele09/go-device-auth/identity"
)

// State is the closed set of login-attempt states.
type State string

const (
	StateStarted      State = "started"
	StatePolling      State = "polling"
	StateCompleted    State = "completed"
	StateAuthorized   State = "authorized"
	StateUnauthorized State = "unauthorized"
	StateFailed       State = "failed"
	StateExpired      State = "expired"
)

// Terminal reports whether no further automatic transition can occur.
// COMPLETED is not terminal: it still awaits a finalize call.
func (s State) Terminal() bool {
	switch s {
	case StateAuthorized, StateUnauthorized, StateFailed, StateExpired:
		return true
	}
	return false
}

// PendingLogin tracks one in-flight device login, keyed by correlation ID.
// DeviceCode and VerificationURI are provider-supplied and set once; only
// the owning background worker and the finalize call mutate State.
type PendingLogin struct {
	CorrelationID   string
	State           State
	DeviceCode      string
	VerificationURI string
	Principal       *identity.Principal
	FailureReason   string
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// Package identity defines the contract with the external identity provider.
// The core only ever starts a device login and polls it; the provider does
// the actual code exchange.
package identity

import "context"

// Principal is the identity the provider reports once the user has approved
// the device login on their second device.
type Principal struct {
	UserID   string
	Email    string
	Username string
	TenantID string
	GroupIDs []string
}

// DeviceAuth is the provider's answer to a login start: the short code the
// user types at the verification URI, plus the correlation ID used for
// subsequent polls.
type DeviceAuth struct {
	CorrelationID   string
	DeviceCode      string
	VerificationURI string
}

type PollState string

const (
	// PollPending means the user has not yet approved or denied the login.
	PollPending PollState = "pending"
	// PollSucceeded means the user approved; Principal is populated.
	PollSucceeded PollState = "succeeded"
	// PollFailed means the provider denied or errored; Reason says why.
	PollFailed PollState = "failed"
)

// PollResult is one snapshot of an in-flight device login at the provider.
type PollResult struct {
	State     PollState
	Principal *Principal
	Reason    string
}

// Provider performs the device-code exchange against the identity provider.
// Implementations must be safe for concurrent use; every network round trip
// takes a context so the caller controls deadlines.
type Provider interface {
	StartDeviceLogin(ctx context.Context) (DeviceAuth, error)
	PollDeviceLogin(ctx context.Context, correlationID string) (PollResult, error)
}

package devicelogin

import "time"

// Repo stores in-flight login attempts. The orchestrator is the only caller;
// nothing else may mutate a PendingLogin.
type Repo interface {
	// Insert stores a new pending login. Inserting an existing correlation ID
	// is an error; correlation IDs are never reused.
	Insert(pending *PendingLogin) error

	// Get returns a snapshot copy of a pending login.
	Get(correlationID string) (*PendingLogin, error)

	// Update applies mutate under the record's lock. The record passed to
	// mutate is the live one; Update linearizes all writes per correlation ID.
	Update(correlationID string, mutate func(*PendingLogin)) error

	// Claim returns a snapshot and, when the login has reached COMPLETED or a
	// terminal state, removes the record atomically so at most one caller can
	// act on the outcome.
	Claim(correlationID string) (*PendingLogin, error)

	// Delete removes a pending login. Idempotent.
	Delete(correlationID string) error

	// Sweep removes every record whose deadline has passed and reports the count.
	Sweep(now time.Time) int
}

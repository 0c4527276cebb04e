package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-device-auth/auth"
	"github.com/jrsteele09/go-device-auth/fingerprint"
	"github.com/jrsteele09/go-device-auth/identity"
	apperrors "github.com/jrsteele09/go-device-auth/internal/errors"
	"github.com/jrsteele09/go-device-auth/sessions"
)

const testFingerprint = "mozilla/5.0|en-GB|1920x1080"

type testFixture struct {
	sessionRepo *sessions.InMemoryRepo
	guard       *auth.SessionGuard
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	sessionRepo := sessions.NewInMemoryRepo(12 * time.Hour)
	t.Cleanup(sessionRepo.Close)

	guard, err := auth.NewSessionGuard(sessionRepo)
	require.NoError(t, err)

	return &testFixture{sessionRepo: sessionRepo, guard: guard}
}

func (f *testFixture) createSession(t *testing.T, roles ...string) sessions.Record {
	t.Helper()

	hash, err := fingerprint.Hash(testFingerprint)
	require.NoError(t, err)

	record, err := f.sessionRepo.Create(hash, identity.Principal{
		UserID:   "user-1",
		Email:    "john.doe@example.com",
		Username: "john.doe",
		TenantID: "tenant-1",
	}, roles, 30*time.Minute)
	require.NoError(t, err)
	return record
}

func TestAuthenticateResolvesPrincipal(t *testing.T) {
	f := setupTestFixture(t)
	record := f.createSession(t, "user")

	principal, err := f.guard.Authenticate(record.SessionID, testFingerprint)
	require.NoError(t, err)
	require.Equal(t, "user-1", principal.UserID)
	require.Equal(t, "john.doe@example.com", principal.Email)
	require.Equal(t, []string{"user"}, principal.Roles)
	require.Equal(t, record.CSRFToken, principal.CSRFToken)
}

func TestAuthenticateExtendsSlidingExpiry(t *testing.T) {
	f := setupTestFixture(t)
	record := f.createSession(t, "user")

	first, err := f.guard.Authenticate(record.SessionID, testFingerprint)
	require.NoError(t, err)

	second, err := f.guard.Authenticate(record.SessionID, testFingerprint)
	require.NoError(t, err)
	require.False(t, second.ExpiresAt.Before(first.ExpiresAt))
}

func TestAuthenticateMissingCookies(t *testing.T) {
	f := setupTestFixture(t)
	record := f.createSession(t, "user")

	_, err := f.guard.Authenticate("", testFingerprint)
	require.ErrorIs(t, err, apperrors.ErrNoSession)

	_, err = f.guard.Authenticate(record.SessionID, "")
	require.ErrorIs(t, err, apperrors.ErrNoSession)
}

func TestAuthenticateUnknownSessionIsUniformError(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.guard.Authenticate("no-such-session", testFingerprint)
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAuthenticateFingerprintMismatchDestroysSession(t *testing.T) {
	f := setupTestFixture(t)
	record := f.createSession(t, "user")

	// The wrong browser gets the same uniform error as a missing session...
	_, err := f.guard.Authenticate(record.SessionID, "different-browser")
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	// ...and the session is gone even for the original browser.
	_, err = f.guard.Authenticate(record.SessionID, testFingerprint)
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestVerifyCSRF(t *testing.T) {
	f := setupTestFixture(t)
	record := f.createSession(t, "user")

	principal, err := f.guard.Authenticate(record.SessionID, testFingerprint)
	require.NoError(t, err)

	require.NoError(t, f.guard.VerifyCSRF(principal, record.CSRFToken))
	require.ErrorIs(t, f.guard.VerifyCSRF(principal, "stale-token"), apperrors.ErrCSRFMismatch)
	require.ErrorIs(t, f.guard.VerifyCSRF(principal, ""), apperrors.ErrCSRFMismatch)

	// A failed CSRF check must not invalidate the session.
	_, err = f.guard.Authenticate(record.SessionID, testFingerprint)
	require.NoError(t, err)
}

func TestVerifyCSRFAfterRotation(t *testing.T) {
	f := setupTestFixture(t)
	record := f.createSession(t, "user")

	rotated, err := f.sessionRepo.Rotate(record.SessionID)
	require.NoError(t, err)

	principal, err := f.guard.Authenticate(record.SessionID, testFingerprint)
	require.NoError(t, err)

	require.ErrorIs(t, f.guard.VerifyCSRF(principal, record.CSRFToken), apperrors.ErrCSRFMismatch)
	require.NoError(t, f.guard.VerifyCSRF(principal, rotated))
}

func TestRequireRole(t *testing.T) {
	principal := &auth.Principal{Roles: []string{"user"}}

	require.NoError(t, auth.RequireRole(principal))
	require.NoError(t, auth.RequireRole(principal, "admin", "user"))
	require.ErrorIs(t, auth.RequireRole(principal, "admin"), apperrors.ErrForbidden)
	require.ErrorIs(t, auth.RequireRole(nil, "admin"), apperrors.ErrUnauthenticated)
}

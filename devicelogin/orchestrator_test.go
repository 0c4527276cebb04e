package devicelogin_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-device-auth/devicelogin"
	"github.com/jrsteele09/go-device-auth/fingerprint"
	"github.com/jrsteele09/go-device-auth/identity"
	"github.com/jrsteele09/go-device-auth/identity/providerfake"
	apperrors "github.com/jrsteele09/go-device-auth/internal/errors"
	"github.com/jrsteele09/go-device-auth/roles"
	"github.com/jrsteele09/go-device-auth/sessions"
)

const (
	adminGroupID    = "22222222-aaaa-4bbb-8ccc-000000000001"
	testFingerprint = "mozilla/5.0|en-GB|1920x1080"
)

type testFixture struct {
	provider     *providerfake.FakeProvider
	sessionRepo  *sessions.InMemoryRepo
	orchestrator *devicelogin.Orchestrator
}

func setupTestFixture(t *testing.T, opts []devicelogin.OrchestratorOption, script ...identity.PollResult) *testFixture {
	t.Helper()

	provider := providerfake.NewFakeProvider(script...)
	sessionRepo := sessions.NewInMemoryRepo(12 * time.Hour)
	resolver := roles.NewResolver(map[string]string{adminGroupID: "admin"}, "")

	options := append([]devicelogin.OrchestratorOption{
		devicelogin.WithPollInterval(2 * time.Millisecond),
		devicelogin.WithLoginTimeout(2 * time.Second),
	}, opts...)

	orchestrator, err := devicelogin.New(provider, devicelogin.NewInMemoryRepo(), sessionRepo, resolver, options...)
	require.NoError(t, err)

	t.Cleanup(func() {
		orchestrator.Close()
		sessionRepo.Close()
	})

	return &testFixture{
		provider:     provider,
		sessionRepo:  sessionRepo,
		orchestrator: orchestrator,
	}
}

func approvedPrincipal(groupIDs ...string) *identity.Principal {
	return &identity.Principal{
		UserID:   "user-1",
		Email:    "john.doe@example.com",
		Username: "john.doe",
		TenantID: "tenant-1",
		GroupIDs: groupIDs,
	}
}

func (f *testFixture) waitForState(t *testing.T, correlationID string, want devicelogin.State) {
	t.Helper()

	require.Eventually(t, func() bool {
		status, err := f.orchestrator.Status(correlationID)
		if err != nil {
			return false
		}
		return status.State == want
	}, 2*time.Second, 5*time.Millisecond, "login never reached state %q", want)
}

func TestLoginApprovedAndFinalized(t *testing.T) {
	f := setupTestFixture(t, nil,
		identity.PollResult{State: identity.PollPending},
		identity.PollResult{State: identity.PollPending},
		identity.PollResult{State: identity.PollSucceeded, Principal: approvedPrincipal(adminGroupID)},
	)

	started, err := f.orchestrator.Start(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, started.CorrelationID)
	require.Equal(t, "ABCD-1234", started.DeviceCode)
	require.NotEmpty(t, started.VerificationURI)

	f.waitForState(t, started.CorrelationID, devicelogin.StateCompleted)
	require.GreaterOrEqual(t, f.provider.PollCount(started.CorrelationID), 3)

	record, err := f.orchestrator.Finalize(started.CorrelationID, testFingerprint)
	require.NoError(t, err)
	require.Equal(t, []string{"admin"}, record.Roles)
	require.Equal(t, "john.doe@example.com", record.Email)

	// The session is live and bound to the supplied fingerprint.
	hash, err := fingerprint.Hash(testFingerprint)
	require.NoError(t, err)
	_, err = f.sessionRepo.Touch(record.SessionID, hash)
	require.NoError(t, err)

	// The pending login is gone once its outcome has been claimed.
	_, err = f.orchestrator.Status(started.CorrelationID)
	require.ErrorIs(t, err, apperrors.ErrLoginNotFound)
}

func TestFinalizeUnauthorizedCreatesNoSession(t *testing.T) {
	f := setupTestFixture(t, nil,
		identity.PollResult{State: identity.PollSucceeded, Principal: approvedPrincipal("unmapped-group")},
	)

	started, err := f.orchestrator.Start(context.Background())
	require.NoError(t, err)

	f.waitForState(t, started.CorrelationID, devicelogin.StateCompleted)

	_, err = f.orchestrator.Finalize(started.CorrelationID, testFingerprint)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.Empty(t, f.sessionRepo.List())
}

func TestFinalizeBeforeCompletion(t *testing.T) {
	f := setupTestFixture(t, nil,
		identity.PollResult{State: identity.PollPending},
	)

	started, err := f.orchestrator.Start(context.Background())
	require.NoError(t, err)

	_, err = f.orchestrator.Finalize(started.CorrelationID, testFingerprint)
	require.ErrorIs(t, err, apperrors.ErrNotCompleted)

	// A premature finalize does not consume the attempt.
	status, err := f.orchestrator.Status(started.CorrelationID)
	require.NoError(t, err)
	require.Contains(t, []devicelogin.State{devicelogin.StateStarted, devicelogin.StatePolling}, status.State)
}

func TestDeniedLoginReportedOnce(t *testing.T) {
	f := setupTestFixture(t, nil,
		identity.PollResult{State: identity.PollFailed, Reason: "access_denied"},
	)

	started, err := f.orchestrator.Start(context.Background())
	require.NoError(t, err)

	f.waitForState(t, started.CorrelationID, devicelogin.StateFailed)

	// Observing a terminal state deletes the record.
	_, err = f.orchestrator.Status(started.CorrelationID)
	require.ErrorIs(t, err, apperrors.ErrLoginNotFound)

	_, err = f.orchestrator.Finalize(started.CorrelationID, testFingerprint)
	require.ErrorIs(t, err, apperrors.ErrLoginNotFound)
}

func TestLoginTimeoutEnforcedByWorker(t *testing.T) {
	f := setupTestFixture(t, []devicelogin.OrchestratorOption{
		devicelogin.WithLoginTimeout(30 * time.Millisecond),
		devicelogin.WithPollInterval(5 * time.Millisecond),
	},
		identity.PollResult{State: identity.PollPending},
	)

	started, err := f.orchestrator.Start(context.Background())
	require.NoError(t, err)

	// Nobody polls the status endpoint; the worker expires the attempt on its own.
	require.Eventually(t, func() bool {
		_, err := f.orchestrator.Finalize(started.CorrelationID, testFingerprint)
		return err != nil && (apperrors.Is(err, apperrors.ErrLoginExpired) || apperrors.Is(err, apperrors.ErrLoginNotFound))
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSingleWorkerPerLoginAttempt(t *testing.T) {
	f := setupTestFixture(t, []devicelogin.OrchestratorOption{
		devicelogin.WithPollInterval(1 * time.Millisecond),
	},
		identity.PollResult{State: identity.PollPending},
	)
	f.provider.PollDelay = 5 * time.Millisecond

	started, err := f.orchestrator.Start(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.provider.PollCount(started.CorrelationID) >= 5
	}, 2*time.Second, 5*time.Millisecond)

	// Slow polls never overlap: one worker owns the attempt.
	require.Equal(t, 1, f.provider.MaxConcurrentPolls())
}

func TestDuplicateCorrelationIDNeverSpawnsSecondPoller(t *testing.T) {
	f := setupTestFixture(t, nil,
		identity.PollResult{State: identity.PollPending},
	)
	f.provider.FixedCorrelationID = "duplicated-correlation-id"

	_, err := f.orchestrator.Start(context.Background())
	require.NoError(t, err)

	_, err = f.orchestrator.Start(context.Background())
	require.Error(t, err)
}

func TestCloseStopsPollingWorkers(t *testing.T) {
	f := setupTestFixture(t, nil,
		identity.PollResult{State: identity.PollPending},
	)

	_, err := f.orchestrator.Start(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		f.orchestrator.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not stop polling workers")
	}
}

package devicelogin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-device-auth/fingerprint"
	"github.com/jrsteele09/go-device-auth/identity"
	apperrors "github.com/jrsteele09/go-device-auth/internal/errors"
	"github.com/jrsteele09/go-device-auth/roles"
	"github.com/jrsteele09/go-device-auth/sessions"
)

const (
	defaultLoginTimeout = 5 * time.Minute
	defaultPollInterval = 5 * time.Second
	defaultSessionTTL   = 30 * time.Minute
)

// StartResult is what the client needs to complete login on a second device.
type StartResult struct {
	CorrelationID   string
	DeviceCode      string
	VerificationURI string
}

// StatusResult is a read-only snapshot of an in-flight login.
type StatusResult struct {
	State           State
	DeviceCode      string
	VerificationURI string
}

// Orchestrator drives device-code logins: it spawns one background polling
// worker per attempt, owns the pending-login table, and turns completed
// logins into session records at finalize time.
type Orchestrator struct {
	provider     identity.Provider
	pending      Repo
	sessionRepo  sessions.Repo
	resolver     *roles.Resolver
	loginTimeout time.Duration
	pollInterval time.Duration
	sessionTTL   time.Duration
	nowTime      func() time.Time

	baseCtx     context.Context
	cancel      context.CancelFunc
	workers     sync.WaitGroup
	sweepTicker *time.Ticker
	closeOnce   sync.Once
}

// OrchestratorOption modifies an Orchestrator instance.
type OrchestratorOption func(*Orchestrator)

// WithLoginTimeout sets the absolute deadline for a login attempt.
func WithLoginTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.loginTimeout = timeout
	}
}

// WithPollInterval sets the backoff interval between provider polls.
func WithPollInterval(interval time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.pollInterval = interval
	}
}

// WithSessionTTL sets the sliding-expiry window for sessions created at finalize.
func WithSessionTTL(ttl time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sessionTTL = ttl
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.nowTime = nowFunc
	}
}

// WithSweepInterval starts a background sweeper that reclaims abandoned
// login attempts. Zero disables it.
func WithSweepInterval(interval time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.sweepTicker = time.NewTicker(interval)
		}
	}
}

// New initializes an Orchestrator with required dependencies.
func New(
	provider identity.Provider,
	pending Repo,
	sessionRepo sessions.Repo,
	resolver *roles.Resolver,
	options ...OrchestratorOption,
) (*Orchestrator, error) {
	if provider == nil {
		return nil, errors.New("[devicelogin New] provider is required")
	}
	if pending == nil {
		return nil, errors.New("[devicelogin New] pending repo is required")
	}
	if sessionRepo == nil {
		return nil, errors.New("[devicelogin New] session repo is required")
	}
	if resolver == nil {
		return nil, errors.New("[devicelogin New] role resolver is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		provider:     provider,
		pending:      pending,
		sessionRepo:  sessionRepo,
		resolver:     resolver,
		loginTimeout: defaultLoginTimeout,
		pollInterval: defaultPollInterval,
		sessionTTL:   defaultSessionTTL,
		nowTime:      time.Now,
		baseCtx:      ctx,
		cancel:       cancel,
	}

	for _, opt := range options {
		opt(o)
	}

	if o.sweepTicker != nil {
		o.workers.Add(1)
		go o.sweepLoop()
	}

	return o, nil
}

// Close stops every polling worker and the sweeper, then waits for them.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.cancel()
		if o.sweepTicker != nil {
			o.sweepTicker.Stop()
		}
		o.workers.Wait()
	})
}

// Start begins a new device login. It performs the initial provider round
// trip on the request path, records the attempt, and hands polling off to a
// dedicated background worker bound to the correlation ID, not the request.
func (o *Orchestrator) Start(ctx context.Context) (StartResult, error) {
	deviceAuth, err := o.provider.StartDeviceLogin(ctx)
	if err != nil {
		return StartResult{}, fmt.Errorf("[Orchestrator Start] provider rejected device login: %w", err)
	}

	now := o.nowTime()
	pending := &PendingLogin{
		CorrelationID:   deviceAuth.CorrelationID,
		State:           StateStarted,
		DeviceCode:      deviceAuth.DeviceCode,
		VerificationURI: deviceAuth.VerificationURI,
		CreatedAt:       now,
		ExpiresAt:       now.Add(o.loginTimeout),
	}

	if err := o.pending.Insert(pending); err != nil {
		return StartResult{}, fmt.Errorf("[Orchestrator Start] failed to record login attempt: %w", err)
	}

	// Exactly one worker per correlation ID; it alone writes the
	// STARTED→POLLING→COMPLETED/FAILED/EXPIRED transitions.
	o.workers.Add(1)
	go o.pollLoop(pending.CorrelationID, pending.ExpiresAt)

	log.Info().
		Str("correlation_id", pending.CorrelationID).
		Str("verification_uri", pending.VerificationURI).
		Msg("device login started")

	return StartResult{
		CorrelationID:   pending.CorrelationID,
		DeviceCode:      pending.DeviceCode,
		VerificationURI: pending.VerificationURI,
	}, nil
}

// pollLoop is the background worker for one login attempt. It keeps polling
// after the client stops asking, and enforces the login deadline itself.
func (o *Orchestrator) pollLoop(correlationID string, deadline time.Time) {
	defer o.workers.Done()

	o.transition(correlationID, func(p *PendingLogin) {
		p.State = StatePolling
	})

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.baseCtx.Done():
			return
		case <-ticker.C:
		}

		if !o.nowTime().Before(deadline) {
			o.transition(correlationID, func(p *PendingLogin) {
				p.State = StateExpired
				p.FailureReason = "login timed out"
			})
			log.Info().Str("correlation_id", correlationID).Msg("device login expired")
			return
		}

		pollCtx, cancelPoll := context.WithDeadline(o.baseCtx, deadline)
		result, err := o.provider.PollDeviceLogin(pollCtx, correlationID)
		cancelPoll()
		if err != nil {
			o.transition(correlationID, func(p *PendingLogin) {
				p.State = StateFailed
				p.FailureReason = err.Error()
			})
			log.Warn().Err(err).Str("correlation_id", correlationID).Msg("device login poll failed")
			return
		}

		switch result.State {
		case identity.PollPending:
			continue
		case identity.PollSucceeded:
			o.transition(correlationID, func(p *PendingLogin) {
				p.State = StateCompleted
				p.Principal = result.Principal
			})
			log.Info().Str("correlation_id", correlationID).Msg("device login completed by user")
			return
		case identity.PollFailed:
			o.transition(correlationID, func(p *PendingLogin) {
				p.State = StateFailed
				p.FailureReason = result.Reason
			})
			log.Warn().Str("correlation_id", correlationID).Str("reason", result.Reason).Msg("device login denied")
			return
		}
	}
}

// transition advances a login's state. States only ever move forward: once a
// record is terminal the worker never overwrites it.
func (o *Orchestrator) transition(correlationID string, mutate func(*PendingLogin)) {
	err := o.pending.Update(correlationID, func(p *PendingLogin) {
		if p.State.Terminal() {
			return
		}
		mutate(p)
	})
	if err != nil && !errors.Is(err, apperrors.ErrLoginNotFound) {
		log.Error().Err(err).Str("correlation_id", correlationID).Msg("failed to transition login state")
	}
}

// Status returns the current state snapshot without ever blocking on the
// provider. Observing FAILED or EXPIRED removes the record: terminal states
// are reported once.
func (o *Orchestrator) Status(correlationID string) (StatusResult, error) {
	pending, err := o.pending.Get(correlationID)
	if err != nil {
		return StatusResult{}, err
	}

	if pending.State == StateFailed || pending.State == StateExpired {
		_ = o.pending.Delete(correlationID)
	}

	return StatusResult{
		State:           pending.State,
		DeviceCode:      pending.DeviceCode,
		VerificationURI: pending.VerificationURI,
	}, nil
}

// Finalize turns a COMPLETED login into an authenticated session, binding the
// supplied browser fingerprint. Roles resolve exactly once, here; a principal
// with no resolvable role never gets a session.
func (o *Orchestrator) Finalize(correlationID, rawFingerprint string) (sessions.Record, error) {
	pending, err := o.pending.Claim(correlationID)
	if err != nil {
		return sessions.Record{}, err
	}

	switch pending.State {
	case StateStarted, StatePolling:
		return sessions.Record{}, apperrors.ErrNotCompleted
	case StateFailed:
		return sessions.Record{}, fmt.Errorf("%w: %s", apperrors.ErrLoginFailed, pending.FailureReason)
	case StateExpired:
		return sessions.Record{}, apperrors.ErrLoginExpired
	case StateCompleted:
		// Claimed exclusively; fall through to create the session.
	default:
		return sessions.Record{}, apperrors.ErrLoginNotFound
	}

	fingerprintHash, err := fingerprint.Hash(rawFingerprint)
	if err != nil {
		return sessions.Record{}, err
	}

	resolved := o.resolver.Resolve(pending.Principal.GroupIDs)
	if len(resolved) == 0 {
		log.Warn().
			Str("correlation_id", correlationID).
			Str("email", pending.Principal.Email).
			Msg("login completed but no role resolved, refusing session")
		return sessions.Record{}, apperrors.ErrUnauthorized
	}

	record, err := o.sessionRepo.Create(fingerprintHash, *pending.Principal, resolved, o.sessionTTL)
	if err != nil {
		return sessions.Record{}, fmt.Errorf("[Orchestrator Finalize] failed to create session: %w", err)
	}

	log.Info().
		Str("correlation_id", correlationID).
		Str("email", record.Email).
		Strs("roles", record.Roles).
		Msg("device login authorized")

	return record, nil
}

func (o *Orchestrator) sweepLoop() {
	defer o.workers.Done()

	for {
		select {
		case <-o.baseCtx.Done():
			return
		case <-o.sweepTicker.C:
			if removed := o.pending.Sweep(o.nowTime()); removed > 0 {
				log.Debug().Int("removed", removed).Msg("pending login sweep reclaimed abandoned attempts")
			}
		}
	}
}

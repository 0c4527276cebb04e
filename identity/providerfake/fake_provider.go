// Package providerfake is a scriptable identity.Provider for tests: each
// started login walks a fixed sequence of poll results.
package providerfake

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-device-auth/identity"
)

var _ identity.Provider = (*FakeProvider)(nil)

type FakeProvider struct {
	lock sync.Mutex

	// StartErr, when set, makes StartDeviceLogin fail.
	StartErr error
	// FixedCorrelationID, when set, is returned for every start call.
	FixedCorrelationID string
	// PollDelay simulates provider latency inside PollDeviceLogin.
	PollDelay time.Duration

	script      []identity.PollResult
	remaining   map[string][]identity.PollResult
	startCount  int
	pollCounts  map[string]int
	inFlight    int
	maxInFlight int
}

// NewFakeProvider scripts the poll results every login attempt walks through.
// The last result repeats once the script is exhausted.
func NewFakeProvider(script ...identity.PollResult) *FakeProvider {
	return &FakeProvider{
		script:     script,
		remaining:  make(map[string][]identity.PollResult),
		pollCounts: make(map[string]int),
	}
}

func (f *FakeProvider) StartDeviceLogin(ctx context.Context) (identity.DeviceAuth, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.StartErr != nil {
		return identity.DeviceAuth{}, f.StartErr
	}

	correlationID := f.FixedCorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	f.startCount++
	f.remaining[correlationID] = slices.Clone(f.script)

	return identity.DeviceAuth{
		CorrelationID:   correlationID,
		DeviceCode:      "ABCD-1234",
		VerificationURI: "https://example.com/devicelogin",
	}, nil
}

func (f *FakeProvider) PollDeviceLogin(ctx context.Context, correlationID string) (identity.PollResult, error) {
	f.lock.Lock()
	f.pollCounts[correlationID]++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay := f.PollDelay
	f.lock.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	f.inFlight--

	queue := f.remaining[correlationID]
	if len(queue) == 0 {
		return identity.PollResult{State: identity.PollPending}, nil
	}

	next := queue[0]
	if len(queue) > 1 {
		f.remaining[correlationID] = queue[1:]
	}
	return next, nil
}

// StartCount reports how many logins were started.
func (f *FakeProvider) StartCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.startCount
}

// PollCount reports how many polls one correlation ID has seen.
func (f *FakeProvider) PollCount(correlationID string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.pollCounts[correlationID]
}

// MaxConcurrentPolls reports the peak number of overlapping poll calls.
func (f *FakeProvider) MaxConcurrentPolls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.maxInFlight
}

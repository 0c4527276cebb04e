package devicelogin

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-device-auth/internal/errors"
)

const shardCount = 8

// InMemoryRepo is a sharded, thread-safe in-memory pending-login table.
// Distinct correlation IDs do not contend with each other; writes to one
// record are serialized by its shard lock.
type InMemoryRepo struct {
	shards [shardCount]*shard
}

type shard struct {
	mu       sync.RWMutex
	pendings map[string]*PendingLogin
}

// NewInMemoryRepo creates a new in-memory pending-login repository.
func NewInMemoryRepo() *InMemoryRepo {
	r := &InMemoryRepo{}
	for i := range r.shards {
		r.shards[i] = &shard{pendings: make(map[string]*PendingLogin)}
	}
	return r
}

func (r *InMemoryRepo) shardFor(correlationID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(correlationID))
	return r.shards[h.Sum32()%shardCount]
}

// Insert stores a new pending login.
func (r *InMemoryRepo) Insert(pending *PendingLogin) error {
	if pending == nil {
		return errors.New("pending login cannot be nil")
	}
	if pending.CorrelationID == "" {
		return errors.New("correlation ID cannot be empty")
	}

	s := r.shardFor(pending.CorrelationID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pendings[pending.CorrelationID]; exists {
		return errors.New("correlation ID already in use")
	}

	copied := *pending
	s.pendings[pending.CorrelationID] = &copied
	return nil
}

// Get returns a copy to prevent external modifications.
func (r *InMemoryRepo) Get(correlationID string) (*PendingLogin, error) {
	s := r.shardFor(correlationID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	pending, exists := s.pendings[correlationID]
	if !exists {
		return nil, apperrors.ErrLoginNotFound
	}

	copied := *pending
	return &copied, nil
}

// Update applies mutate to the live record under the shard lock.
func (r *InMemoryRepo) Update(correlationID string, mutate func(*PendingLogin)) error {
	s := r.shardFor(correlationID)

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, exists := s.pendings[correlationID]
	if !exists {
		return apperrors.ErrLoginNotFound
	}

	mutate(pending)
	return nil
}

// Claim returns a snapshot, deleting the record when it is COMPLETED or
// terminal so only one caller observes the outcome.
func (r *InMemoryRepo) Claim(correlationID string) (*PendingLogin, error) {
	s := r.shardFor(correlationID)

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, exists := s.pendings[correlationID]
	if !exists {
		return nil, apperrors.ErrLoginNotFound
	}

	copied := *pending
	if pending.State == StateCompleted || pending.State.Terminal() {
		delete(s.pendings, correlationID)
	}
	return &copied, nil
}

// Delete removes a pending login. Idempotent.
func (r *InMemoryRepo) Delete(correlationID string) error {
	s := r.shardFor(correlationID)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pendings, correlationID)
	return nil
}

// Sweep removes abandoned logins whose deadline has passed.
func (r *InMemoryRepo) Sweep(now time.Time) int {
	removed := 0
	for _, s := range r.shards {
		s.mu.Lock()
		for id, pending := range s.pendings {
			if !now.Before(pending.ExpiresAt) {
				delete(s.pendings, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

var _ Repo = (*InMemoryRepo)(nil)

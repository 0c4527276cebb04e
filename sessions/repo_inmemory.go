package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"hash/fnv"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-device-auth/identity"
	apperrors "github.com/jrsteele09/go-device-auth/internal/errors"
)

const shardCount = 32

// InMemoryRepo is a sharded in-memory session store. Sessions with distinct
// IDs land on independent shards, so unrelated sessions never contend on one
// lock; operations on a single session ID are linearized by its shard lock.
type InMemoryRepo struct {
	shards      [shardCount]*shard
	maxLifetime time.Duration
	nowTime     func() time.Time

	sweepTicker *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

type shard struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// InMemoryRepoOption configures an InMemoryRepo.
type InMemoryRepoOption func(*InMemoryRepo)

// WithNowTime sets the clock function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// WithSweepInterval starts a background sweeper that reclaims expired
// sessions independent of request traffic. Zero disables it.
func WithSweepInterval(interval time.Duration) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		if interval > 0 {
			r.sweepTicker = time.NewTicker(interval)
		}
	}
}

// NewInMemoryRepo creates a sharded in-memory session store. maxLifetime caps
// sliding expiry at an absolute age from creation.
func NewInMemoryRepo(maxLifetime time.Duration, options ...InMemoryRepoOption) *InMemoryRepo {
	r := &InMemoryRepo{
		maxLifetime: maxLifetime,
		nowTime:     time.Now,
		done:        make(chan struct{}),
	}
	for i := range r.shards {
		r.shards[i] = &shard{records: make(map[string]*Record)}
	}

	for _, opt := range options {
		opt(r)
	}

	if r.sweepTicker != nil {
		go r.sweepLoop()
	}

	return r
}

// Close stops the background sweeper. Safe to call more than once.
func (r *InMemoryRepo) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		if r.sweepTicker != nil {
			r.sweepTicker.Stop()
		}
	})
}

func (r *InMemoryRepo) sweepLoop() {
	for {
		select {
		case <-r.done:
			return
		case <-r.sweepTicker.C:
			if removed := r.Sweep(r.nowTime()); removed > 0 {
				log.Debug().Int("removed", removed).Msg("session sweep reclaimed expired sessions")
			}
		}
	}
}

func (r *InMemoryRepo) shardFor(sessionID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return r.shards[h.Sum32()%shardCount]
}

// Create mints a fresh session ID and CSRF token and inserts atomically.
func (r *InMemoryRepo) Create(fingerprintHash string, principal identity.Principal, roles []string, ttl time.Duration) (Record, error) {
	if fingerprintHash == "" {
		return Record{}, apperrors.ErrInvalidFingerprint
	}
	if len(roles) == 0 {
		return Record{}, apperrors.ErrUnauthorized
	}

	now := r.nowTime()
	record := &Record{
		FingerprintHash: fingerprintHash,
		PrincipalID:     principal.UserID,
		Email:           principal.Email,
		Username:        principal.Username,
		TenantID:        principal.TenantID,
		Roles:           slices.Clone(roles),
		CSRFToken:       newOpaqueToken(),
		TTL:             ttl,
		CreatedAt:       now,
		LastSeenAt:      now,
		ExpiresAt:       r.expiry(now, now, ttl),
	}

	for {
		sessionID := newOpaqueToken()
		s := r.shardFor(sessionID)

		s.mu.Lock()
		if _, exists := s.records[sessionID]; exists {
			// 256-bit IDs make a collision vanishingly unlikely; regenerate
			// rather than ever reusing a live session ID.
			s.mu.Unlock()
			continue
		}
		record.SessionID = sessionID
		s.records[sessionID] = record
		snapshot := *record
		snapshot.Roles = slices.Clone(record.Roles)
		s.mu.Unlock()

		return snapshot, nil
	}
}

// Touch validates the fingerprint binding and slides the expiry forward.
func (r *InMemoryRepo) Touch(sessionID, fingerprintHash string) (Record, error) {
	s := r.shardFor(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[sessionID]
	if !ok {
		return Record{}, apperrors.ErrSessionNotFound
	}

	now := r.nowTime()
	if !now.Before(record.ExpiresAt) {
		// Lazy expiry: an expired session is unreachable even before the
		// sweeper gets to it.
		delete(s.records, sessionID)
		return Record{}, apperrors.ErrSessionNotFound
	}

	if record.FingerprintHash != fingerprintHash {
		// Fail closed: a mismatched fingerprint kills the session outright,
		// not just this request.
		delete(s.records, sessionID)
		log.Warn().Str("session_id", sessionID).Msg("fingerprint mismatch, session destroyed")
		return Record{}, apperrors.ErrFingerprintMismatch
	}

	record.LastSeenAt = now
	record.ExpiresAt = r.expiry(record.CreatedAt, now, record.TTL)

	snapshot := *record
	snapshot.Roles = slices.Clone(record.Roles)
	return snapshot, nil
}

// expiry computes lastSeen+ttl capped by the absolute maximum lifetime.
func (r *InMemoryRepo) expiry(createdAt, lastSeenAt time.Time, ttl time.Duration) time.Time {
	expiresAt := lastSeenAt.Add(ttl)
	if r.maxLifetime > 0 {
		if limit := createdAt.Add(r.maxLifetime); expiresAt.After(limit) {
			return limit
		}
	}
	return expiresAt
}

// Rotate replaces the CSRF token in place.
func (r *InMemoryRepo) Rotate(sessionID string) (string, error) {
	s := r.shardFor(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[sessionID]
	if !ok {
		return "", apperrors.ErrSessionNotFound
	}

	record.CSRFToken = newOpaqueToken()
	return record.CSRFToken, nil
}

// Delete removes a session. Idempotent.
func (r *InMemoryRepo) Delete(sessionID string) error {
	s := r.shardFor(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, sessionID)
	return nil
}

// DeleteByFingerprint removes every session bound to fingerprintHash.
func (r *InMemoryRepo) DeleteByFingerprint(fingerprintHash string) int {
	if fingerprintHash == "" {
		return 0
	}

	removed := 0
	for _, s := range r.shards {
		s.mu.Lock()
		for id, record := range s.records {
			if record.FingerprintHash == fingerprintHash {
				delete(s.records, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// List returns a snapshot of all live records.
func (r *InMemoryRepo) List() []Record {
	var records []Record
	for _, s := range r.shards {
		s.mu.RLock()
		for _, record := range s.records {
			snapshot := *record
			snapshot.Roles = slices.Clone(record.Roles)
			records = append(records, snapshot)
		}
		s.mu.RUnlock()
	}
	return records
}

// Sweep removes every record whose expiry has passed.
func (r *InMemoryRepo) Sweep(now time.Time) int {
	removed := 0
	for _, s := range r.shards {
		s.mu.Lock()
		for id, record := range s.records {
			if !now.Before(record.ExpiresAt) {
				delete(s.records, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// newOpaqueToken returns a 256-bit crypto-random base64url string, used for
// both session IDs and CSRF tokens.
func newOpaqueToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

var _ Repo = (*InMemoryRepo)(nil)

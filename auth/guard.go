// Package auth resolves inbound session cookies into an authenticated
// principal. Every protected request path goes through the SessionGuard.
package auth

import (
	"crypto/subtle"
	"errors"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-device-auth/fingerprint"
	apperrors "github.com/jrsteele09/go-device-auth/internal/errors"
	"github.com/jrsteele09/go-device-auth/sessions"
)

// Principal is the authenticated identity handed to request handlers.
type Principal struct {
	UserID     string
	Email      string
	Username   string
	TenantID   string
	Roles      []string
	SessionID  string
	CSRFToken  string
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

// SessionGuard authenticates requests against the session store.
type SessionGuard struct {
	sessionRepo sessions.Repo
}

// NewSessionGuard initializes a SessionGuard with required dependencies.
func NewSessionGuard(sessionRepo sessions.Repo) (*SessionGuard, error) {
	if sessionRepo == nil {
		return nil, errors.New("[NewSessionGuard] session repo is required")
	}
	return &SessionGuard{sessionRepo: sessionRepo}, nil
}

// Authenticate resolves the session and fingerprint cookies to a principal.
// Missing cookies return ErrNoSession. Every other failure collapses to
// ErrUnauthenticated so callers cannot tell which check failed; the
// distinction is logged for diagnostics only. A successful call extends
// the session's sliding expiration as a side effect.
func (g *SessionGuard) Authenticate(sessionIDCookie, fingerprintCookie string) (*Principal, error) {
	if sessionIDCookie == "" || fingerprintCookie == "" {
		return nil, apperrors.ErrNoSession
	}

	fingerprintHash, err := fingerprint.Hash(fingerprintCookie)
	if err != nil {
		return nil, apperrors.ErrNoSession
	}

	record, err := g.sessionRepo.Touch(sessionIDCookie, fingerprintHash)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrFingerprintMismatch):
			log.Warn().Str("session_id", sessionIDCookie).Msg("session rejected: fingerprint mismatch")
		case errors.Is(err, apperrors.ErrSessionNotFound):
			log.Debug().Str("session_id", sessionIDCookie).Msg("session rejected: no such session")
		default:
			log.Error().Err(err).Str("session_id", sessionIDCookie).Msg("session rejected")
		}
		return nil, apperrors.ErrUnauthenticated
	}

	return &Principal{
		UserID:     record.PrincipalID,
		Email:      record.Email,
		Username:   record.Username,
		TenantID:   record.TenantID,
		Roles:      slices.Clone(record.Roles),
		SessionID:  record.SessionID,
		CSRFToken:  record.CSRFToken,
		CreatedAt:  record.CreatedAt,
		LastSeenAt: record.LastSeenAt,
		ExpiresAt:  record.ExpiresAt,
	}, nil
}

// VerifyCSRF implements the double-submit check: the token the client echoes
// back must equal the one bound server-side to the session. Compared in
// constant time; never accepted as sole proof of identity.
func (g *SessionGuard) VerifyCSRF(principal *Principal, requestToken string) error {
	if principal == nil || requestToken == "" || principal.CSRFToken == "" {
		return apperrors.ErrCSRFMismatch
	}
	if subtle.ConstantTimeCompare([]byte(principal.CSRFToken), []byte(requestToken)) != 1 {
		log.Warn().Str("session_id", principal.SessionID).Msg("csrf token mismatch")
		return apperrors.ErrCSRFMismatch
	}
	return nil
}

// RequireRole succeeds when the principal holds any of the allowed roles.
// An empty allowed set means "any authenticated principal".
func RequireRole(principal *Principal, allowed ...string) error {
	if principal == nil {
		return apperrors.ErrUnauthenticated
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range principal.Roles {
		if slices.Contains(allowed, role) {
			return nil
		}
	}
	log.Warn().
		Str("email", principal.Email).
		Strs("roles", principal.Roles).
		Strs("required", allowed).
		Msg("role check failed")
	return apperrors.ErrForbidden
}

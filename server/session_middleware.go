package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-device-auth/auth"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyPrincipal stores the authenticated principal resolved by the
// session guard.
const ContextKeyPrincipal ContextKey = "principal"

// RequireSessionAuth is middleware that resolves the session and fingerprint
// cookies into an authenticated principal, or rejects with a uniform 401.
func (s *Server) RequireSessionAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sessionID := readCookie(r, sessionCookieName)
			rawFingerprint := readCookie(r, fingerprintCookieName)

			principal, err := s.guard.Authenticate(sessionID, rawFingerprint)
			if err != nil {
				writeDomainError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireCSRF enforces the double-submit check: the X-CSRF-Token header must
// match the token bound to the session. Chain after RequireSessionAuth.
func (s *Server) RequireCSRF() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			principal := principalFromContext(r)
			if principal == nil {
				writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
				return
			}

			if err := s.guard.VerifyCSRF(principal, r.Header.Get(CSRFHeader)); err != nil {
				writeDomainError(w, err)
				return
			}
			next(w, r)
		}
	}
}

// RequireRole gates a route on session roles. Chain after RequireSessionAuth.
func (s *Server) RequireRole(allowed ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			principal := principalFromContext(r)
			if principal == nil {
				writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
				return
			}

			if err := auth.RequireRole(principal, allowed...); err != nil {
				writeDomainError(w, err)
				return
			}
			next(w, r)
		}
	}
}

func principalFromContext(r *http.Request) *auth.Principal {
	principal, ok := r.Context().Value(ContextKeyPrincipal).(*auth.Principal)
	if !ok {
		return nil
	}
	return principal
}

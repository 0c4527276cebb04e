package server

import (
	"net/http"
	"time"
)

// CheckAuthHandler is the lightweight "am I logged in" probe. Reaching it at
// all means the session guard already resolved a principal.
func (s *Server) CheckAuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := principalFromContext(r)

		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"user": map[string]string{
				"id":       principal.UserID,
				"email":    principal.Email,
				"username": principal.Username,
			},
			"csrf_token": principal.CSRFToken,
		})
	}
}

// MeHandler returns the current user's profile and roles.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := principalFromContext(r)

		writeJSON(w, http.StatusOK, map[string]any{
			"id":       principal.UserID,
			"email":    principal.Email,
			"username": principal.Username,
			"tenant":   principal.TenantID,
			"roles":    principal.Roles,
		})
	}
}

// SessionInfoHandler exposes session metadata: timestamps and the identifiers
// the session is bound to. Never the fingerprint hash or raw tokens.
func (s *Server) SessionInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := principalFromContext(r)

		writeJSON(w, http.StatusOK, map[string]any{
			"session_id":   principal.SessionID,
			"user_id":      principal.UserID,
			"tenant":       principal.TenantID,
			"created_at":   principal.CreatedAt.UTC().Format(time.RFC3339),
			"last_seen_at": principal.LastSeenAt.UTC().Format(time.RFC3339),
			"expires_at":   principal.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
}

// RotateCSRFHandler replaces the session's CSRF token in place and reissues
// the csrf_token cookie. Session ID and roles are untouched.
func (s *Server) RotateCSRFHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := principalFromContext(r)

		newToken, err := s.sessionRepo.Rotate(principal.SessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		maxAge := int(time.Until(principal.ExpiresAt) / time.Second)
		s.setCookie(w, r, csrfCookieName, newToken, maxAge, false)

		writeJSON(w, http.StatusOK, map[string]string{"csrf_token": newToken})
	}
}

// AdminSessionsHandler lists active sessions for operators.
func (s *Server) AdminSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records := s.sessionRepo.List()

		type sessionSummary struct {
			SessionID  string    `json:"session_id"`
			UserID     string    `json:"user_id"`
			Email      string    `json:"email"`
			TenantID   string    `json:"tenant,omitempty"`
			Roles      []string  `json:"roles"`
			CreatedAt  time.Time `json:"created_at"`
			LastSeenAt time.Time `json:"last_seen_at"`
			ExpiresAt  time.Time `json:"expires_at"`
		}

		summaries := make([]sessionSummary, 0, len(records))
		for _, rec := range records {
			summaries = append(summaries, sessionSummary{
				SessionID:  rec.SessionID,
				UserID:     rec.PrincipalID,
				Email:      rec.Email,
				TenantID:   rec.TenantID,
				Roles:      rec.Roles,
				CreatedAt:  rec.CreatedAt.UTC(),
				LastSeenAt: rec.LastSeenAt.UTC(),
				ExpiresAt:  rec.ExpiresAt.UTC(),
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"count":    len(summaries),
			"sessions": summaries,
		})
	}
}

package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-device-auth/devicelogin"
	"github.com/jrsteele09/go-device-auth/fingerprint"
)

// StartAuthorizationHandler begins a device-code login and returns what the
// client needs to finish it on a second device.
func (s *Server) StartAuthorizationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.logins.Start(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to start device login")
			writeJSONError(w, "login_start_failed", http.StatusBadGateway)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"correlation_id":   result.CorrelationID,
			"device_code":      result.DeviceCode,
			"verification_uri": result.VerificationURI,
		})
	}
}

// AuthorizationStatusHandler reports the state of an in-flight login. The
// device code and verification URI are echoed only while the login is still
// pending, so a finished attempt leaks nothing.
func (s *Server) AuthorizationStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.URL.Query().Get("correlation_id")
		if correlationID == "" {
			writeJSONError(w, "missing_correlation_id", http.StatusBadRequest)
			return
		}

		status, err := s.logins.Status(correlationID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		body := map[string]string{"state": string(status.State)}
		if status.State == devicelogin.StateStarted || status.State == devicelogin.StatePolling {
			body["device_code"] = status.DeviceCode
			body["verification_uri"] = status.VerificationURI
		}
		writeJSON(w, http.StatusOK, body)
	}
}

type completeAuthorizationRequest struct {
	CorrelationID string `json:"correlation_id"`
	Fingerprint   string `json:"fingerprint"`
}

// CompleteAuthorizationHandler finalizes a completed login: binds the browser
// fingerprint, creates the session, and issues all three auth cookies as a
// batch alongside a profile body.
func (s *Server) CompleteAuthorizationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completeAuthorizationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", http.StatusBadRequest)
			return
		}
		if req.CorrelationID == "" {
			writeJSONError(w, "missing_correlation_id", http.StatusBadRequest)
			return
		}

		record, err := s.logins.Finalize(req.CorrelationID, req.Fingerprint)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		s.SetAuthCookies(w, r, record, req.Fingerprint)

		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"user": map[string]string{
				"id":       record.PrincipalID,
				"email":    record.Email,
				"username": record.Username,
				"tenant":   record.TenantID,
			},
			"roles":      record.Roles,
			"csrf_token": record.CSRFToken,
		})
	}
}

// LogoutHandler ends the session. When the session cookie is missing or
// stale, sessions bound to the presented fingerprint are removed instead, and
// the cookies are cleared unconditionally either way so logout always lands
// the client in a clean state.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := readCookie(r, sessionCookieName)
		rawFingerprint := readCookie(r, fingerprintCookieName)

		deleted := false
		if sessionID != "" {
			if err := s.sessionRepo.Delete(sessionID); err == nil {
				deleted = true
			}
		}
		if !deleted && rawFingerprint != "" {
			if fingerprintHash, err := fingerprint.Hash(rawFingerprint); err == nil {
				s.sessionRepo.DeleteByFingerprint(fingerprintHash)
			}
		}

		s.ClearAuthCookies(w, r)
		writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
	}
}

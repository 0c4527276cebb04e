package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/go-device-auth/internal/errors"
)

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeJSONError writes a machine-readable error response
func writeJSONError(w http.ResponseWriter, errorCode string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": errorCode})
}

// writeDomainError maps sentinel errors to HTTP responses in one place.
// Authentication failures collapse to a uniform 401 so callers cannot probe
// which check failed.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrNoSession),
		apperrors.Is(err, apperrors.ErrUnauthenticated),
		apperrors.Is(err, apperrors.ErrSessionNotFound),
		apperrors.Is(err, apperrors.ErrFingerprintMismatch):
		writeJSONError(w, "unauthenticated", http.StatusUnauthorized)
	case apperrors.Is(err, apperrors.ErrCSRFMismatch):
		writeJSONError(w, "csrf_mismatch", http.StatusForbidden)
	case apperrors.Is(err, apperrors.ErrForbidden):
		writeJSONError(w, "forbidden", http.StatusForbidden)
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		// Distinct code: login succeeded but no role maps, so the UI can say
		// "contact an administrator" instead of "try logging in again".
		writeJSONError(w, "not_authorized", http.StatusForbidden)
	case apperrors.Is(err, apperrors.ErrNotCompleted):
		writeJSONError(w, "not_completed", http.StatusConflict)
	case apperrors.Is(err, apperrors.ErrLoginNotFound):
		writeJSONError(w, "login_not_found", http.StatusNotFound)
	case apperrors.Is(err, apperrors.ErrLoginExpired):
		writeJSONError(w, "login_expired", http.StatusGone)
	case apperrors.Is(err, apperrors.ErrLoginFailed):
		writeJSONError(w, "login_failed", http.StatusBadGateway)
	case apperrors.Is(err, apperrors.ErrInvalidFingerprint):
		writeJSONError(w, "invalid_fingerprint", http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("unhandled error in request path")
		writeJSONError(w, "internal_error", http.StatusInternalServerError)
	}
}

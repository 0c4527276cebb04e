package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-device-auth/sessions"
)

const (
	// sessionCookieName carries the opaque session ID (HttpOnly).
	sessionCookieName = "session_id"
	// fingerprintCookieName carries the raw browser fingerprint (HttpOnly).
	fingerprintCookieName = "fingerprint"
	// csrfCookieName carries the CSRF token; readable by script so the client
	// can echo it in the X-CSRF-Token header (double-submit pattern).
	csrfCookieName = "csrf_token"

	// hostCookiePrefix is applied in production: __Host- cookies require
	// Secure, Path=/ and no Domain attribute, which pins them to our host.
	hostCookiePrefix = "__Host-"
)

func (s *Server) cookieName(base string) string {
	if s.config.IsProduction() {
		return hostCookiePrefix + base
	}
	return base
}

// readCookie looks up a cookie by its base name, accepting both the
// __Host--prefixed and bare forms so a DEV/prod switch never strands clients.
func readCookie(r *http.Request, base string) string {
	if c, err := r.Cookie(hostCookiePrefix + base); err == nil {
		return c.Value
	}
	if c, err := r.Cookie(base); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) setCookie(w http.ResponseWriter, r *http.Request, base, value string, maxAge int, httpOnly bool) {
	isSecure := s.config.IsProduction() || getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName(base),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetAuthCookies issues session, fingerprint and CSRF cookies as a batch so a
// client never observes a partial cookie state mid-login.
func (s *Server) SetAuthCookies(w http.ResponseWriter, r *http.Request, record sessions.Record, rawFingerprint string) {
	maxAge := int(record.TTL / time.Second)
	s.setCookie(w, r, sessionCookieName, record.SessionID, maxAge, true)
	s.setCookie(w, r, fingerprintCookieName, rawFingerprint, maxAge, true)
	s.setCookie(w, r, csrfCookieName, record.CSRFToken, maxAge, false)
}

// ClearAuthCookies removes all three auth cookies, expiring both the prefixed
// and bare forms regardless of which variant the client currently holds.
func (s *Server) ClearAuthCookies(w http.ResponseWriter, r *http.Request) {
	isSecure := s.config.IsProduction() || getScheme(r) == "https"

	for _, base := range []string{sessionCookieName, fingerprintCookieName, csrfCookieName} {
		for _, name := range []string{base, hostCookiePrefix + base} {
			http.SetCookie(w, &http.Cookie{
				Name:     name,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: base != csrfCookieName,
				Secure:   isSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}
}

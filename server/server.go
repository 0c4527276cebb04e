package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-device-auth/auth"
	"github.com/jrsteele09/go-device-auth/devicelogin"
	"github.com/jrsteele09/go-device-auth/internal/config"
	"github.com/jrsteele09/go-device-auth/sessions"
)

type Server struct {
	env         string // Environment (e.g., "DEV", "PROD")
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	guard       *auth.SessionGuard
	logins      *devicelogin.Orchestrator
	sessionRepo sessions.Repo
	rateLimiter *rateLimiter
}

func New(config config.Config, guard *auth.SessionGuard, logins *devicelogin.Orchestrator, sessionRepo sessions.Repo) (*Server, error) {
	if guard == nil {
		return nil, errors.New("[Server New] session guard is required")
	}
	if logins == nil {
		return nil, errors.New("[Server New] device-login orchestrator is required")
	}
	if sessionRepo == nil {
		return nil, errors.New("[Server New] session repo is required")
	}

	s := &Server{
		mux:         http.NewServeMux(),
		config:      config,
		guard:       guard,
		logins:      logins,
		sessionRepo: sessionRepo,
		rateLimiter: newRateLimiter(config.GetRateLimitPerMinute()),
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

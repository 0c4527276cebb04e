package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Device-login flow
	RouteAuthorizeStart    = "/api/authorize/start"
	RouteAuthorizeStatus   = "/api/authorize/status"
	RouteAuthorizeComplete = "/api/authorize/complete"

	// Session lifecycle
	RouteCheckAuth     = "/api/check-auth"
	RouteMe            = "/api/me"
	RouteSessionInfo   = "/api/session/info"
	RouteSessionRotate = "/api/session/rotate"
	RouteAuthLogout    = "/api/auth/logout"

	// Admin
	RouteAdminSessions = "/api/admin/sessions"
)

// CSRFHeader is the request header carrying the double-submit CSRF token.
const CSRFHeader = "X-CSRF-Token"

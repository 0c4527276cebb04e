package server

func (s *Server) initRoutes() {
	// Device-login flow: reachable without a session (and therefore exempt
	// from the CSRF check; no token exists yet).
	s.RegisterRouteFunc("POST "+RouteAuthorizeStart, ChainMiddleware(s.StartAuthorizationHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthorizeStatus, ChainMiddleware(s.AuthorizationStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthorizeComplete, ChainMiddleware(s.CompleteAuthorizationHandler(), s.APIMiddleware()...))

	// Session-guarded reads
	s.RegisterRouteFunc("GET "+RouteCheckAuth, ChainMiddleware(s.CheckAuthHandler(), s.GuardedMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.GuardedMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteSessionInfo, ChainMiddleware(s.SessionInfoHandler(), s.GuardedMiddleware()...))

	// State-changing: session + double-submit CSRF
	s.RegisterRouteFunc("POST "+RouteSessionRotate, ChainMiddleware(s.RotateCSRFHandler(), s.MutatingMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Admin
	s.RegisterRouteFunc("GET "+RouteAdminSessions, ChainMiddleware(s.AdminSessionsHandler(), s.AdminMiddleware()...))
}

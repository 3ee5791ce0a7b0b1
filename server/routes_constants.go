package server

// Route path constants
const (
	RouteIndex   = "/"
	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
	RouteStatic  = "/static/*"

	// Auth pages. Everything under /auth/ is reachable without a session.
	RouteLogin          = "/login"
	RouteSignup         = "/signup"
	RouteLogout         = "/auth/logout"
	RouteForgotPassword = "/auth/forgot-password"
	RouteResetPassword  = "/auth/reset-password"
	RouteVerifyEmail    = "/auth/verify-email"
	RouteOAuthStart     = "/oauth/start"
	RouteOAuthComplete  = "/oauth/complete"

	RouteContracts         = "/contracts"
	RouteContractNew       = "/contracts/new"
	RouteContract          = "/contracts/{id}"
	RouteContractDelete    = "/contracts/{id}/delete"
	RouteContractPDF       = "/contracts/{id}/pdf"
	RouteContractPreview   = "/contracts/{id}/preview"
	RouteContractSignature = "/contracts/{id}/signatures/{role}"

	RouteClients      = "/clients"
	RouteClientDelete = "/clients/{id}/delete"

	RouteSchedule    = "/schedule"
	RouteEventDelete = "/schedule/{id}/delete"
)

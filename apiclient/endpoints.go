package apiclient

import "strings"

// Endpoints names the authentication routes on the remote API. Two route
// sets exist on the server; which one is used is configuration.
type Endpoints struct {
	Login    string
	Register string
	Refresh  string
	Logout   string
	Me       string
	Forgot   string
	Reset    string
	Verify   string
}

const (
	RoutesPlain = "plain"
	RoutesEmail = "email"
)

func PlainEndpoints() Endpoints {
	return Endpoints{
		Login:    "/auth/login",
		Register: "/auth/register",
		Refresh:  "/auth/refresh",
		Logout:   "/auth/logout",
		Me:       "/auth/me",
		Forgot:   "/auth/email/forgot",
		Reset:    "/auth/email/reset",
		Verify:   "/auth/email/verify",
	}
}

func EmailEndpoints() Endpoints {
	e := PlainEndpoints()
	e.Login = "/auth/email/login"
	e.Register = "/auth/email/register"
	return e
}

// EndpointsFor maps a configured route set name to its endpoints.
func EndpointsFor(routes string) Endpoints {
	if routes == RoutesEmail {
		return EmailEndpoints()
	}
	return PlainEndpoints()
}

// IsAuthEndpoint reports whether path belongs to the authentication API.
// A 401 from these paths is never answered with a token refresh.
func IsAuthEndpoint(path string) bool {
	return strings.Contains(path, "/auth/")
}

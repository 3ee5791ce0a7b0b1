package auth

import "github.com/jrsteele09/contract-desk/users"

// State is where the client stands with respect to the server session.
type State int

const (
	// StateUnknown is the initial state until a restore attempt resolves.
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Navigator performs the hard reset to the landing page after logout.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

// LoginResult is returned by Login and CompleteOAuth. Failures are values,
// never errors, so forms can show Error inline.
type LoginResult struct {
	Success bool
	User    *users.User
	Error   string
}

type SignupResult struct {
	Success bool
	Message string
	Error   string
}

// ActionResult reports the email flows: verify, forgot and reset.
type ActionResult struct {
	Success bool
	Message string
	Error   string
}

// Package guard decides what a navigation to a path should do given the
// current authentication state.
package guard

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/contract-desk/auth"
)

type Action int

const (
	// Allow renders the requested page.
	Allow Action = iota
	// Loading renders a placeholder while the session is still being restored.
	Loading
	// Redirect sends the user to Location.
	Redirect
)

func (a Action) String() string {
	switch a {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "allow"
	}
}

type Decision struct {
	Action   Action
	Location string
}

// NextParam carries the originally requested path through the login page.
const NextParam = "next"

type Policy struct {
	LoginPath string
	// PublicPrefixes are reachable without a session. A prefix ending in "/"
	// matches everything below it; otherwise it must match exactly.
	PublicPrefixes []string
}

func DefaultPolicy() Policy {
	return Policy{
		LoginPath: "/login",
		PublicPrefixes: []string{
			"/login",
			"/signup",
			"/auth/",
			"/oauth/",
			"/healthz",
			"/static/",
		},
	}
}

// Decide has no side effects.
func (p Policy) Decide(state auth.State, path string) Decision {
	switch state {
	case auth.StateAuthenticated:
		return Decision{Action: Allow}
	case auth.StateAnonymous:
		if p.IsPublic(path) {
			return Decision{Action: Allow}
		}
		return Decision{Action: Redirect, Location: p.LoginLocation(path)}
	default:
		return Decision{Action: Loading}
	}
}

func (p Policy) IsPublic(path string) bool {
	for _, prefix := range p.PublicPrefixes {
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// LoginLocation is the login page with the requested path as the return target.
func (p Policy) LoginLocation(requested string) string {
	if requested == "" || requested == p.LoginPath {
		return p.LoginPath
	}
	return p.LoginPath + "?" + url.Values{NextParam: {requested}}.Encode()
}

// SafeNext returns next if it is a local absolute path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}

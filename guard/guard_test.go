package guard_test

import (
	"testing"

	"github.com/jrsteele09/contract-desk/auth"
	"github.com/jrsteele09/contract-desk/guard"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	policy := guard.DefaultPolicy()

	tests := []struct {
		name     string
		state    auth.State
		path     string
		action   guard.Action
		location string
	}{
		{"unknown shows loading", auth.StateUnknown, "/contracts", guard.Loading, ""},
		{"unknown on public path still loading", auth.StateUnknown, "/login", guard.Loading, ""},
		{"anonymous on protected path", auth.StateAnonymous, "/contracts/5", guard.Redirect, "/login?next=%2Fcontracts%2F5"},
		{"anonymous on root", auth.StateAnonymous, "/", guard.Redirect, "/login?next=%2F"},
		{"anonymous on login", auth.StateAnonymous, "/login", guard.Allow, ""},
		{"anonymous on signup", auth.StateAnonymous, "/signup", guard.Allow, ""},
		{"anonymous on auth flow", auth.StateAnonymous, "/auth/reset-password", guard.Allow, ""},
		{"anonymous on oauth completion", auth.StateAnonymous, "/oauth/complete", guard.Allow, ""},
		{"anonymous starting oauth", auth.StateAnonymous, "/oauth/start", guard.Allow, ""},
		{"prefix without slash is exact", auth.StateAnonymous, "/loginx", guard.Redirect, "/login?next=%2Floginx"},
		{"authenticated anywhere", auth.StateAuthenticated, "/contracts", guard.Allow, ""},
		{"authenticated on login", auth.StateAuthenticated, "/login", guard.Allow, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Decide(tt.state, tt.path)
			require.Equal(t, tt.action, d.Action)
			require.Equal(t, tt.location, d.Location)
		})
	}
}

func TestLoginLocationWithoutNext(t *testing.T) {
	policy := guard.DefaultPolicy()
	require.Equal(t, "/login", policy.LoginLocation(""))
	require.Equal(t, "/login", policy.LoginLocation("/login"))
}

func TestSafeNext(t *testing.T) {
	require.Equal(t, "/contracts", guard.SafeNext("/contracts", "/"))
	require.Equal(t, "/", guard.SafeNext("", "/"))
	require.Equal(t, "/", guard.SafeNext("https://evil.example", "/"))
	require.Equal(t, "/", guard.SafeNext("//evil.example", "/"))
	require.Equal(t, "/", guard.SafeNext("/\\evil", "/"))
}

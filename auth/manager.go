// Package auth owns the client's view of the authentication session:
// restoring it at startup, login, signup, logout and the email flows.
package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/jrsteele09/contract-desk/apiclient"
	"github.com/jrsteele09/contract-desk/sessions"
	"github.com/jrsteele09/contract-desk/token"
	"github.com/jrsteele09/contract-desk/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LandingPath is where logout sends the user.
const LandingPath = "/"

// API is the slice of the HTTP client the manager needs.
type API interface {
	GetJSON(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
	PostJSON(ctx context.Context, path string, body, out any, opts ...apiclient.RequestOption) error
	Refresh(ctx context.Context) error
	ClearCredentials() error
}

// Manager is safe for concurrent use. Network calls run outside the lock
// and state transitions apply in the order calls complete.
type Manager struct {
	api         API
	tokens      *token.Holder
	store       sessions.Store
	endpoints   apiclient.Endpoints
	placeholder bool

	lock  sync.RWMutex
	state State
	user  *users.User
}

type ManagerOption func(*Manager)

func WithEndpoints(e apiclient.Endpoints) ManagerOption {
	return func(m *Manager) {
		m.endpoints = e
	}
}

// WithPlaceholderUser allows a login whose response has no user, and whose
// follow-up /auth/me also fails, to proceed with a user built from the email.
func WithPlaceholderUser(allow bool) ManagerOption {
	return func(m *Manager) {
		m.placeholder = allow
	}
}

func NewManager(api API, tokens *token.Holder, store sessions.Store, options ...ManagerOption) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[NewManager] API client is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewManager] token holder is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] session store is required")
	}

	m := &Manager{
		api:       api,
		tokens:    tokens,
		store:     store,
		endpoints: apiclient.PlainEndpoints(),
		state:     StateUnknown,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

func (m *Manager) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

// User returns a copy of the signed in user, or nil.
func (m *Manager) User() *users.User {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// Loading is true until the initial restore has resolved.
func (m *Manager) Loading() bool {
	return m.State() == StateUnknown
}

// RememberedUser is the cached user for pre-filling the login form.
func (m *Manager) RememberedUser() *users.User {
	u, err := m.store.CachedUser()
	if err != nil {
		log.Debug().Err(err).Msg("read cached user")
		return nil
	}
	return u
}

func (m *Manager) setAuthenticated(u *users.User) {
	m.lock.Lock()
	defer m.lock.Unlock()
	cp := *u
	m.user = &cp
	m.state = StateAuthenticated
}

func (m *Manager) setAnonymous() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.user = nil
	m.state = StateAnonymous
}

// RestoreSession resolves the Unknown state. Without the remember-me
// preference no request is made. With no access token held, the refresh
// cookie is exchanged for one before /auth/me is asked. A failed lookup
// leaves the preference untouched so the next start tries again.
func (m *Manager) RestoreSession(ctx context.Context) State {
	remember, err := m.store.RememberMe()
	if err != nil {
		log.Warn().Err(err).Msg("read remember-me preference")
	}
	if !remember {
		m.setAnonymous()
		return StateAnonymous
	}

	if !m.tokens.Present() {
		if err := m.api.Refresh(ctx); err != nil {
			log.Info().Err(err).Msg("session restore failed, no usable refresh cookie")
			m.setAnonymous()
			return StateAnonymous
		}
	}

	user, err := m.fetchMe(ctx)
	if err != nil {
		log.Info().Err(err).Msg("session restore failed")
		m.setAnonymous()
		return StateAnonymous
	}
	m.setAuthenticated(user)
	return StateAuthenticated
}

// ExpireSession drops to Anonymous after a 401 survived a refresh attempt.
// Like a failed restore it keeps the remember-me preference.
func (m *Manager) ExpireSession() {
	if m.State() != StateAuthenticated {
		return
	}
	log.Info().Msg("session expired")
	m.tokens.Clear()
	m.setAnonymous()
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	User        *users.User `json:"user"`
}

// Login persists the remember-me choice before contacting the server, so the
// choice sticks even when the credentials are rejected.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) LoginResult {
	email = strings.TrimSpace(email)
	if err := m.store.SetRememberMe(remember); err != nil {
		log.Warn().Err(err).Msg("persist remember-me preference")
	}

	var resp loginResponse
	if err := m.api.PostJSON(ctx, m.endpoints.Login, credentials{Email: email, Password: password}, &resp); err != nil {
		return LoginResult{Error: loginFailureMessage(err)}
	}
	if resp.AccessToken == "" {
		return LoginResult{Error: "The server did not return an access token."}
	}
	m.tokens.SetAccessToken(resp.AccessToken)

	user := resp.User
	if !validUser(user) {
		var err error
		user, err = m.fetchMe(ctx)
		if err != nil {
			if !m.placeholder {
				m.tokens.Clear()
				return LoginResult{Error: "Signed in, but the account details could not be loaded."}
			}
			log.Warn().Err(err).Msg("login response had no user, using placeholder")
			user = users.Placeholder(email)
		}
	}

	m.setAuthenticated(user)
	m.cacheUser(remember, user)
	return LoginResult{Success: true, User: m.User()}
}

// CompleteOAuth finishes a social login where the server handed the access
// token over in the redirect.
func (m *Manager) CompleteOAuth(ctx context.Context, accessToken string) LoginResult {
	if strings.TrimSpace(accessToken) == "" {
		return LoginResult{Error: "Missing token."}
	}
	m.tokens.SetAccessToken(accessToken)

	user, err := m.fetchMe(ctx)
	if err != nil {
		m.tokens.Clear()
		m.setAnonymous()
		return LoginResult{Error: apiclient.Message(err)}
	}
	m.setAuthenticated(user)
	return LoginResult{Success: true, User: m.User()}
}

// Signup registers an account. It never signs the user in.
func (m *Manager) Signup(ctx context.Context, email, password, name string) SignupResult {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if name == "" {
		return SignupResult{Error: "Name is required."}
	}
	if err := users.ValidateEmail(email); err != nil {
		return SignupResult{Error: err.Error()}
	}
	if err := users.ValidatePassword(password); err != nil {
		return SignupResult{Error: err.Error()}
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := m.api.PostJSON(ctx, m.endpoints.Register, credentials{Email: email, Password: password, Name: name}, &resp); err != nil {
		return SignupResult{Error: apiclient.Message(err)}
	}
	return SignupResult{Success: true, Message: resp.Message}
}

// Logout clears the session locally before telling the server, so a refresh
// finishing meanwhile cannot bring the token back. The server call is
// best-effort and carries the bearer captured beforehand. It never fails.
func (m *Manager) Logout(ctx context.Context, nav Navigator) {
	bearer := m.tokens.AccessToken()
	if bearer == "" {
		if err := m.api.Refresh(ctx); err != nil {
			log.Debug().Err(err).Msg("no access token for server logout")
		}
		bearer = m.tokens.AccessToken()
	}

	m.setAnonymous()
	m.tokens.Clear()

	var opts []apiclient.RequestOption
	if bearer != "" {
		opts = append(opts, apiclient.WithHeader("Authorization", "Bearer "+bearer))
	}
	if err := m.api.PostJSON(ctx, m.endpoints.Logout, nil, nil, opts...); err != nil {
		log.Debug().Err(err).Msg("server logout failed, clearing local session anyway")
	}

	if err := m.api.ClearCredentials(); err != nil {
		log.Warn().Err(err).Msg("clear stored cookies")
	}
	if err := m.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("clear session store")
	}

	if nav != nil {
		nav.Navigate(LandingPath)
	}
}

func (m *Manager) RequestPasswordReset(ctx context.Context, email string) ActionResult {
	email = strings.TrimSpace(email)
	if err := users.ValidateEmail(email); err != nil {
		return ActionResult{Error: err.Error()}
	}
	return m.action(ctx, m.endpoints.Forgot, map[string]string{"email": email})
}

func (m *Manager) ResetPassword(ctx context.Context, resetToken, newPassword string) ActionResult {
	if strings.TrimSpace(resetToken) == "" {
		return ActionResult{Error: "Missing token."}
	}
	if err := users.ValidatePassword(newPassword); err != nil {
		return ActionResult{Error: err.Error()}
	}
	return m.action(ctx, m.endpoints.Reset, map[string]string{"token": resetToken, "new_password": newPassword})
}

func (m *Manager) VerifyEmail(ctx context.Context, verifyToken string) ActionResult {
	if strings.TrimSpace(verifyToken) == "" {
		return ActionResult{Error: "Missing token."}
	}
	return m.action(ctx, m.endpoints.Verify, map[string]string{"token": verifyToken})
}

func (m *Manager) action(ctx context.Context, path string, body any) ActionResult {
	var resp struct {
		Message string `json:"message"`
	}
	if err := m.api.PostJSON(ctx, path, body, &resp); err != nil {
		return ActionResult{Error: apiclient.Message(err)}
	}
	return ActionResult{Success: true, Message: resp.Message}
}

func (m *Manager) fetchMe(ctx context.Context) (*users.User, error) {
	var u users.User
	if err := m.api.GetJSON(ctx, m.endpoints.Me, &u); err != nil {
		return nil, errors.Wrap(err, "[Manager.fetchMe] GET "+m.endpoints.Me)
	}
	if !validUser(&u) {
		return nil, errors.New("[Manager.fetchMe] response has no user")
	}
	return &u, nil
}

func (m *Manager) cacheUser(remember bool, u *users.User) {
	var cached *users.User
	if remember {
		cached = u
	}
	if err := m.store.SetCachedUser(cached); err != nil {
		log.Warn().Err(err).Msg("cache user")
	}
}

func validUser(u *users.User) bool {
	return u != nil && (u.ID != 0 || u.Email != "")
}

func loginFailureMessage(err error) string {
	if msg := apiclient.Message(err); msg != "" {
		return msg
	}
	return "Login failed."
}

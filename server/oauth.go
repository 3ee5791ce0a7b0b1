package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	oauthStateParam = "state"
	oauthStateTTL   = 10 * time.Minute
)

var providerPattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// oauthStates holds the single-use state values of social logins this desk
// started. Only their SHA-256 is kept.
type oauthStates struct {
	lock    sync.Mutex
	nowTime func() time.Time
	states  map[string]time.Time
}

func newOAuthStates(now func() time.Time) *oauthStates {
	return &oauthStates{nowTime: now, states: make(map[string]time.Time)}
}

func (o *oauthStates) issue() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)

	o.lock.Lock()
	defer o.lock.Unlock()
	now := o.nowTime()
	for k, expires := range o.states {
		if !now.Before(expires) {
			delete(o.states, k)
		}
	}
	o.states[hashState(raw)] = now.Add(oauthStateTTL)
	return raw, nil
}

// consume reports whether raw was issued here and has not expired. A state
// is accepted at most once.
func (o *oauthStates) consume(raw string) bool {
	if raw == "" {
		return false
	}
	key := hashState(raw)
	o.lock.Lock()
	defer o.lock.Unlock()
	expires, ok := o.states[key]
	if !ok {
		return false
	}
	delete(o.states, key)
	return o.nowTime().Before(expires)
}

func hashState(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// OAuthStartHandler sends the browser to the API's social login for a
// provider, carrying a state value the completion route will insist on.
func (s *Server) OAuthStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := strings.ToLower(r.URL.Query().Get("provider"))
		if s.oauthStart == "" || !providerPattern.MatchString(provider) {
			s.NotFoundHandler()(w, r)
			return
		}
		state, err := s.oauthStates.issue()
		if err != nil {
			panic(err)
		}
		callback := url.URL{Scheme: "http", Host: r.Host, Path: RouteOAuthComplete}
		if r.TLS != nil {
			callback.Scheme = "https"
		}
		q := url.Values{oauthStateParam: {state}, "redirect_uri": {callback.String()}}
		http.Redirect(w, r, s.oauthStart+"/"+provider+"?"+q.Encode(), http.StatusSeeOther)
	}
}

// OAuthCompleteHandler finishes a social login. The API redirects here with
// the access token and the state issued by OAuthStartHandler.
func (s *Server) OAuthCompleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if !s.oauthStates.consume(q.Get(oauthStateParam)) {
			log.Warn().Str("remote", r.RemoteAddr).Msg("oauth completion without a state issued here")
			v := s.view("로그인", LoginPageData{Next: RouteIndex})
			v.Error = "The sign-in request expired or was not started from this desk."
			s.renderPage(w, http.StatusBadRequest, "login.html", v)
			return
		}
		result := s.auth.CompleteOAuth(r.Context(), q.Get("token"))
		if !result.Success {
			v := s.view("로그인", LoginPageData{Next: RouteIndex})
			v.Error = result.Error
			s.renderPage(w, http.StatusUnauthorized, "login.html", v)
			return
		}
		http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
	}
}

package token

import (
	"sync"
	"time"

	"github.com/jrsteele09/contract-desk/token/jwt"
	"golang.org/x/oauth2"
)

// Holder is the single in-memory cell for the current access token.
// Nothing is persisted: a restart always begins with an empty holder.
type Holder struct {
	lock  sync.RWMutex
	token *oauth2.Token
	epoch uint64
}

func NewHolder() *Holder {
	return &Holder{}
}

// Get returns a copy of the current token, if any.
func (h *Holder) Get() (*oauth2.Token, bool) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	if h.token == nil {
		return nil, false
	}
	t := *h.token
	return &t, true
}

// AccessToken returns the raw access token or "" when absent.
func (h *Holder) AccessToken() string {
	h.lock.RLock()
	defer h.lock.RUnlock()

	if h.token == nil {
		return ""
	}
	return h.token.AccessToken
}

// Set replaces the token. A nil token or one with an empty access token clears the holder.
func (h *Holder) Set(t *oauth2.Token) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if t == nil || t.AccessToken == "" {
		h.token = nil
		return
	}
	cp := *t
	h.token = &cp
}

// SetAccessToken stores a raw bearer token. When the value is a JWT its
// expiry is copied onto the stored token for display purposes only.
func (h *Holder) SetAccessToken(raw string) {
	if raw == "" {
		h.Clear()
		return
	}
	h.Set(bearer(raw))
}

// SetAccessTokenAt stores raw only if the holder has not been cleared since
// epoch was read. It reports whether the token was stored.
func (h *Holder) SetAccessTokenAt(epoch uint64, raw string) bool {
	if raw == "" {
		return false
	}
	t := bearer(raw)

	h.lock.Lock()
	defer h.lock.Unlock()
	if h.epoch != epoch {
		return false
	}
	h.token = t
	return true
}

// Clear drops the token and starts a new epoch.
func (h *Holder) Clear() {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.token = nil
	h.epoch++
}

// Epoch changes every time the holder is cleared.
func (h *Holder) Epoch() uint64 {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.epoch
}

func bearer(raw string) *oauth2.Token {
	t := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if claims, err := jwt.ParseUnverified(raw); err == nil && claims.ExpiresAt > 0 {
		t.Expiry = time.Unix(claims.ExpiresAt, 0)
	}
	return t
}

// Present reports whether a token is currently held.
func (h *Holder) Present() bool {
	return h.AccessToken() != ""
}

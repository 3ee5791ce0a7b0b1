package devapi

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sync"
	"time"
)

const (
	PurposeVerifyEmail   = "email_verification"
	PurposePasswordReset = "password_reset"

	verifyTicketTTL = 24 * time.Hour
	resetTicketTTL  = time.Hour
)

type ticket struct {
	userID  int64
	purpose string
	expires time.Time
}

// ticketStore holds single-use email tokens. Only their SHA-256 is kept.
type ticketStore struct {
	lock    sync.Mutex
	nowTime func() time.Time
	tickets map[string]ticket
}

func newTicketStore(now func() time.Time) *ticketStore {
	return &ticketStore{nowTime: now, tickets: make(map[string]ticket)}
}

func (t *ticketStore) issue(userID int64, purpose string, ttl time.Duration) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)

	t.lock.Lock()
	defer t.lock.Unlock()
	t.tickets[hashTicket(raw)] = ticket{userID: userID, purpose: purpose, expires: t.nowTime().Add(ttl)}
	return raw, nil
}

// redeem consumes a token. It returns false for unknown, expired or
// wrong-purpose tokens.
func (t *ticketStore) redeem(raw, purpose string) (int64, bool) {
	key := hashTicket(raw)
	t.lock.Lock()
	defer t.lock.Unlock()
	tk, ok := t.tickets[key]
	if !ok || tk.purpose != purpose {
		return 0, false
	}
	delete(t.tickets, key)
	if !t.nowTime().Before(tk.expires) {
		return 0, false
	}
	return tk.userID, true
}

func hashTicket(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

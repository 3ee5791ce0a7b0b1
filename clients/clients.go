// Package clients is the agent's customer book, kept in local storage.
package clients

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrNameRequired  = errors.New("name is required")
	ErrPhoneRequired = errors.New("phone is required")
	ErrInvalidPhone  = errors.New("invalid phone number")
	ErrInvalidEmail  = errors.New("invalid email address")
)

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var phonePattern = regexp.MustCompile(`^[\d\-\s+()]+$`)

// Normalize trims fields and puts names in NFC so Hangul typed on different
// keyboards compares equal.
func (c *Client) Normalize() {
	c.Name = norm.NFC.String(strings.TrimSpace(c.Name))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Memo = strings.TrimSpace(c.Memo)
}

// Validate requires a name and phone. Email is optional but must be well formed.
func (c *Client) Validate() error {
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.Phone == "" {
		return ErrPhoneRequired
	}
	if !phonePattern.MatchString(c.Phone) {
		return ErrInvalidPhone
	}
	if c.Email != "" {
		addr, err := mail.ParseAddress(c.Email)
		if err != nil || addr.Address != c.Email {
			return ErrInvalidEmail
		}
	}
	return nil
}

// Matches reports whether the client matches a free-text search.
func (c *Client) Matches(query string) bool {
	query = strings.ToLower(norm.NFC.String(strings.TrimSpace(query)))
	if query == "" {
		return true
	}
	digits := onlyDigits(query)
	return strings.Contains(strings.ToLower(c.Name), query) ||
		strings.Contains(strings.ToLower(c.Email), query) ||
		(digits != "" && strings.Contains(onlyDigits(c.Phone), digits))
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

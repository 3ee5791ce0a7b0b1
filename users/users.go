package users

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password the signup and reset forms accept.
const MinPasswordLength = 8

// TimestampLayout is how the server writes created_at: UTC without a zone.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// User is the server's view of who is signed in. CreatedAt is kept as the
// server sent it since the zone-less format is not RFC 3339.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Timestamp formats t the way the server writes created_at.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Account is a stored user record including credentials.
type Account struct {
	User
	PasswordHash string `json:"-"`
	TokenVersion int    `json:"-"`
	Verified     bool   `json:"verified"`
}

// DisplayName falls back to the email when no name is set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Email
}

// Placeholder builds a stand-in user from an email when the server returns
// a token but no user record.
func Placeholder(email string) *User {
	name := email
	if at := strings.Index(email, "@"); at > 0 {
		name = email[:at]
	}
	return &User{ID: 1, Email: email, Name: name, Role: "user"}
}

// ValidatePassword applies the minimum length rule.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

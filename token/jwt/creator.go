package jwt

import (
	"fmt"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Creator mints HS256 access and refresh tokens carrying a token version.
// Bumping a user's version invalidates every token issued before it.
type Creator struct {
	secret  []byte
	nowTime func() time.Time
}

type CreatorOption func(*Creator)

// WithNowTime overrides the clock, for tests.
func WithNowTime(now func() time.Time) CreatorOption {
	return func(c *Creator) {
		c.nowTime = now
	}
}

func NewCreator(secret []byte, opts ...CreatorOption) *Creator {
	c := &Creator{
		secret:  secret,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Creator) CreateAccessToken(userID string, tokenVersion int, ttl time.Duration) (string, error) {
	return c.create(userID, TypeAccess, tokenVersion, ttl, nil)
}

// CreateRefreshToken also returns the csrf value that must be echoed back on refresh.
func (c *Creator) CreateRefreshToken(userID string, tokenVersion int, ttl time.Duration) (string, string, error) {
	csrf := uuid.New().String()
	raw, err := c.create(userID, TypeRefresh, tokenVersion, ttl, jwtlib.MapClaims{"csrf": csrf})
	if err != nil {
		return "", "", err
	}
	return raw, csrf, nil
}

func (c *Creator) create(userID, tokenType string, tokenVersion int, ttl time.Duration, extra jwtlib.MapClaims) (string, error) {
	now := c.nowTime()
	claims := jwtlib.MapClaims{
		"sub":  userID,
		"type": tokenType,
		"tv":   tokenVersion,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
		"jti":  uuid.New().String(),
	}
	for k, v := range extra {
		claims[k] = v
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

// UserID converts a numeric id into the subject string stored in tokens.
func UserID(id int64) string {
	return strconv.FormatInt(id, 10)
}

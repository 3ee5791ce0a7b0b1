package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
)

var (
	ErrTokenInvalid = deskerrors.ErrInvalidToken
	// ErrTokenExpired errors also match ErrTokenInvalid.
	ErrTokenExpired = deskerrors.ErrTokenExpired
)

// Claims is the subset of token claims both sides care about.
type Claims struct {
	Subject      string
	Type         string
	TokenVersion int
	IssuedAt     int64
	ExpiresAt    int64
	ID           string
	CSRF         string
}

func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt > 0 && now.Unix() >= c.ExpiresAt
}

// ParseUnverified reads claims without checking the signature. Only use the
// result for display; it proves nothing about the token.
func ParseUnverified(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrTokenInvalid
	}
	tok, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	mc, ok := tok.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}
	return claimsFromMap(mc), nil
}

// Inspector verifies tokens minted by a Creator with the same secret.
type Inspector struct {
	secret  []byte
	nowTime func() time.Time
}

func NewInspector(secret []byte, now func() time.Time) *Inspector {
	if now == nil {
		now = time.Now
	}
	return &Inspector{secret: secret, nowTime: now}
}

// Verify checks the signature, expiry and expected token type.
func (i *Inspector) Verify(raw, tokenType string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrTokenInvalid
	}
	tok, err := jwtlib.Parse(raw, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwtlib.WithTimeFunc(i.nowTime), jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if errors.Is(err, jwtlib.ErrTokenExpired) {
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, ErrTokenInvalid)
	}
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	mc, ok := tok.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	claims := claimsFromMap(mc)
	if tokenType != "" && claims.Type != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", ErrTokenInvalid, tokenType)
	}
	return claims, nil
}

func claimsFromMap(mc jwtlib.MapClaims) *Claims {
	c := &Claims{}
	c.Subject, _ = mc["sub"].(string)
	c.Type, _ = mc["type"].(string)
	c.ID, _ = mc["jti"].(string)
	c.CSRF, _ = mc["csrf"].(string)
	if v, ok := mc["tv"].(float64); ok {
		c.TokenVersion = int(v)
	}
	if v, ok := mc["iat"].(float64); ok {
		c.IssuedAt = int64(v)
	}
	if v, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = int64(v)
	}
	return c
}

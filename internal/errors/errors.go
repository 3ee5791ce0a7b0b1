package errors

import "errors"

// Common error types for the desk client and the development API
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrCSRFMismatch        = errors.New("csrf token mismatch")

	// Session errors
	ErrSessionExpired = errors.New("session expired")

	// Input errors
	ErrInvalidInput = errors.New("invalid input")
	ErrRateLimited  = errors.New("too many requests")

	ErrNotFound = errors.New("not found")
)

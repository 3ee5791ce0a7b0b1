package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/tidwall/gjson"
)

// Error categories callers branch on with errors.Is.
var (
	// ErrNetwork covers transport failures: DNS, refused connections, resets and timeouts.
	ErrNetwork = errors.New("network error")
	// ErrAuth is any non-2xx response from an authentication endpoint.
	ErrAuth = errors.New("authentication rejected")
	// ErrSessionExpired is a 401 that token refresh could not recover.
	ErrSessionExpired = deskerrors.ErrSessionExpired
)

// NetworkError means no HTTP response was received.
type NetworkError struct {
	Method  string
	Path    string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s: request timed out: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the server's "message" or "error" field, or the status text.
	Message string
	// Details holds per-field validation messages when the server sends them.
	Details map[string]string
	Body    []byte
	// Refreshed is set when the 401 survived a refresh attempt.
	Refreshed bool
}

func newHTTPError(method, path string, resp *Response, refreshed bool) *HTTPError {
	e := &HTTPError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Refreshed:  refreshed,
		Message:    extractMessage(resp.Body),
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	if details := gjson.GetBytes(resp.Body, "details"); details.IsObject() {
		e.Details = make(map[string]string)
		details.ForEach(func(k, v gjson.Result) bool {
			e.Details[k.String()] = v.String()
			return true
		})
	}
	return e
}

func extractMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, key := range []string{"message", "error", "msg"} {
		if v := gjson.GetBytes(body, key); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrAuth:
		return IsAuthEndpoint(e.Path) && (e.StatusCode < 200 || e.StatusCode > 299)
	case ErrSessionExpired:
		return e.StatusCode == http.StatusUnauthorized && e.Refreshed
	case deskerrors.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case deskerrors.ErrInvalidInput:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case deskerrors.ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// Message returns a user-presentable message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		if netErr.Timeout {
			return "The server took too long to respond."
		}
		return "Could not reach the server."
	}
	return err.Error()
}

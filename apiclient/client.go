// Package apiclient is the single HTTP client for the contract API. It
// attaches the bearer token, and on an expired access token it refreshes
// once using the refresh cookie and replays the original request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/contract-desk/token"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTimeout bounds every request, including the refresh call.
	DefaultTimeout = 8 * time.Second

	CSRFCookieName  = "csrf_refresh_token"
	CSRFHeader      = "X-CSRF-TOKEN"
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 32 << 20
)

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	tokens     *token.Holder
	httpClient *http.Client
	jar        CookieJar
	endpoints  Endpoints
	metrics    *metrics
	refreshes  singleflight.Group

	timeout time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used as a template. The client is
// copied, never modified; the copy gets the cookie jar.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the per-request timeout regardless of option order.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		client.timeout = timeout
	}
}

// WithCookieJar sets the jar that carries the refresh cookies.
func WithCookieJar(jar CookieJar) Option {
	return func(client *Client) {
		client.jar = jar
	}
}

func WithEndpoints(e Endpoints) Option {
	return func(client *Client) {
		client.endpoints = e
	}
}

// WithMetrics registers request and refresh metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(client *Client) {
		client.metrics = newMetrics(reg)
	}
}

func New(baseURL string, tokens *token.Holder, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[apiclient.New] base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrap(err, "[apiclient.New] invalid base URL")
	}
	if tokens == nil {
		return nil, errors.New("[apiclient.New] token holder is required")
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokens:    tokens,
		endpoints: PlainEndpoints(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.jar == nil {
		c.jar = NewMemoryJar()
	}

	httpClient := &http.Client{Timeout: DefaultTimeout}
	if c.httpClient != nil {
		cp := *c.httpClient
		httpClient = &cp
	}
	if c.timeout > 0 {
		httpClient.Timeout = c.timeout
	}
	httpClient.Jar = c.jar
	c.httpClient = httpClient
	return c, nil
}

func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

func (c *Client) Tokens() *token.Holder {
	return c.tokens
}

// ClearCredentials drops the access token and every stored cookie.
func (c *Client) ClearCredentials() error {
	c.tokens.Clear()
	return c.jar.Clear()
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) JSON(v any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// Get returns the value at a gjson path in the body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// RequestOption adjusts a single request.
type RequestOption func(*pendingRequest)

func WithQuery(q url.Values) RequestOption {
	return func(p *pendingRequest) {
		p.query = q
	}
}

func WithHeader(key, value string) RequestOption {
	return func(p *pendingRequest) {
		if p.header == nil {
			p.header = make(http.Header)
		}
		p.header.Set(key, value)
	}
}

// pendingRequest is everything needed to send, and resend, one request.
type pendingRequest struct {
	method  string
	path    string
	query   url.Values
	header  http.Header
	body    []byte
	retried bool
	noAuth  bool
}

// Do sends a request. A 401 from a non-auth endpoint triggers one token
// refresh and one replay; if refresh fails the token is cleared and the
// original 401 is returned as an *HTTPError matching ErrSessionExpired.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	p := &pendingRequest{method: method, path: path}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.Do] encode body")
		}
		p.body = b
	}
	for _, opt := range opts {
		opt(p)
	}

	resp, err := c.send(ctx, p)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !p.retried && !IsAuthEndpoint(p.path) {
		p.retried = true
		if rerr := c.refresh(ctx); rerr != nil {
			log.Warn().Err(rerr).Str("path", p.path).Msg("token refresh failed, clearing session")
			c.tokens.Clear()
			return nil, newHTTPError(p.method, p.path, resp, true)
		}
		resp, err = c.send(ctx, p)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(p.method, p.path, resp, p.retried)
	}
	return resp, nil
}

func (c *Client) GetJSON(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) PostJSON(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) PutJSON(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, out, opts...)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	resp, err := c.Do(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := resp.JSON(out); err != nil {
		return errors.Wrapf(err, "[Client.%s] decode %s", method, path)
	}
	return nil
}

// ErrRefreshSuperseded is returned when the token holder was cleared while a
// refresh was in flight. The refreshed token is discarded.
var ErrRefreshSuperseded = errors.New("token holder cleared during refresh")

// Refresh exchanges the refresh cookie for a new access token without first
// sending a request. It is how a new process turns a remembered session back
// into a bearer token.
func (c *Client) Refresh(ctx context.Context) error {
	return c.refresh(ctx)
}

// refresh exchanges the refresh cookie for a new access token. Concurrent
// callers share one in-flight refresh call.
func (c *Client) refresh(ctx context.Context) error {
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		epoch := c.tokens.Epoch()
		// One caller's cancellation must not fail the others waiting on this call.
		rctx := context.WithoutCancel(ctx)

		p := &pendingRequest{method: http.MethodPost, path: c.endpoints.Refresh, retried: true, noAuth: true}
		if csrf := c.csrfToken(); csrf != "" {
			WithHeader(CSRFHeader, csrf)(p)
		}

		resp, err := c.send(rctx, p)
		if err != nil {
			c.metrics.refreshed(false)
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			c.metrics.refreshed(false)
			return nil, newHTTPError(p.method, p.path, resp, false)
		}
		accessToken := resp.Get("access_token").String()
		if accessToken == "" {
			c.metrics.refreshed(false)
			return nil, errors.New("refresh response has no access_token")
		}
		if !c.tokens.SetAccessTokenAt(epoch, accessToken) {
			c.metrics.refreshed(false)
			return nil, ErrRefreshSuperseded
		}
		c.metrics.refreshed(true)
		log.Debug().Msg("access token refreshed")
		return nil, nil
	})
	return err
}

func (c *Client) csrfToken() string {
	u, err := url.Parse(c.baseURL + c.endpoints.Refresh)
	if err != nil {
		return ""
	}
	for _, cookie := range c.jar.Cookies(u) {
		if cookie.Name == CSRFCookieName {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) send(ctx context.Context, p *pendingRequest) (*Response, error) {
	target := c.baseURL + p.path
	if len(p.query) > 0 {
		target += "?" + p.query.Encode()
	}

	var body io.Reader
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}
	req, err := http.NewRequestWithContext(ctx, p.method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.send] build request")
	}
	req.Header.Set("Accept", "application/json")
	if p.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.New().String())
	for k, v := range p.header {
		req.Header[k] = v
	}
	if !p.noAuth {
		if tok, ok := c.tokens.Get(); ok {
			tok.SetAuthHeader(req)
		}
	}

	started := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(p.method, 0, started)
		log.Debug().Err(err).Str("method", p.method).Str("path", p.path).Msg("request failed")
		return nil, &NetworkError{Method: p.method, Path: p.path, Timeout: isTimeout(err), Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	c.metrics.observe(p.method, httpResp.StatusCode, started)
	if err != nil {
		return nil, &NetworkError{Method: p.method, Path: p.path, Timeout: isTimeout(err), Err: err}
	}

	log.Debug().
		Str("method", p.method).
		Str("path", p.path).
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("api request")

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

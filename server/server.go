// Package server is the desk's browser UI: server-rendered pages over the
// contract API, gated by the route guard.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/contract-desk/auth"
	"github.com/jrsteele09/contract-desk/clients"
	"github.com/jrsteele09/contract-desk/contracts"
	"github.com/jrsteele09/contract-desk/guard"
	"github.com/jrsteele09/contract-desk/internal/config"
	"github.com/jrsteele09/contract-desk/internal/console"
	"github.com/jrsteele09/contract-desk/schedule"
	"github.com/prometheus/client_golang/prometheus"
)

// Deps are the services the pages are built on.
type Deps struct {
	Auth      *auth.Manager
	Contracts *contracts.Service
	Clients   *clients.Service
	Schedule  *schedule.Service
	// Metrics is served at /metrics when set.
	Metrics prometheus.Gatherer
}

type Server struct {
	env       string
	appName   string
	router    *chi.Mux
	auth      *auth.Manager
	contracts *contracts.Service
	clients   *clients.Service
	schedule  *schedule.Service
	metrics   prometheus.Gatherer
	policy    guard.Policy
	pages     *pages
	nowTime   func() time.Time

	oauthStart  string
	oauthStates *oauthStates
}

type Option func(*Server)

func WithPolicy(p guard.Policy) Option {
	return func(s *Server) {
		s.policy = p
	}
}

// WithOAuthStart enables social login. base is the API's provider login
// URL; the provider name is appended as a path segment.
func WithOAuthStart(base string) Option {
	return func(s *Server) {
		s.oauthStart = strings.TrimRight(base, "/")
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = now
	}
}

func New(cfg config.EnvConfig, deps Deps, opts ...Option) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("[server.New] auth manager is required")
	}
	if deps.Contracts == nil {
		return nil, errors.New("[server.New] contracts service is required")
	}
	if deps.Clients == nil {
		return nil, errors.New("[server.New] clients service is required")
	}
	if deps.Schedule == nil {
		return nil, errors.New("[server.New] schedule service is required")
	}

	pages, err := loadPages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		env:       cfg.GetEnv(),
		appName:   cfg.GetAppName(),
		router:    chi.NewRouter(),
		auth:      deps.Auth,
		contracts: deps.Contracts,
		clients:   deps.Clients,
		schedule:  deps.Schedule,
		metrics:   deps.Metrics,
		policy:    guard.DefaultPolicy(),
		pages:     pages,
		nowTime:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.oauthStates = newOAuthStates(s.nowTime)

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RestoreSession resolves the startup state. Pages render the loading
// placeholder until it returns.
func (s *Server) RestoreSession(ctx context.Context) auth.State {
	return s.auth.RestoreSession(ctx)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	_ = chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		console.LogRoute("desk", method, strings.TrimSuffix(route, "/*"))
		return nil
	})
}

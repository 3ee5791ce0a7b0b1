// Package devapi is a local stand-in for the contract API backend. It
// speaks the same wire contract (JWT access tokens, the refresh cookie and
// its CSRF pair, contract CRUD) so the desk can be developed and tested
// without the real service.
package devapi

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/contract-desk/internal/config"
	"github.com/jrsteele09/contract-desk/internal/console"
	"github.com/jrsteele09/contract-desk/token/jwt"
	"github.com/jrsteele09/contract-desk/users"
	fakeuserrepo "github.com/jrsteele09/contract-desk/users/repofake"
	"golang.org/x/time/rate"
)

const (
	BasePath = "/api"

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Five requests per minute per client on the credential endpoints.
var (
	DefaultRateLimit = rate.Every(time.Minute / 5)
	DefaultRateBurst = 5
)

type Server struct {
	env        string
	mux        *http.ServeMux
	routes     []string
	users      users.UserRepo
	creator    *jwt.Creator
	inspector  *jwt.Inspector
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowTime    func() time.Time
	limits     *limiterSet
	tickets    *ticketStore
	contracts  *contractStore

	outboxLock sync.Mutex
	outbox     []Mail
}

type Option func(*Server)

func WithUserRepo(repo users.UserRepo) Option {
	return func(s *Server) {
		s.users = repo
	}
}

func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.refreshTTL = ttl
	}
}

// WithNowTime overrides the clock used for tokens and contract timestamps.
func WithNowTime(now func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = now
	}
}

func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Server) {
		s.limits = newLimiterSet(limit, burst)
	}
}

func WithEnv(env string) Option {
	return func(s *Server) {
		s.env = env
	}
}

func New(secret []byte, opts ...Option) (*Server, error) {
	if len(secret) == 0 {
		return nil, errors.New("[devapi.New] signing secret is required")
	}
	s := &Server{
		mux:        http.NewServeMux(),
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		nowTime:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.users == nil {
		s.users = fakeuserrepo.NewFakeUserRepo()
	}
	if s.limits == nil {
		s.limits = newLimiterSet(DefaultRateLimit, DefaultRateBurst)
	}
	s.creator = jwt.NewCreator(secret, jwt.WithNowTime(s.nowTime))
	s.inspector = jwt.NewInspector(secret, s.nowTime)
	s.tickets = newTicketStore(s.nowTime)
	s.contracts = newContractStore(s.nowTime)

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

// NewFromConfig builds a server from the DEVAPI_* settings.
func NewFromConfig(cfg config.Config, opts ...Option) (*Server, error) {
	base := []Option{
		WithEnv(cfg.GetEnv()),
		WithAccessTTL(cfg.GetDevAPIAccessTTL()),
		WithRefreshTTL(cfg.GetDevAPIRefreshTTL()),
	}
	return New([]byte(cfg.GetDevAPISecret()), append(base, opts...)...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, ok := strings.Cut(route, " ")
		if !ok {
			method, path = "", route
		}
		console.LogRoute("devapi", method, path)
	}
}

// Mail is a message the backend would have emailed.
type Mail struct {
	To      string
	Purpose string
	Token   string
}

// Outbox returns the mail sent so far, oldest first.
func (s *Server) Outbox() []Mail {
	s.outboxLock.Lock()
	defer s.outboxLock.Unlock()
	return append([]Mail(nil), s.outbox...)
}

func (s *Server) send(m Mail) {
	s.outboxLock.Lock()
	s.outbox = append(s.outbox, m)
	s.outboxLock.Unlock()
}

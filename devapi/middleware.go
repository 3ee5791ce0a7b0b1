package devapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/contract-desk/internal/console"
	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/jrsteele09/contract-desk/token/jwt"
	"github.com/jrsteele09/contract-desk/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (s *Server) APIMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chained := []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
	}
	return append(chained, mw...)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		log.Debug().
			Str("source", "devapi").
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msgf("[%-19s] %s", console.Method(r.Method), r.URL.Path)
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("devapi handler panicked")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next(w, r)
	}
}

// RateLimitMiddleware applies the per-client limit of the credential endpoints.
func (s *Server) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limits.allow(r.URL.Path + "|" + clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeMessage(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		next(w, r)
	}
}

type ctxKey struct{}

// RequireAccessToken accepts a bearer header or the access cookie and
// rejects tokens minted before the user's last logout.
func (s *Server) RequireAccessToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			if c, err := r.Cookie(AccessCookie); err == nil {
				raw = c.Value
			}
		}
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing Authorization Header"})
			return
		}
		account, err := s.accountFromToken(raw, jwt.TypeAccess)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": accessFailure(err)})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, account)))
	}
}

func accessFailure(err error) string {
	switch {
	case errors.Is(err, deskerrors.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, deskerrors.ErrTokenRevoked):
		return "Token has been revoked"
	default:
		return "Invalid token"
	}
}

func accountFrom(ctx context.Context) *users.Account {
	account, _ := ctx.Value(ctxKey{}).(*users.Account)
	return account
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type limiterSet struct {
	limit    rate.Limit
	burst    int
	lock     sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (l *limiterSet) allow(key string) bool {
	l.lock.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.lock.Unlock()
	return limiter.Allow()
}

package server

import (
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/contract-desk/guard"
	"github.com/rs/zerolog/log"
)

func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// RecoverMiddleware turns a panic in a page into the fallback page. If the
// fallback itself cannot render a plain 500 is written instead.
func (s *Server) RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Error().
				Str("path", r.URL.Path).
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("page failed")
			if err := s.pages.render(w, http.StatusInternalServerError, "fallback.html", s.view("오류", nil)); err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) FrameSecurityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
		next.ServeHTTP(w, r)
	})
}

// SameOriginMiddleware refuses state-changing requests that another site
// made the browser send. Every page acts with the desk's single session, so
// a cross-site form post would otherwise run as the signed-in agent.
func (s *Server) SameOriginMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if !sameOrigin(r) {
			log.Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("origin", r.Header.Get("Origin")).
				Str("sec_fetch_site", r.Header.Get("Sec-Fetch-Site")).
				Msg("cross-origin request refused")
			v := s.view("거부됨", nil)
			v.Error = "This request came from another site and was refused."
			s.renderPage(w, http.StatusForbidden, "notice.html", v)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sameOrigin trusts Sec-Fetch-Site when the browser sends it, then falls
// back to comparing the Origin or Referer host with the request host.
// Requests with none of them are not from a browser form.
func sameOrigin(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "same-origin", "none":
		return true
	case "cross-site", "same-site":
		return false
	}
	source := r.Header.Get("Origin")
	if source == "" {
		source = r.Header.Get("Referer")
	}
	if source == "" {
		return true
	}
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) CacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

// GuardMiddleware applies the route guard to every page. While the session
// is still being restored the loading page is shown in place of the route.
func (s *Server) GuardMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := s.policy.Decide(s.auth.State(), r.URL.Path)
		switch decision.Action {
		case guard.Allow:
			next.ServeHTTP(w, r)
		case guard.Redirect:
			// Keep the query string so the user lands on the exact page.
			http.Redirect(w, r, s.policy.LoginLocation(r.URL.RequestURI()), http.StatusSeeOther)
		default:
			w.Header().Set("Cache-Control", "no-store")
			s.renderPage(w, http.StatusOK, "loading.html", s.view("불러오는 중", nil))
		}
	})
}

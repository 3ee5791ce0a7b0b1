package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/contract-desk/apiclient"
	"github.com/jrsteele09/contract-desk/contracts"
	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/rs/zerolog/log"
)

const recentContracts = 5

// IndexPageData is the dashboard.
type IndexPageData struct {
	Recent []ContractRow
	Total  int
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"session": s.auth.State().String(),
		})
	}
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := s.view("찾을 수 없음", nil)
		v.Error = "The page you asked for does not exist."
		s.renderPage(w, http.StatusNotFound, "notice.html", v)
	}
}

// IndexHandler shows the most recent contracts.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.contracts.List(r.Context(), contracts.ListParams{PerPage: recentContracts})
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		s.renderPage(w, http.StatusOK, "index.html", s.view("대시보드", IndexPageData{
			Recent: s.contractRows(page.Contracts),
			Total:  page.Total,
		}))
	}
}

// apiFailure reports a failed API call. A session that could not be
// refreshed drops the desk to Anonymous and sends the user to log in again.
func (s *Server) apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, deskerrors.ErrSessionExpired):
		s.auth.ExpireSession()
		http.Redirect(w, r, s.policy.LoginLocation(r.URL.RequestURI()), http.StatusSeeOther)
		return
	case errors.Is(err, deskerrors.ErrNotFound):
		v := s.view("찾을 수 없음", nil)
		v.Error = apiclient.Message(err)
		s.renderPage(w, http.StatusNotFound, "notice.html", v)
		return
	}

	log.Warn().Err(err).Str("path", r.URL.Path).Msg("api request failed")
	status := http.StatusBadGateway
	if errors.Is(err, deskerrors.ErrRateLimited) {
		status = http.StatusTooManyRequests
	}
	v := s.view("오류", nil)
	v.Error = apiclient.Message(err)
	s.renderPage(w, status, "notice.html", v)
}

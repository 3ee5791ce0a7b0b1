package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/contract-desk/clients"
	"github.com/jrsteele09/contract-desk/schedule"
	"github.com/rs/zerolog/log"
)

const (
	monthLayout    = "2006-01"
	dateTimeLayout = "2006-01-02T15:04"
)

type ClientsPageData struct {
	Clients []*clients.Client
	Query   string
	Form    url.Values
}

// SchedulePageData is one calendar month.
type SchedulePageData struct {
	Month     time.Time
	PrevMonth string
	NextMonth string
	Events    []*schedule.Event
	Form      url.Values
}

func (s *Server) ClientListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderClients(w, http.StatusOK, r.URL.Query().Get("q"), nil, "")
	}
}

func (s *Server) ClientSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		c := &clients.Client{
			ID:    r.PostForm.Get("id"),
			Name:  r.PostForm.Get("name"),
			Phone: r.PostForm.Get("phone"),
			Email: r.PostForm.Get("email"),
			Memo:  r.PostForm.Get("memo"),
		}
		if _, err := s.clients.Save(c); err != nil {
			s.renderClients(w, http.StatusUnprocessableEntity, "", r.PostForm, err.Error())
			return
		}
		http.Redirect(w, r, RouteClients, http.StatusSeeOther)
	}
}

func (s *Server) ClientDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.clients.Delete(chi.URLParam(r, "id")); err != nil {
			log.Warn().Err(err).Msg("delete client")
		}
		http.Redirect(w, r, RouteClients, http.StatusSeeOther)
	}
}

func (s *Server) renderClients(w http.ResponseWriter, status int, query string, form url.Values, errMsg string) {
	list, err := s.clients.Search(query)
	if err != nil {
		panic(err)
	}
	v := s.view("고객 관리", ClientsPageData{Clients: list, Query: query, Form: form})
	v.Error = errMsg
	s.renderPage(w, status, "clients.html", v)
}

// ScheduleHandler shows the month given as ?month=YYYY-MM, defaulting to
// the current one.
func (s *Server) ScheduleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderSchedule(w, http.StatusOK, s.month(r.URL.Query().Get("month")), nil, "")
	}
}

func (s *Server) EventSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		e := &schedule.Event{
			ID:       r.PostForm.Get("id"),
			Title:    r.PostForm.Get("title"),
			Start:    parseLocal(r.PostForm.Get("start")),
			End:      parseLocal(r.PostForm.Get("end")),
			ClientID: r.PostForm.Get("client_id"),
		}
		if id, err := strconv.ParseInt(r.PostForm.Get("contract_id"), 10, 64); err == nil {
			e.ContractID = id
		}

		month := s.month(r.PostForm.Get("month"))
		if !e.Start.IsZero() {
			month = e.Start
		}
		if _, err := s.schedule.Save(e); err != nil {
			s.renderSchedule(w, http.StatusUnprocessableEntity, month, r.PostForm, err.Error())
			return
		}
		http.Redirect(w, r, RouteSchedule+"?month="+month.Format(monthLayout), http.StatusSeeOther)
	}
}

func (s *Server) EventDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.schedule.Delete(chi.URLParam(r, "id")); err != nil {
			log.Warn().Err(err).Msg("delete event")
		}
		http.Redirect(w, r, RouteSchedule, http.StatusSeeOther)
	}
}

func (s *Server) renderSchedule(w http.ResponseWriter, status int, month time.Time, form url.Values, errMsg string) {
	events, err := s.schedule.Month(month)
	if err != nil {
		panic(err)
	}
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	v := s.view("일정", SchedulePageData{
		Month:     first,
		PrevMonth: first.AddDate(0, -1, 0).Format(monthLayout),
		NextMonth: first.AddDate(0, 1, 0).Format(monthLayout),
		Events:    events,
		Form:      form,
	})
	v.Error = errMsg
	s.renderPage(w, status, "schedule.html", v)
}

func (s *Server) month(raw string) time.Time {
	if m, err := time.ParseInLocation(monthLayout, strings.TrimSpace(raw), time.Local); err == nil {
		return m
	}
	return s.nowTime()
}

// parseLocal reads a datetime-local input; anything unparseable is zero.
func parseLocal(raw string) time.Time {
	t, err := time.ParseInLocation(dateTimeLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

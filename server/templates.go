package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/jrsteele09/contract-desk/contracts"
	"github.com/jrsteele09/contract-desk/users"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFiles embed.FS

const contentTypeHTML = "text/html; charset=utf-8"

// Pages rendered inside layout.html.
var layoutPages = []string{
	"index.html",
	"login.html",
	"signup.html",
	"forgot.html",
	"reset.html",
	"notice.html",
	"contracts.html",
	"contract.html",
	"contract_new.html",
	"clients.html",
	"schedule.html",
}

// Self-contained pages that must render even when the layout cannot.
var standalonePages = []string{
	"loading.html",
	"fallback.html",
}

var templateFuncs = template.FuncMap{
	"won":            contracts.Won,
	"date":           contracts.FormatDate,
	"typeLabel":      contracts.TypeLabel,
	"signatureLabel": contracts.SignatureLabel,
	"clock":          func(t time.Time) string { return t.Format("15:04") },
	"day":            func(t time.Time) string { return t.Format("2006-01-02") },
}

type pages struct {
	byName map[string]*template.Template
	layout map[string]bool
}

func loadPages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template), layout: make(map[string]bool)}
	for _, name := range layoutPages {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFiles, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("[server.loadPages] parse %s: %w", name, err)
		}
		p.byName[name] = t
		p.layout[name] = true
	}
	for _, name := range standalonePages {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFiles, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("[server.loadPages] parse %s: %w", name, err)
		}
		p.byName[name] = t
	}
	return p, nil
}

// view is what every page template receives.
type view struct {
	AppName string
	Title   string
	User    *users.User
	Error   string
	Message string
	Page    any
}

// render buffers the page so a template error never leaves a half-written
// response behind.
func (p *pages) render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := p.byName[name]
	if !ok {
		return fmt.Errorf("[pages.render] unknown page %s", name)
	}
	entry := name
	if p.layout[name] {
		entry = "layout.html"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, entry, data); err != nil {
		return fmt.Errorf("[pages.render] %s: %w", name, err)
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func (s *Server) view(title string, page any) view {
	return view{AppName: s.appName, Title: title, User: s.auth.User(), Page: page}
}

// renderPage writes a page; a failed render panics into RecoverMiddleware,
// which shows the fallback page.
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data view) {
	if err := s.pages.render(w, status, name, data); err != nil {
		log.Error().Err(err).Str("page", name).Msg("render failed")
		panic(err)
	}
}

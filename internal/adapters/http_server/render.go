package httpserver

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"paraiso_verde/internal/app"
	"paraiso_verde/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed assets
var assetsFS embed.FS

//go:embed content/*.md
var contentFS embed.FS

// md escapes raw HTML found in the content files.
var md = goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()))

var funcs = template.FuncMap{
	"money":       app.Money,
	"shortDate":   app.ShortDate,
	"stamp":       app.Stamp,
	"statusLabel": app.StatusLabel,
	"statusTone":  app.StatusTone,
	"roleLabel":   app.RoleLabel,
	"roomImage":   app.RoomImage,
	"initials":    app.Initials,
	"join":        strings.Join,
	"hasPrefix":   strings.HasPrefix,
	"list":        func(items ...string) []string { return items },
	"seq": func(from, to int) []int {
		var out []int
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	},
	"markdown": func(src string) template.HTML {
		var buf bytes.Buffer
		if err := md.Convert([]byte(src), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(src))
		}
		return template.HTML(buf.String())
	},
}

type flash struct {
	Error string
	OK    string
}

// page is what every template receives; Data is the page's own view model.
type page struct {
	Title string
	Nav   string
	User  *domain.SessionUser
	Flash flash
	CSRF  template.HTML
	Query url.Values
	Data  any
}

type renderer struct {
	pages   map[string]*template.Template
	content map[string]string
}

func newRenderer() (*renderer, error) {
	rd := &renderer{pages: map[string]*template.Template{}, content: map[string]string{}}

	names, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		base := path.Base(n)
		if base == "layout.html" {
			continue
		}
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", n)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		rd.pages[strings.TrimSuffix(base, ".html")] = t
	}

	docs, err := fs.Glob(contentFS, "content/*.md")
	if err != nil {
		return nil, err
	}
	for _, n := range docs {
		b, err := contentFS.ReadFile(n)
		if err != nil {
			return nil, err
		}
		rd.content[strings.TrimSuffix(path.Base(n), ".md")] = string(b)
	}
	return rd, nil
}

// render executes into a buffer first so a template failure never leaves a
// half-written page behind.
func (rd *renderer) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := rd.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("unknown template")
		http.Error(w, "Error interno del servidor", http.StatusInternalServerError)
		return
	}
	p.User = CurrentUser(r.Context())
	p.CSRF = csrf.TemplateField(r)
	p.Query = r.URL.Query()
	if p.Flash.Error == "" {
		p.Flash.Error = r.URL.Query().Get("error")
	}
	if p.Flash.OK == "" {
		p.Flash.OK = r.URL.Query().Get("ok")
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", p); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "Error interno del servidor", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug().Err(err).Msg("write page")
	}
}

// redirectFlash sends the visitor to target with a one-shot message in the
// query string.
func redirectFlash(w http.ResponseWriter, r *http.Request, target, kind, msg string) {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Del("error")
	q.Del("ok")
	if msg != "" {
		q.Set(kind, msg)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

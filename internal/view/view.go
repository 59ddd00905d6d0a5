// Package view renders the HTML pages.  Every page template is parsed
// together with layout.html, which draws the navigation for the current
// user and the pending flash messages around the page's "content" block.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-lot-reservation/internal/middleware"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
	"github.com/iliyamo/parking-lot-reservation/internal/session"
)

//go:embed templates/*.html
var files embed.FS

const layoutFile = "templates/layout.html"

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
	loc   *time.Location
}

// Layout is the value every template executes with.  Data is whatever the
// handler passed to c.Render.
type Layout struct {
	User    *model.User
	Flashes []session.Flash
	Data    interface{}
}

// New parses all pages.  Times are displayed in loc, UTC when nil.
func New(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	base, err := template.New("layout.html").Funcs(funcs(loc)).ParseFS(files, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(names)), loc: loc}
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(files, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return r, nil
}

// Has reports whether a page exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes the page name.  Reading the flashes consumes them, so
// they show exactly once.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	l := Layout{Data: data}
	if c != nil {
		l.User = middleware.CurrentUser(c)
		l.Flashes = session.From(c).Flashes()
	}
	return t.ExecuteTemplate(w, "layout.html", l)
}

func funcs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.In(loc).Format("2006-01-02 15:04")
		},
		"hours": func(d time.Duration) string { return fmt.Sprintf("%.2f", d.Hours()) },
		"percent": func(part, total int) int {
			if total <= 0 {
				return 0
			}
			return part * 100 / total
		},
		"flashClass": func(category string) string {
			switch category {
			case session.Error:
				return "danger"
			case session.Success, session.Warning, session.Info:
				return category
			}
			return "info"
		},
	}
}

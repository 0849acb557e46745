// Package dashboard renders the probe history as an HTML page.
package dashboard

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/docker/go-units"

	"github.com/hazz-dev/echoprobe/internal/history"
)

//go:embed assets templates
var files embed.FS

// Page renders the dashboard template.
type Page struct {
	tmpl *template.Template
	now  func() time.Time
}

// New parses the embedded template.
func New() *Page {
	p := &Page{now: time.Now}
	p.tmpl = template.Must(template.New("dashboard.html.tmpl").
		Funcs(template.FuncMap{"ago": p.ago}).
		ParseFS(files, "templates/dashboard.html.tmpl"))
	return p
}

// SetClock replaces the clock used for relative ages.
func (p *Page) SetClock(now func() time.Time) {
	p.now = now
}

func (p *Page) ago(t time.Time) string {
	d := p.now().Sub(t)
	if d < 0 {
		d = 0
	}
	return units.HumanDuration(d) + " ago"
}

// Render writes the page for v to w. An empty view renders a placeholder
// instead of a table.
func (p *Page) Render(w io.Writer, v history.View) error {
	data := struct {
		View      history.View
		Generated string
	}{
		View:      v,
		Generated: p.now().UTC().Format(history.TimeFormat),
	}
	return p.tmpl.Execute(w, data)
}

// Assets returns an HTTP handler that serves the embedded stylesheet.
func Assets() http.Handler {
	sub, err := fs.Sub(files, "assets")
	if err != nil {
		// "assets" is embedded, so this cannot fail.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

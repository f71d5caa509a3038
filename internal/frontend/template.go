package frontend

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	dashboardTemplate = "index.html"
	blockedTemplate   = "blocked.html"
)

// Renderer executes the embedded page templates
type Renderer struct {
	tmpl *template.Template
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*Renderer, error) {
	return loadTemplates(templateFS)
}

func loadTemplates(fsys fs.FS) (*Renderer, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"signed": func(v float64) string { return fmt.Sprintf("%+.3f", v) },
		"coord":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
	}).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	for _, name := range []string{dashboardTemplate, blockedTemplate} {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("template %s not found", name)
		}
	}

	return &Renderer{tmpl: tmpl}, nil
}

// RenderDashboard writes the dashboard page
func (r *Renderer) RenderDashboard(c *gin.Context, status int, view DashboardView) error {
	return r.render(c, status, dashboardTemplate, view)
}

// RenderBlocked writes the missing-artifact page with a 503
func (r *Renderer) RenderBlocked(c *gin.Context, view BlockedView) error {
	return r.render(c, http.StatusServiceUnavailable, blockedTemplate, view)
}

func (r *Renderer) render(c *gin.Context, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
	return nil
}

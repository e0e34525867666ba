package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig/v3"

	"bashgate/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// parseTemplates loads the embedded HTML templates with the sprig function
// map available to them.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(sprig.HtmlFuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// consentData is the view model for the consent page.
type consentData struct {
	ClientName  string
	Scope       string
	RedirectURI string
	RequestID   string
}

// indexData is the view model for the landing page.
type indexData struct {
	ServerName string
}

// renderPage executes the named template into the response.
func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		logging.Error("Server", err, "Failed to render template %s", name)
	}
}

// Package page renders the Miller Maps landing page from its embedded template.
package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"millermaps/internal/model"
)

// DisplayLayout is how the build time is shown on the page.
const DisplayLayout = "2006-01-02 15:04:05 UTC"

//go:embed templates/index.html
var templateFS embed.FS

// data is the single substitution point of the template.
type data struct {
	BuildTime string
}

// Renderer renders the landing page. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded template.
func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// Render substitutes buildTime (converted to UTC) into the template.
func (r *Renderer) Render(buildTime time.Time) (model.RenderedDocument, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "index.html", data{BuildTime: buildTime.UTC().Format(DisplayLayout)}); err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return model.RenderedDocument(buf.Bytes()), nil
}

package generator

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/finnkauski/mub/internal/content"
)

var (
	ErrTemplateNotFound = errors.New("generator: template not found")
	ErrTemplateRender   = errors.New("generator: template render failed")
)

// PageContext is the data contract handed to every template execution.
// Item is set only for per-item renders; Items carries the full collection
// only for top-level pages. Site is run-wide configuration, read-only.
type PageContext struct {
	Site        map[string]any
	Item        *content.Item
	Items       []content.Item
	GeneratedAt time.Time
}

// Engine exposes one parsed template set behind a name→context→bytes
// contract; the template language itself is not part of mub's surface.
type Engine struct {
	templates *template.Template
}

// NewEngine parses every .html file under dir into a single set. A map key
// referenced but absent at render time is an error rather than an empty
// string, so a typo in a template fails the page instead of shipping blanks.
func NewEngine(dir string) (*Engine, error) {
	tpl := template.New("mub").Option("missingkey=error").Funcs(template.FuncMap{
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		"datefmt":  func(layout string, t time.Time) string { return t.Format(layout) },
	})

	tpl, err := tpl.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("parse templates in %s: %w", dir, err)
	}

	return &Engine{templates: tpl}, nil
}

// Render executes the named template with the provided context.
func (e *Engine) Render(name string, data PageContext) ([]byte, error) {
	if e.templates.Lookup(name) == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
	}
	return buf.Bytes(), nil
}

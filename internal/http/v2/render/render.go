// Package render dibuja las páginas HTML del flujo server-rendered.
// Cada template key ("account/login", "socialaccount/signup", ...) es un
// archivo en templates/ que se ejecuta dentro de layout.html.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	mw "github.com/dropDatabas3/socialauth/internal/http/v2/middlewares"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
)

//go:embed templates
var templatesFS embed.FS

// Renderer mantiene un template compilado por key.
type Renderer struct {
	pages map[string]*template.Template
}

// New compila todos los templates embebidos.
func New() (*Renderer, error) {
	return NewFromFS(templatesFS, "templates")
}

// NewFromFS compila los templates de dir; layout.html es obligatorio.
func NewFromFS(fsys fs.FS, dir string) (*Renderer, error) {
	layout, err := fs.ReadFile(fsys, dir+"/layout.html")
	if err != nil {
		return nil, fmt.Errorf("render: layout: %w", err)
	}

	pages := make(map[string]*template.Template)
	err = fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") || path == dir+"/layout.html" {
			return err
		}
		body, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		key := strings.TrimSuffix(strings.TrimPrefix(path, dir+"/"), ".html")
		t, err := template.New("layout").Parse(string(layout))
		if err != nil {
			return fmt.Errorf("render: layout: %w", err)
		}
		if _, err := t.New("content").Parse(string(body)); err != nil {
			return fmt.Errorf("render: %s: %w", key, err)
		}
		pages[key] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Renderer{pages: pages}, nil
}

// Has indica si existe la página key.
func (rn *Renderer) Has(key string) bool {
	_, ok := rn.pages[key]
	return ok
}

// Render ejecuta la página key. Agrega csrf_token a data.
// Se renderiza a un buffer para no dejar respuestas a medias.
func (rn *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, key string, data map[string]any) {
	t, ok := rn.pages[key]
	if !ok {
		logger.From(r.Context()).Error("unknown template", logger.Layer("render"), logger.String("template", key))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	view := make(map[string]any, len(data)+1)
	for k, v := range data {
		view[k] = v
	}
	view["CSRFToken"] = mw.CSRFToken(r)
	view["CSRFField"] = mw.CSRFFieldName

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", view); err != nil {
		logger.From(r.Context()).Error("template render failed",
			logger.Layer("render"), logger.String("template", key), logger.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// internal/api/handler/web/handler.go
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/newthinker/coinview/internal/coinview"
	"github.com/newthinker/coinview/internal/metrics"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

// pages lists the page templates; each is parsed together with layout.html.
var pages = []string{"home.html", "coin.html"}

// Options configures the web handler.
type Options struct {
	// TemplatesDir overrides the embedded templates when set.
	TemplatesDir string
	// RenderWait bounds how long a coin page waits for its payload before
	// answering with the loading page.
	RenderWait time.Duration
	// RefreshSeconds is the auto refresh delay of the loading page.
	RefreshSeconds int
	// Featured coin ids linked from the home page.
	Featured []string
}

// Handler provides web UI handlers with template rendering
type Handler struct {
	// pageTemplates holds separate template instances for each page
	// Each instance contains layout.html + the specific page template
	pageTemplates map[string]*template.Template

	fetcher coinview.Fetcher
	builder *coinview.Builder
	opts    Options
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewHandler creates a new web handler. Templates are loaded from
// opts.TemplatesDir, or from the embedded set when it is empty.
func NewHandler(fetcher coinview.Fetcher, builder *coinview.Builder, opts Options, logger *zap.Logger) (*Handler, error) {
	var (
		pageTemplates map[string]*template.Template
		err           error
	)
	if opts.TemplatesDir != "" {
		pageTemplates, err = parseDir(opts.TemplatesDir)
	} else {
		pageTemplates, err = parseFS(TemplateFS())
	}
	if err != nil {
		return nil, err
	}
	return newHandler(pageTemplates, fetcher, builder, opts, logger), nil
}

// NewHandlerWithFS creates a new web handler using a custom filesystem.
// This is useful for testing or custom template sources.
func NewHandlerWithFS(fsys fs.FS, fetcher coinview.Fetcher, builder *coinview.Builder, opts Options, logger *zap.Logger) (*Handler, error) {
	pageTemplates, err := parseFS(fsys)
	if err != nil {
		return nil, err
	}
	return newHandler(pageTemplates, fetcher, builder, opts, logger), nil
}

func newHandler(pageTemplates map[string]*template.Template, fetcher coinview.Fetcher, builder *coinview.Builder, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = coinview.NewBuilder(nil)
	}
	if opts.RenderWait <= 0 {
		opts.RenderWait = 5 * time.Second
	}
	if opts.RefreshSeconds <= 0 {
		opts.RefreshSeconds = 2
	}
	return &Handler{
		pageTemplates: pageTemplates,
		fetcher:       fetcher,
		builder:       builder,
		opts:          opts,
		logger:        logger,
	}
}

func parseDir(dir string) (map[string]*template.Template, error) {
	pageTemplates := make(map[string]*template.Template)
	for _, page := range pages {
		// Parse layout first, then the page template
		layoutPath := filepath.Join(dir, "layout.html")
		pagePath := filepath.Join(dir, page)
		tmpl, err := template.ParseFiles(layoutPath, pagePath)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}
	return pageTemplates, nil
}

func parseFS(fsys fs.FS) (map[string]*template.Template, error) {
	pageTemplates := make(map[string]*template.Template)
	for _, page := range pages {
		tmpl, err := template.ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s from fs: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}
	return pageTemplates, nil
}

// SetMetrics sets the metrics registry
func (h *Handler) SetMetrics(m *metrics.Registry) {
	h.metrics = m
}

// render executes the specified page template with the given data
func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		h.logger.Error("rendering template", zap.String("page", page), zap.Error(err))
	}
}

// execute renders a page template to any writer.
func (h *Handler) execute(w io.Writer, page string, data any) error {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		return fmt.Errorf("template not found: %s", page)
	}
	return tmpl.ExecuteTemplate(w, "layout.html", data)
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		// This should never happen with valid embed directive
		return templateFS
	}
	return subFS
}

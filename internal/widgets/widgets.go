// widgets.go — Widget HTML sources: embedded templates with an optional
// override directory, or pages fetched from a remote deployment.
package widgets

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var embedded embed.FS

const layoutFile = "layout.html"

// ErrUnknownPage is returned for a page with no template.
var ErrUnknownPage = errors.New("unknown widget page")

// Request identifies the page to render.
type Request struct {
	// Page is the template name, Path the route on a remote deployment.
	Page        string
	Path        string
	Title       string
	Description string
	// Hosted is true when the HTML is served as an MCP resource.
	Hosted bool
	// DevHost injects a window.openai shim backed by the local dev host.
	DevHost bool
}

// Source produces widget HTML.
type Source interface {
	HTML(ctx context.Context, req Request) (string, error)
}

// Data is passed to every template.
type Data struct {
	Name        string
	Title       string
	Description string
	BaseURL     string
	Hosted      bool
	DevHost     bool
	// Bridge loads the widget-bridge runtime from BaseURL + BridgePath.
	Bridge bool
}

// BridgePath is the route prefix serving the widget-bridge runtime files.
const BridgePath = "/bridge"

// Renderer renders the embedded templates. When an override directory is
// set, files there shadow the embedded ones by name.
type Renderer struct {
	fsys    fs.FS
	baseURL string
	bridge  bool
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]*template.Template
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithOverrideDir layers dir over the embedded templates.
func WithOverrideDir(dir string) RendererOption {
	return func(r *Renderer) {
		if dir != "" {
			r.fsys = overlayFS{upper: os.DirFS(dir), lower: r.fsys}
		}
	}
}

// WithBaseURL sets the <base href> emitted in every page.
func WithBaseURL(u string) RendererOption {
	return func(r *Renderer) { r.baseURL = strings.TrimRight(u, "/") }
}

// WithBridge makes pages load the widget-bridge runtime. Pages keep their
// inline mirror until the runtime reports ready, and for good if it never does.
func WithBridge(enabled bool) RendererOption {
	return func(r *Renderer) { r.bridge = enabled }
}

// WithRendererLogger sets the logger.
func WithRendererLogger(l *zap.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer returns a renderer over the embedded templates.
func NewRenderer(opts ...RendererOption) *Renderer {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err) // embed pattern guarantees the directory
	}
	r := &Renderer{
		fsys:   sub,
		logger: zap.NewNop(),
		cache:  make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HTML implements Source.
func (r *Renderer) HTML(_ context.Context, req Request) (string, error) {
	tmpl, err := r.template(req.Page)
	if err != nil {
		return "", err
	}
	data := Data{
		Name:        req.Page,
		Title:       req.Title,
		Description: req.Description,
		BaseURL:     r.baseURL,
		Hosted:      req.Hosted,
		DevHost:     req.DevHost && !req.Hosted,
		Bridge:      r.bridge,
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s: %w", req.Page, err)
	}
	return buf.String(), nil
}

func (r *Renderer) template(page string) (*template.Template, error) {
	if page == "" || page == strings.TrimSuffix(layoutFile, ".html") || strings.ContainsAny(page, `/\.`) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[page]; ok {
		return t, nil
	}

	name := page + ".html"
	if _, err := fs.Stat(r.fsys, name); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}
	t, err := template.ParseFS(r.fsys, layoutFile, name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	r.cache[page] = t
	return t, nil
}

// Invalidate drops parsed templates so the next render rereads them.
func (r *Renderer) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cache) > 0 {
		r.logger.Debug("widget templates invalidated", zap.Int("cached", len(r.cache)))
	}
	r.cache = make(map[string]*template.Template)
}

// Pages lists the available template names, sorted.
func (r *Renderer) Pages() []string {
	entries, err := fs.Glob(r.fsys, "*.html")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e == layoutFile {
			continue
		}
		out = append(out, strings.TrimSuffix(e, ".html"))
	}
	sort.Strings(out)
	return out
}

// overlayFS serves names from upper when present, else from lower.
type overlayFS struct {
	upper fs.FS
	lower fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.upper.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.lower.Open(name)
}

// Glob merges matches from both layers.
func (o overlayFS) Glob(pattern string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, layer := range []fs.FS{o.upper, o.lower} {
		matches, err := fs.Glob(layer, pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// registry.go — Registers every catalog tool and widget resource on an MCP server.
package tools

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/MCPJam/apps-sdk-everything/internal/catalog"
	"github.com/MCPJam/apps-sdk-everything/internal/toolkit"
	"github.com/MCPJam/apps-sdk-everything/internal/widgets"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Rand is the randomness the mock tools draw from.
type Rand interface {
	IntN(n int) int
}

// Registry owns the mock tool state shared across sessions.
type Registry struct {
	source widgets.Source
	logger *zap.Logger
	now    func() time.Time
	rng    Rand

	mu      sync.Mutex
	counter float64
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithRand overrides the random source.
func WithRand(rng Rand) Option {
	return func(r *Registry) { r.rng = rng }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a Registry serving widget HTML from source.
func New(source widgets.Source, opts ...Option) *Registry {
	r := &Registry{
		source: source,
		logger: zap.NewNop(),
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds every widget resource, widget tool and demo tool to s.
func (r *Registry) Register(s *mcp.Server) {
	for _, w := range catalog.Widgets() {
		r.addWidgetResource(s, w)
		r.addWidgetTool(s, w)
	}
	r.addDemoTools(s)
}

// Counter returns the server-side counter used by counter_increment.
func (r *Registry) Counter() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counter
}

func (r *Registry) addWidgetResource(s *mcp.Server, w catalog.Widget) {
	meta := w.ResourceMeta()
	s.AddResource(&mcp.Resource{
		URI:         w.TemplateURI,
		Name:        w.ResourceName,
		Title:       w.Title,
		Description: w.Description,
		MIMEType:    toolkit.MIMETypeSkybridge,
		Meta:        meta.Descriptor(),
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		html, err := r.source.HTML(ctx, widgets.Request{
			Page:        w.Page,
			Path:        w.Path,
			Title:       w.Title,
			Description: w.Description,
			Hosted:      true,
		})
		if err != nil {
			r.logger.Warn("widget resource unavailable", zap.String("uri", w.TemplateURI), zap.Error(err))
			return nil, fmt.Errorf("read %s: %w", w.TemplateURI, err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: toolkit.MIMETypeSkybridge,
				Text:     html,
				Meta:     meta.Contents(),
			}},
		}, nil
	})
}

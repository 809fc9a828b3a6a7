// server.go — Wires the MCP server, widget source, dev host and HTTP transport.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MCPJam/apps-sdk-everything/internal/bridge"
	"github.com/MCPJam/apps-sdk-everything/internal/config"
	"github.com/MCPJam/apps-sdk-everything/internal/devhost"
	"github.com/MCPJam/apps-sdk-everything/internal/toolkit"
	"github.com/MCPJam/apps-sdk-everything/internal/tools"
	"github.com/MCPJam/apps-sdk-everything/internal/widgets"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Name is the MCP implementation name.
const Name = "apps-sdk-everything"

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	rateWindow        = time.Minute
)

// Server serves the demo tools and widgets over MCP and HTTP.
type Server struct {
	cfg     config.Config
	logger  *zap.Logger
	version string

	source   widgets.Source
	renderer *widgets.Renderer
	watcher  *widgets.Watcher
	registry *tools.Registry
	metrics  *Metrics
	mcp      *mcp.Server

	host    *devhost.Host
	hub     *devhost.Hub
	session *mcp.ClientSession
	serverS *mcp.ServerSession
}

// Option configures a Server.
type Option func(*settings)

type settings struct {
	logger     *zap.Logger
	version    string
	httpClient *http.Client
	toolOpts   []tools.Option
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the version reported to MCP clients and on /health.
func WithVersion(v string) Option {
	return func(s *settings) { s.version = v }
}

// WithHTTPClient sets the client used by the remote widget source.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithToolOptions passes options to the tool registry.
func WithToolOptions(opts ...tools.Option) Option {
	return func(s *settings) { s.toolOpts = append(s.toolOpts, opts...) }
}

// New builds a Server from a validated config. Call Close when done.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	st := settings{logger: zap.NewNop(), version: "dev"}
	for _, opt := range opts {
		opt(&st)
	}

	s := &Server{
		cfg:     cfg,
		logger:  st.logger,
		version: st.version,
		metrics: NewMetrics(),
	}

	switch cfg.WidgetSource {
	case config.SourceRemote:
		ttl := time.Duration(cfg.RemoteCacheSecs) * time.Second
		s.source = widgets.NewRemote(cfg.RemoteURL, st.httpClient, ttl, s.logger.Named("remote"))
	case config.SourceEmbedded, config.SourceDir, "":
		ropts := []widgets.RendererOption{
			widgets.WithBaseURL(cfg.BaseURL),
			widgets.WithBridge(cfg.BridgeDir != ""),
			widgets.WithRendererLogger(s.logger.Named("widgets")),
		}
		if cfg.WidgetSource == config.SourceDir {
			ropts = append(ropts, widgets.WithOverrideDir(cfg.WidgetsDir))
		}
		s.renderer = widgets.NewRenderer(ropts...)
		if cfg.WidgetSource == config.SourceDir {
			s.watcher = widgets.NewWatcher(cfg.WidgetsDir, s.renderer, s.logger.Named("watch"))
		}
		s.source = s.renderer
	default:
		return nil, fmt.Errorf("unknown widget source %q", cfg.WidgetSource)
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: Name, Version: s.version}, nil)
	middleware := []mcp.Middleware{s.metrics.Middleware()}
	if cfg.ToolRateLimit > 0 {
		limiter := tools.NewCallLimiter(cfg.ToolRateLimit, rateWindow)
		middleware = append(middleware, tools.RateLimit(limiter, s.logger))
	}
	middleware = append(middleware, tools.Timeouts())
	s.mcp.AddReceivingMiddleware(middleware...)

	toolOpts := append([]tools.Option{tools.WithLogger(s.logger.Named("tools"))}, st.toolOpts...)
	s.registry = tools.New(s.source, toolOpts...)
	s.registry.Register(s.mcp)

	if cfg.DevHost {
		if err := s.startDevHost(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DefaultDevGlobals are the globals a fresh dev host starts with.
func DefaultDevGlobals() map[bridge.Key]any {
	return map[bridge.Key]any{
		bridge.KeyTheme:       string(bridge.ThemeLight),
		bridge.KeyLocale:      "en-US",
		bridge.KeyDisplayMode: string(bridge.DisplayModeInline),
		bridge.KeyMaxHeight:   480.0,
		bridge.KeyUserAgent: map[string]any{
			"device":       map[string]any{"type": string(bridge.DeviceDesktop)},
			"capabilities": map[string]any{"hover": true, "touch": false},
		},
		bridge.KeySafeArea: map[string]any{
			"insets": map[string]any{"top": 0.0, "bottom": 0.0, "left": 0.0, "right": 0.0},
		},
	}
}

// startDevHost creates the simulated host and connects it to the MCP server
// through an in-memory session so widgets can call tools.
func (s *Server) startDevHost() error {
	host, err := devhost.New(
		devhost.WithLogger(s.logger.Named("devhost")),
		devhost.WithOpenExternalAllow(s.cfg.OpenExternalAllow),
		devhost.WithGlobals(DefaultDevGlobals()),
	)
	if err != nil {
		return fmt.Errorf("dev host: %w", err)
	}

	ctx := context.Background()
	serverT, clientT := mcp.NewInMemoryTransports()
	ss, err := s.mcp.Connect(ctx, serverT, nil)
	if err != nil {
		return fmt.Errorf("dev host session: %w", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: Name + "-devhost", Version: s.version}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		_ = ss.Close()
		return fmt.Errorf("dev host client: %w", err)
	}

	host.SetInvoker(devhost.ToolInvokerFunc(func(ctx context.Context, name string, args map[string]any) (*bridge.CallToolResponse, error) {
		if args == nil {
			args = map[string]any{}
		}
		res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
		if err != nil {
			return nil, err
		}
		return toBridgeResponse(res)
	}))

	s.host = host
	s.hub = devhost.NewHub(host, s.logger.Named("hub"))
	s.session = cs
	s.serverS = ss
	return nil
}

func toBridgeResponse(res *mcp.CallToolResult) (*bridge.CallToolResponse, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	var out bridge.CallToolResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode tool result: %w", err)
	}
	out.Result = toolkit.FirstText(res)
	return &out, nil
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// Registry returns the tool registry.
func (s *Server) Registry() *tools.Registry { return s.registry }

// Source returns the widget source selected by the config.
func (s *Server) Source() widgets.Source { return s.source }

// DevHost returns the simulated host, or nil when dev-host mode is off.
func (s *Server) DevHost() *devhost.Host { return s.host }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.logger.Info("serving",
		zap.String("addr", ln.Addr().String()),
		zap.String("widget_source", s.cfg.WidgetSource),
		zap.Bool("dev_host", s.host != nil))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	if s.watcher != nil {
		g.Go(func() error { return s.watcher.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if s.hub != nil {
			s.hub.Close()
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// RunStdio serves MCP over stdin/stdout until ctx is done or stdin closes.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.ServeTransport(ctx, &mcp.StdioTransport{})
}

// ServeTransport serves MCP over t, running the template watcher alongside.
func (s *Server) ServeTransport(ctx context.Context, t mcp.Transport) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return s.mcp.Run(gctx, t)
	})
	if s.watcher != nil {
		g.Go(func() error { return s.watcher.Run(gctx) })
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the dev host session and hub.
func (s *Server) Close() error {
	if s.hub != nil {
		s.hub.Close()
	}
	var err error
	if s.session != nil {
		err = s.session.Close()
		_ = s.serverS.Wait()
		s.session = nil
	}
	return err
}

// routes.go — HTTP route setup and handlers.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/MCPJam/apps-sdk-everything/internal/bridge"
	"github.com/MCPJam/apps-sdk-everything/internal/catalog"
	"github.com/MCPJam/apps-sdk-everything/internal/devhost"
	"github.com/MCPJam/apps-sdk-everything/internal/widgets"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const maxPostBodySize = 1 << 20

// Handler returns the HTTP handler with every route and middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
	mux.Handle("/mcp", mcpHandler)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /widgets", s.handleWidgetList)
	mux.HandleFunc("GET /widgets/{name}", s.handleWidgetPreview)
	mux.HandleFunc("GET "+widgets.BridgePath+"/{file}", s.handleBridgeFile)

	if s.host != nil {
		mux.Handle("GET /host/events", s.hub)
		mux.HandleFunc("GET /host/state", s.handleHostState)
		mux.HandleFunc("POST /host/globals", s.handleHostGlobals)
		mux.HandleFunc("POST /host/methods/{method}", s.handleHostMethod)
	}

	return accessLog(s.logger, corsMiddleware(cspMiddleware(s.cfg.FrameOrigins, mux)))
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string               `json:"status"`
	Name          string               `json:"name"`
	Version       string               `json:"version"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	WidgetSource  string               `json:"widget_source"`
	DevHost       bool                 `json:"dev_host"`
	Counter       float64              `json:"counter"`
	Tools         map[string]ToolStats `json:"tools"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Name:          Name,
		Version:       s.version,
		UptimeSeconds: int64(s.metrics.Uptime().Seconds()),
		WidgetSource:  s.cfg.WidgetSource,
		DevHost:       s.host != nil,
		Counter:       s.registry.Counter(),
		Tools:         s.metrics.Tools(),
	})
}

// PageInfo describes one previewable page.
type PageInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
	PreviewURL  string `json:"preview_url"`
	Tool        string `json:"tool,omitempty"`
	ResourceURI string `json:"resource_uri,omitempty"`
}

// PageInfos lists every catalog page with its preview route.
func PageInfos() []PageInfo {
	pages := catalog.Pages()
	out := make([]PageInfo, 0, len(pages))
	for _, p := range pages {
		info := PageInfo{
			Name:        p.Name,
			Title:       p.Title,
			Description: p.Description,
			Path:        p.Path,
			PreviewURL:  "/widgets/" + p.Name,
		}
		if w, ok := catalog.Lookup(p.WidgetID); ok {
			info.Tool = w.ID
			info.ResourceURI = w.TemplateURI
		}
		out = append(out, info)
	}
	return out
}

func (s *Server) handleWidgetList(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, PageInfos())
}

func (s *Server) handleWidgetPreview(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	page, ok := catalog.LookupPage(name)
	if !ok {
		errorResponse(w, http.StatusNotFound, "unknown widget page: "+name)
		return
	}

	html, err := s.source.HTML(r.Context(), widgets.Request{
		Page:        page.Name,
		Path:        page.Path,
		Title:       page.Title,
		Description: page.Description,
		DevHost:     s.host != nil,
	})
	if err != nil {
		if errors.Is(err, widgets.ErrUnknownPage) {
			errorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Warn("render widget preview", zap.String("page", name), zap.Error(err))
		errorResponse(w, http.StatusBadGateway, "widget page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

// HostState is the body of GET /host/state.
type HostState struct {
	Globals    map[string]any `json:"globals"`
	Transcript []string       `json:"transcript"`
	Opened     []string       `json:"opened"`
	Heights    []float64      `json:"heights"`
}

func (s *Server) handleHostState(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, HostState{
		Globals:    s.host.Globals(),
		Transcript: nonNil(s.host.Transcript()),
		Opened:     nonNil(s.host.Opened()),
		Heights:    nonNil(s.host.Heights()),
	})
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func (s *Server) handleHostGlobals(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	ev, ok := bridge.ParseChangeEvent(body)
	if !ok {
		errorResponse(w, http.StatusBadRequest, `body must be {"globals": {...}}`)
		return
	}
	s.host.SetGlobals(ev.Globals)
	jsonResponse(w, http.StatusOK, map[string]any{"globals": s.host.Globals()})
}

// handleHostMethod invokes one window.openai method on the simulated host.
// Bodies mirror the JS call arguments.
func (s *Server) handleHostMethod(w http.ResponseWriter, r *http.Request) {
	method := bridge.Method(r.PathValue("method"))
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	switch method {
	case bridge.MethodCallTool:
		var in struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}
		if !decode(w, body, &in) {
			return
		}
		if strings.TrimSpace(in.Name) == "" {
			errorResponse(w, http.StatusBadRequest, "name is required")
			return
		}
		resp, err := bridge.CallTool(ctx, s.host, in.Name, in.Arguments)
		if err != nil {
			s.methodError(w, method, err)
			return
		}
		jsonResponse(w, http.StatusOK, resp)

	case bridge.MethodSendFollowUpMessage:
		var in struct {
			Prompt string `json:"prompt"`
		}
		if !decode(w, body, &in) {
			return
		}
		if err := bridge.SendFollowUpMessage(ctx, s.host, in.Prompt); err != nil {
			s.methodError(w, method, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{})

	case bridge.MethodOpenExternal:
		var in struct {
			Href string `json:"href"`
		}
		if !decode(w, body, &in) {
			return
		}
		bridge.OpenExternal(s.host, in.Href)
		jsonResponse(w, http.StatusOK, map[string]any{})

	case bridge.MethodRequestDisplayMode:
		var in struct {
			Mode bridge.DisplayMode `json:"mode"`
		}
		if !decode(w, body, &in) {
			return
		}
		granted, err := bridge.RequestDisplayMode(ctx, s.host, in.Mode)
		if err != nil {
			s.methodError(w, method, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{"mode": granted})

	case bridge.MethodSetWidgetState:
		var state map[string]any
		if !decode(w, body, &state) {
			return
		}
		if err := bridge.SetWidgetState(ctx, s.host, state); err != nil {
			s.methodError(w, method, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{})

	case bridge.MethodNotifyIntrinsicHeight:
		var in struct {
			Height float64 `json:"height"`
		}
		if !decode(w, body, &in) {
			return
		}
		bridge.NotifyIntrinsicHeight(s.host, in.Height)
		jsonResponse(w, http.StatusOK, map[string]any{})

	case bridge.MethodRequestModal:
		var in bridge.ModalOptions
		if !decode(w, body, &in) {
			return
		}
		if err := bridge.RequestModal(ctx, s.host, in); err != nil {
			s.methodError(w, method, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{})

	default:
		errorResponse(w, http.StatusNotFound, "unknown method: "+string(method))
	}
}

func (s *Server) methodError(w http.ResponseWriter, m bridge.Method, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, bridge.ErrHostUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, devhost.ErrEmptyPrompt), errors.Is(err, devhost.ErrInvalidDisplayMode):
		status = http.StatusBadRequest
	}
	s.logger.Debug("dev host method failed", zap.String("method", string(m)), zap.Error(err))
	errorResponse(w, status, err.Error())
}

func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPostBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		errorResponse(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		data = []byte("null")
	}
	return data, true
}

func decode(w http.ResponseWriter, body json.RawMessage, dst any) bool {
	if err := json.Unmarshal(body, dst); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// bridgeFiles are the runtime files served from the bridge directory.
var bridgeFiles = map[string]string{
	"widget-bridge.wasm": "application/wasm",
	"wasm_exec.js":       "text/javascript; charset=utf-8",
}

func (s *Server) handleBridgeFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	ctype, ok := bridgeFiles[name]
	if !ok || s.cfg.BridgeDir == "" {
		errorResponse(w, http.StatusNotFound, "not found")
		return
	}
	f, err := os.Open(filepath.Join(s.cfg.BridgeDir, name))
	if err != nil {
		s.logger.Debug("bridge file unavailable", zap.String("file", name), zap.Error(err))
		errorResponse(w, http.StatusNotFound, "not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", ctype)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// host.go — In-process stand-in for the chat host's window.openai object.
//
// Host keeps its own globals, implements every bridge method, and dispatches
// set-globals events synchronously and in order to its listeners.
package devhost

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MCPJam/apps-sdk-everything/internal/bridge"
	"github.com/MCPJam/apps-sdk-everything/internal/util"
	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

var (
	// ErrEmptyPrompt is returned by SendFollowUpMessage for a blank prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrInvalidDisplayMode is returned for a mode outside inline, pip and fullscreen.
	ErrInvalidDisplayMode = errors.New("invalid display mode")
)

// ToolInvoker runs a server tool on behalf of a widget.
type ToolInvoker interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*bridge.CallToolResponse, error)
}

// ToolInvokerFunc adapts a function to ToolInvoker.
type ToolInvokerFunc func(ctx context.Context, name string, args map[string]any) (*bridge.CallToolResponse, error)

// CallTool implements ToolInvoker.
func (f ToolInvokerFunc) CallTool(ctx context.Context, name string, args map[string]any) (*bridge.CallToolResponse, error) {
	return f(ctx, name, args)
}

// Host implements bridge.Host, every optional method interface,
// bridge.MethodProber and bridge.EventTarget.
type Host struct {
	logger *zap.Logger
	allow  []glob.Glob

	// dispatch serializes event delivery. Listeners must not call back into
	// methods that dispatch.
	dispatch sync.Mutex

	mu         sync.Mutex
	globals    map[bridge.Key]any
	invoker    ToolInvoker
	listeners  map[uint64]func(any)
	order      []uint64
	nextID     uint64
	transcript []string
	opened     []string
	heights    []float64
}

// Option configures a Host.
type Option func(*Host) error

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) error {
		if l != nil {
			h.logger = l
		}
		return nil
	}
}

// WithInvoker sets the tool invoker used by CallTool.
func WithInvoker(inv ToolInvoker) Option {
	return func(h *Host) error {
		h.invoker = inv
		return nil
	}
}

// WithOpenExternalAllow restricts OpenExternal to hrefs matching one of the
// glob patterns. '*' stops at '.' and '/'; '**' does not. An empty list
// allows every http(s) URL.
func WithOpenExternalAllow(patterns []string) Option {
	return func(h *Host) error {
		for _, p := range patterns {
			g, err := glob.Compile(p, '.', '/')
			if err != nil {
				return fmt.Errorf("invalid open_external pattern '%s': %w", p, err)
			}
			h.allow = append(h.allow, g)
		}
		return nil
	}
}

// WithGlobals seeds the initial globals. Unknown keys are ignored.
func WithGlobals(g map[bridge.Key]any) Option {
	return func(h *Host) error {
		for k, v := range g {
			if k.IsKnown() {
				h.globals[k] = v
			}
		}
		return nil
	}
}

// New returns a Host with no globals populated.
func New(opts ...Option) (*Host, error) {
	h := &Host{
		logger:    zap.NewNop(),
		globals:   make(map[bridge.Key]any),
		listeners: make(map[uint64]func(any)),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// SetInvoker replaces the tool invoker.
func (h *Host) SetInvoker(inv ToolInvoker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invoker = inv
}

// Global implements bridge.Host.
func (h *Host) Global(key bridge.Key) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.globals[key]
	return v, ok
}

// Globals returns a copy of every populated global, keyed by name.
func (h *Host) Globals() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]any, len(h.globals))
	for k, v := range h.globals {
		out[string(k)] = v
	}
	return out
}

// HasMethod implements bridge.MethodProber. callTool is absent until an
// invoker is configured.
func (h *Host) HasMethod(m bridge.Method) bool {
	if m != bridge.MethodCallTool {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.invoker != nil
}

// AddListener implements bridge.EventTarget.
func (h *Host) AddListener(fn func(detail any)) (remove func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners, id)
			for i, lid := range h.order {
				if lid == id {
					h.order = append(h.order[:i], h.order[i+1:]...)
					break
				}
			}
		})
	}
}

// ListenerCount reports the number of registered listeners.
func (h *Host) ListenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// SetGlobals merges partial into the host's globals and dispatches one
// set-globals event carrying exactly those keys. Unknown keys are dropped.
func (h *Host) SetGlobals(partial map[bridge.Key]any) {
	h.dispatch.Lock()
	defer h.dispatch.Unlock()

	h.mu.Lock()
	changed := make(map[string]any, len(partial))
	for k, v := range partial {
		if !k.IsKnown() {
			continue
		}
		h.globals[k] = v
		changed[string(k)] = v
	}
	fns := make([]func(any), 0, len(h.order))
	for _, id := range h.order {
		fns = append(fns, h.listeners[id])
	}
	h.mu.Unlock()

	detail := map[string]any{"globals": changed}
	for _, fn := range fns {
		fn(detail)
	}
}

func (h *Host) snapshot() bridge.GlobalState {
	return bridge.ReadAll(h)
}

// CallTool implements bridge.ToolCaller.
func (h *Host) CallTool(ctx context.Context, name string, args map[string]any) (*bridge.CallToolResponse, error) {
	h.mu.Lock()
	inv := h.invoker
	h.mu.Unlock()
	if inv == nil {
		return nil, fmt.Errorf("%s: %w", bridge.MethodCallTool, bridge.ErrHostUnavailable)
	}
	h.logger.Debug("widget tool call", zap.String("tool", name))
	return inv.CallTool(ctx, name, args)
}

// SendFollowUpMessage implements bridge.FollowUpSender by appending to the
// transcript.
func (h *Host) SendFollowUpMessage(_ context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%s: %w", bridge.MethodSendFollowUpMessage, ErrEmptyPrompt)
	}
	h.mu.Lock()
	h.transcript = append(h.transcript, prompt)
	h.mu.Unlock()
	h.logger.Info("follow-up message", zap.String("prompt", prompt))
	return nil
}

// OpenExternal implements bridge.ExternalOpener. Hrefs that are not http(s)
// or fail the allow-list are logged and dropped.
func (h *Host) OpenExternal(href string) {
	if !h.allowed(href) {
		h.logger.Warn("openExternal blocked", zap.String("href", href))
		return
	}
	h.mu.Lock()
	h.opened = append(h.opened, href)
	h.mu.Unlock()
	h.logger.Info("openExternal", zap.String("href", href), zap.String("origin", util.ExtractOrigin(href)))
}

func (h *Host) allowed(href string) bool {
	if !util.IsHTTPURL(href) {
		return false
	}
	if len(h.allow) == 0 {
		return true
	}
	for _, g := range h.allow {
		if g.Match(href) {
			return true
		}
	}
	return false
}

// RequestDisplayMode implements bridge.DisplayModeRequester. The request is
// granted as asked, except pip on a mobile device becomes fullscreen.
func (h *Host) RequestDisplayMode(_ context.Context, mode bridge.DisplayMode) (bridge.DisplayMode, error) {
	if !mode.Valid() {
		return "", fmt.Errorf("%s: %w %q", bridge.MethodRequestDisplayMode, ErrInvalidDisplayMode, mode)
	}
	granted := mode
	if mode == bridge.DisplayModePiP {
		if dt, ok := h.snapshot().UserAgent().DeviceType(); ok && dt == bridge.DeviceMobile {
			granted = bridge.DisplayModeFullscreen
		}
	}
	h.SetGlobals(map[bridge.Key]any{bridge.KeyDisplayMode: string(granted)})
	return granted, nil
}

// SetWidgetState implements bridge.WidgetStatePersister: the state is kept
// and redelivered through a set-globals event.
func (h *Host) SetWidgetState(_ context.Context, state map[string]any) error {
	h.SetGlobals(map[bridge.Key]any{bridge.KeyWidgetState: copyMap(state)})
	return nil
}

// NotifyIntrinsicHeight implements bridge.IntrinsicHeightNotifier.
func (h *Host) NotifyIntrinsicHeight(height float64) {
	h.mu.Lock()
	h.heights = append(h.heights, height)
	h.mu.Unlock()
}

// RequestModal implements bridge.ModalRequester by switching view to modal.
func (h *Host) RequestModal(_ context.Context, opts bridge.ModalOptions) error {
	params := copyMap(opts.Params)
	if params == nil {
		params = map[string]any{}
	}
	if opts.Title != "" {
		params["title"] = opts.Title
	}
	h.SetGlobals(map[bridge.Key]any{bridge.KeyView: map[string]any{
		"mode":   "modal",
		"params": params,
	}})
	return nil
}

// Transcript returns the follow-up messages sent so far.
func (h *Host) Transcript() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.transcript...)
}

// Opened returns the hrefs accepted by OpenExternal.
func (h *Host) Opened() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.opened...)
}

// Heights returns every reported intrinsic height.
func (h *Host) Heights() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]float64(nil), h.heights...)
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

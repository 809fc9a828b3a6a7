// fakes_test.go — In-package host and event target doubles.
package bridge

import (
	"context"
	"sync"
)

// mapHost is a Host backed by a plain map. It implements only Global.
type mapHost map[Key]any

func (h mapHost) Global(k Key) (any, bool) {
	v, ok := h[k]
	return v, ok
}

// fullHost implements every optional method and records calls.
type fullHost struct {
	mapHost
	callErr   error
	granted   DisplayMode
	persisted []map[string]any
	opened    []string
	heights   []float64
	prompts   []string
	modals    []ModalOptions
	missing   map[Method]bool
}

func (h *fullHost) HasMethod(m Method) bool { return !h.missing[m] }

func (h *fullHost) CallTool(_ context.Context, name string, args map[string]any) (*CallToolResponse, error) {
	if h.callErr != nil {
		return nil, h.callErr
	}
	return &CallToolResponse{
		Content:           []ContentBlock{{Type: "text", Text: name}},
		StructuredContent: args,
	}, nil
}

func (h *fullHost) SendFollowUpMessage(_ context.Context, prompt string) error {
	if h.callErr != nil {
		return h.callErr
	}
	h.prompts = append(h.prompts, prompt)
	return nil
}

func (h *fullHost) OpenExternal(href string) { h.opened = append(h.opened, href) }

func (h *fullHost) RequestDisplayMode(_ context.Context, mode DisplayMode) (DisplayMode, error) {
	if h.callErr != nil {
		return "", h.callErr
	}
	if h.granted != "" {
		return h.granted, nil
	}
	return mode, nil
}

func (h *fullHost) SetWidgetState(_ context.Context, state map[string]any) error {
	if h.callErr != nil {
		return h.callErr
	}
	h.persisted = append(h.persisted, state)
	return nil
}

func (h *fullHost) NotifyIntrinsicHeight(px float64) { h.heights = append(h.heights, px) }

func (h *fullHost) RequestModal(_ context.Context, opts ModalOptions) error {
	if h.callErr != nil {
		return h.callErr
	}
	h.modals = append(h.modals, opts)
	return nil
}

// target is a synchronous EventTarget.
type target struct {
	mu        sync.Mutex
	listeners map[int]func(any)
	next      int
}

func newTarget() *target {
	return &target{listeners: make(map[int]func(any))}
}

func (t *target) AddListener(fn func(detail any)) func() {
	t.mu.Lock()
	id := t.next
	t.next++
	t.listeners[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

func (t *target) dispatch(detail any) {
	t.mu.Lock()
	fns := make([]func(any), 0, len(t.listeners))
	for i := 0; i < t.next; i++ {
		if fn, ok := t.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn(detail)
	}
}

func (t *target) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}

func globals(kv map[string]any) map[string]any {
	return map[string]any{"globals": kv}
}

// windowHost reports presence like a browser host whose object can vanish.
type windowHost struct {
	values mapHost
}

func (h *windowHost) Present() bool { return h != nil && h.values != nil }

func (h *windowHost) Global(k Key) (any, bool) {
	if !h.Present() {
		return nil, false
	}
	return h.values.Global(k)
}

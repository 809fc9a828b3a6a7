//go:build js && wasm

// Package jshost implements the bridge host contracts over the browser's
// window.openai object and the window-level set-globals event.
//
// Awaited methods block on the host's promise; call them from a goroutine,
// never from inside a js.Func callback, or the JS event loop deadlocks.
package jshost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/MCPJam/apps-sdk-everything/internal/bridge"
)

// Host reads window.openai on every call; the object may appear or disappear
// over the page's lifetime.
type Host struct {
	global js.Value
}

// New returns a Host bound to the page's global object, or nil when
// window.openai is not defined (the page is not running inside the host).
// It returns bridge.Host so the absent case compares equal to nil; every
// method on a nil *Host is also safe and behaves as if the host is absent.
func New() bridge.Host {
	h := &Host{global: js.Global()}
	if !h.Present() {
		return nil
	}
	return h
}

// Bound returns a Host without checking for window.openai.
func Bound() *Host {
	return &Host{global: js.Global()}
}

func (h *Host) object() js.Value {
	if h == nil || h.global.IsUndefined() {
		return js.Undefined()
	}
	return h.global.Get("openai")
}

// Present implements bridge.PresenceReporter.
func (h *Host) Present() bool {
	return !isNullish(h.object())
}

// Global implements bridge.Host.
func (h *Host) Global(key bridge.Key) (any, bool) {
	obj := h.object()
	if isNullish(obj) {
		return nil, false
	}
	v := obj.Get(string(key))
	if isNullish(v) {
		return nil, false
	}
	out, err := toGo(v)
	if err != nil {
		return nil, false
	}
	return out, true
}

// HasMethod implements bridge.MethodProber.
func (h *Host) HasMethod(m bridge.Method) bool {
	obj := h.object()
	if isNullish(obj) {
		return false
	}
	return obj.Get(string(m)).Type() == js.TypeFunction
}

// CallTool implements bridge.ToolCaller.
func (h *Host) CallTool(ctx context.Context, name string, args map[string]any) (*bridge.CallToolResponse, error) {
	jsArgs, err := toJS(args)
	if err != nil {
		return nil, fmt.Errorf("callTool: encode args: %w", err)
	}
	res, err := h.await(ctx, bridge.MethodCallTool, js.ValueOf(name), jsArgs)
	if err != nil {
		return nil, err
	}
	var out bridge.CallToolResponse
	if err := decodeInto(res, &out); err != nil {
		return nil, fmt.Errorf("callTool: decode response: %w", err)
	}
	return &out, nil
}

// SendFollowUpMessage implements bridge.FollowUpSender.
func (h *Host) SendFollowUpMessage(ctx context.Context, prompt string) error {
	_, err := h.await(ctx, bridge.MethodSendFollowUpMessage, js.ValueOf(map[string]any{"prompt": prompt}))
	return err
}

// OpenExternal implements bridge.ExternalOpener.
func (h *Host) OpenExternal(href string) {
	obj := h.object()
	if isNullish(obj) || obj.Get(string(bridge.MethodOpenExternal)).Type() != js.TypeFunction {
		return
	}
	obj.Call(string(bridge.MethodOpenExternal), js.ValueOf(map[string]any{"href": href}))
}

// RequestDisplayMode implements bridge.DisplayModeRequester.
func (h *Host) RequestDisplayMode(ctx context.Context, mode bridge.DisplayMode) (bridge.DisplayMode, error) {
	res, err := h.await(ctx, bridge.MethodRequestDisplayMode, js.ValueOf(map[string]any{"mode": string(mode)}))
	if err != nil {
		return "", err
	}
	if isNullish(res) {
		return mode, nil
	}
	granted := res.Get("mode")
	if granted.Type() != js.TypeString {
		return mode, nil
	}
	return bridge.DisplayMode(granted.String()), nil
}

// SetWidgetState implements bridge.WidgetStatePersister.
func (h *Host) SetWidgetState(ctx context.Context, state map[string]any) error {
	v, err := toJS(state)
	if err != nil {
		return fmt.Errorf("setWidgetState: encode state: %w", err)
	}
	_, err = h.await(ctx, bridge.MethodSetWidgetState, v)
	return err
}

// NotifyIntrinsicHeight implements bridge.IntrinsicHeightNotifier.
func (h *Host) NotifyIntrinsicHeight(height float64) {
	obj := h.object()
	if isNullish(obj) || obj.Get(string(bridge.MethodNotifyIntrinsicHeight)).Type() != js.TypeFunction {
		return
	}
	obj.Call(string(bridge.MethodNotifyIntrinsicHeight), height)
}

// RequestModal implements bridge.ModalRequester.
func (h *Host) RequestModal(ctx context.Context, opts bridge.ModalOptions) error {
	v, err := toJS(opts)
	if err != nil {
		return fmt.Errorf("requestModal: encode options: %w", err)
	}
	_, err = h.await(ctx, bridge.MethodRequestModal, v)
	return err
}

// await calls method on window.openai and waits for the returned value. Plain
// return values resolve immediately; promises are awaited.
func (h *Host) await(ctx context.Context, m bridge.Method, args ...any) (js.Value, error) {
	obj := h.object()
	if isNullish(obj) || obj.Get(string(m)).Type() != js.TypeFunction {
		return js.Undefined(), fmt.Errorf("%s: %w", m, bridge.ErrHostUnavailable)
	}

	ret := obj.Call(string(m), args...)
	if ret.Type() != js.TypeObject || ret.Get("then").Type() != js.TypeFunction {
		return ret, nil
	}

	type outcome struct {
		val js.Value
		err error
	}
	done := make(chan outcome, 1)
	onResolve := js.FuncOf(func(_ js.Value, a []js.Value) any {
		v := js.Undefined()
		if len(a) > 0 {
			v = a[0]
		}
		done <- outcome{val: v}
		return nil
	})
	onReject := js.FuncOf(func(_ js.Value, a []js.Value) any {
		reason := "rejected"
		if len(a) > 0 && !isNullish(a[0]) {
			if msg := a[0].Get("message"); msg.Type() == js.TypeString {
				reason = msg.String()
			} else {
				reason = a[0].String()
			}
		}
		done <- outcome{err: &RejectedError{Method: m, Reason: reason}}
		return nil
	})
	ret.Call("then", onResolve, onReject)

	select {
	case out := <-done:
		onResolve.Release()
		onReject.Release()
		return out.val, out.err
	case <-ctx.Done():
		// The callbacks stay registered until the promise settles.
		go func() {
			<-done
			onResolve.Release()
			onReject.Release()
		}()
		return js.Undefined(), ctx.Err()
	}
}

// RejectedError is returned when a host promise rejects.
type RejectedError struct {
	Method bridge.Method
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Method, e.Reason)
}

// IsRejected reports whether err came from a rejected host promise.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}

// Target is the window-level event target for the set-globals event.
type Target struct {
	global js.Value
	event  string
}

// NewTarget returns a Target listening for bridge.SetGlobalsEventType.
func NewTarget() *Target {
	return &Target{global: js.Global(), event: bridge.SetGlobalsEventType}
}

// AddListener implements bridge.EventTarget. The listener receives the
// event's detail converted to Go values; undecodable details are passed as nil.
func (t *Target) AddListener(fn func(detail any)) (remove func()) {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			fn(nil)
			return nil
		}
		detail, err := toGo(args[0].Get("detail"))
		if err != nil {
			detail = nil
		}
		fn(detail)
		return nil
	})
	opts := js.ValueOf(map[string]any{"passive": true})
	t.global.Call("addEventListener", t.event, cb, opts)

	removed := false
	return func() {
		if removed {
			return
		}
		removed = true
		t.global.Call("removeEventListener", t.event, cb)
		cb.Release()
	}
}

func isNullish(v js.Value) bool {
	return v.Type() == js.TypeNull || v.Type() == js.TypeUndefined
}

// toGo converts a JS value to plain Go values through JSON.
func toGo(v js.Value) (any, error) {
	if isNullish(v) {
		return nil, nil
	}
	text := js.Global().Get("JSON").Call("stringify", v)
	if text.Type() != js.TypeString {
		return nil, errors.New("value is not JSON-serializable")
	}
	var out any
	if err := json.Unmarshal([]byte(text.String()), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeInto(v js.Value, dst any) error {
	if isNullish(v) {
		return nil
	}
	text := js.Global().Get("JSON").Call("stringify", v)
	if text.Type() != js.TypeString {
		return errors.New("value is not JSON-serializable")
	}
	return json.Unmarshal([]byte(text.String()), dst)
}

// toJS converts a Go value to a JS value through JSON.
func toJS(v any) (js.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return js.Undefined(), err
	}
	return js.Global().Get("JSON").Call("parse", string(data)), nil
}

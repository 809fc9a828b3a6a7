// methods.go — Wrappers around the host's callable methods.
// Awaited methods report a missing host as ErrHostUnavailable and return host
// errors unchanged. openExternal and notifyIntrinsicHeight are fire-and-forget
// and silently do nothing without a host.
package bridge

import (
	"context"
	"fmt"
)

func unavailable(m Method) error {
	return fmt.Errorf("%s: %w", m, ErrHostUnavailable)
}

// CallTool asks the host to invoke a server tool and returns its response.
func CallTool(ctx context.Context, host Host, name string, args map[string]any) (*CallToolResponse, error) {
	caller, ok := host.(ToolCaller)
	if !ok || !hasMethod(host, MethodCallTool) {
		return nil, unavailable(MethodCallTool)
	}
	if args == nil {
		args = map[string]any{}
	}
	return caller.CallTool(ctx, name, args)
}

// SendFollowUpMessage posts prompt into the conversation as the user.
func SendFollowUpMessage(ctx context.Context, host Host, prompt string) error {
	sender, ok := host.(FollowUpSender)
	if !ok || !hasMethod(host, MethodSendFollowUpMessage) {
		return unavailable(MethodSendFollowUpMessage)
	}
	return sender.SendFollowUpMessage(ctx, prompt)
}

// OpenExternal asks the host to open href. Without a host it does nothing.
func OpenExternal(host Host, href string) {
	opener, ok := host.(ExternalOpener)
	if !ok || !hasMethod(host, MethodOpenExternal) {
		return
	}
	opener.OpenExternal(href)
}

// RequestDisplayMode asks the host for mode and returns the mode it granted,
// which may differ from the one requested.
func RequestDisplayMode(ctx context.Context, host Host, mode DisplayMode) (DisplayMode, error) {
	req, ok := host.(DisplayModeRequester)
	if !ok || !hasMethod(host, MethodRequestDisplayMode) {
		return "", unavailable(MethodRequestDisplayMode)
	}
	return req.RequestDisplayMode(ctx, mode)
}

// SetWidgetState forwards state to the host for persistence. Local state is
// not touched; the host redelivers the value through the set-globals event.
func SetWidgetState(ctx context.Context, host Host, state map[string]any) error {
	p, ok := host.(WidgetStatePersister)
	if !ok || !hasMethod(host, MethodSetWidgetState) {
		return unavailable(MethodSetWidgetState)
	}
	return p.SetWidgetState(ctx, state)
}

// UpdateWidgetState resolves fn against the store's current widget state
// (nil when absent) and persists the result through SetWidgetState.
func UpdateWidgetState(ctx context.Context, store *Store, host Host, fn func(prev map[string]any) map[string]any) error {
	var prev map[string]any
	if store != nil {
		prev = store.Snapshot().WidgetState()
	}
	return SetWidgetState(ctx, host, fn(prev))
}

// NotifyIntrinsicHeight reports the widget's content height in pixels.
// Without a host it does nothing.
func NotifyIntrinsicHeight(host Host, height float64) {
	n, ok := host.(IntrinsicHeightNotifier)
	if !ok || !hasMethod(host, MethodNotifyIntrinsicHeight) {
		return
	}
	n.NotifyIntrinsicHeight(height)
}

// RequestModal asks the host to open the widget in a modal view.
func RequestModal(ctx context.Context, host Host, opts ModalOptions) error {
	r, ok := host.(ModalRequester)
	if !ok || !hasMethod(host, MethodRequestModal) {
		return unavailable(MethodRequestModal)
	}
	return r.RequestModal(ctx, opts)
}

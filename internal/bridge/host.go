// host.go — Host contracts: readable globals, optional methods, event target.
package bridge

import (
	"context"
	"errors"
)

// ErrHostUnavailable is returned by awaited wrappers when the host object, or
// the specific method on it, does not exist.
var ErrHostUnavailable = errors.New("host unavailable")

// Host exposes the readable globals of the host object.
// Global reports ok == false for properties the host never populated.
type Host interface {
	Global(key Key) (any, bool)
}

// Method names a callable on the host object.
type Method string

const (
	MethodCallTool              Method = "callTool"
	MethodSendFollowUpMessage   Method = "sendFollowUpMessage"
	MethodOpenExternal          Method = "openExternal"
	MethodRequestDisplayMode    Method = "requestDisplayMode"
	MethodSetWidgetState        Method = "setWidgetState"
	MethodNotifyIntrinsicHeight Method = "notifyIntrinsicHeight"
	MethodRequestModal          Method = "requestModal"
)

// MethodProber is implemented by hosts whose method set is only known at
// runtime (e.g. a JS object). HasMethod false means the method is absent.
type MethodProber interface {
	HasMethod(m Method) bool
}

// CallToolResponse is the host's structured response to a widget tool call.
// StructuredContent and Meta are opaque; callers assert their shape.
type CallToolResponse struct {
	Content           []ContentBlock `json:"content,omitempty"`
	StructuredContent any            `json:"structuredContent,omitempty"`
	Meta              map[string]any `json:"_meta,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
	Result            string         `json:"result,omitempty"`
}

// ContentBlock is one content item of a tool response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ModalAnchor positions a modal relative to the element that opened it.
type ModalAnchor struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ModalOptions describes a requestModal call.
type ModalOptions struct {
	Title  string         `json:"title"`
	Params map[string]any `json:"params,omitempty"`
	Anchor *ModalAnchor   `json:"anchor,omitempty"`
}

// ToolCaller invokes a server tool on the widget's behalf.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*CallToolResponse, error)
}

// FollowUpSender inserts a user message into the conversation.
type FollowUpSender interface {
	SendFollowUpMessage(ctx context.Context, prompt string) error
}

// ExternalOpener opens a link outside the widget. Fire-and-forget.
type ExternalOpener interface {
	OpenExternal(href string)
}

// DisplayModeRequester asks the host for a layout change and returns the mode
// actually granted.
type DisplayModeRequester interface {
	RequestDisplayMode(ctx context.Context, mode DisplayMode) (DisplayMode, error)
}

// WidgetStatePersister persists widget state with the host.
type WidgetStatePersister interface {
	SetWidgetState(ctx context.Context, state map[string]any) error
}

// IntrinsicHeightNotifier reports the widget's content height. Fire-and-forget.
type IntrinsicHeightNotifier interface {
	NotifyIntrinsicHeight(height float64)
}

// ModalRequester opens a host modal that renders the widget in modal view.
type ModalRequester interface {
	RequestModal(ctx context.Context, opts ModalOptions) error
}

// EventTarget delivers set-globals events. AddListener returns a func that
// removes exactly that listener; calling it more than once is harmless.
// detail is the raw event payload and may be malformed.
type EventTarget interface {
	AddListener(fn func(detail any)) (remove func())
}

// PresenceReporter is implemented by hosts that can tell whether the host
// object is actually there. A nil *T implementing it must report false.
type PresenceReporter interface {
	Present() bool
}

// IsHosted reports whether a host object is present. A non-nil Host that
// implements PresenceReporter is asked; this also covers typed nil pointers.
func IsHosted(host Host) bool {
	if host == nil {
		return false
	}
	if p, ok := host.(PresenceReporter); ok {
		return p.Present()
	}
	return true
}

func hasMethod(host Host, m Method) bool {
	if !IsHosted(host) {
		return false
	}
	if p, ok := host.(MethodProber); ok {
		return p.HasMethod(m)
	}
	return true
}

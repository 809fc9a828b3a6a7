// hooks.go — Typed projections of GlobalState and reactive watching.
package bridge

import (
	"encoding/json"
	"reflect"
)

// Theme is the host color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DisplayMode is the widget layout requested from or granted by the host.
type DisplayMode string

const (
	DisplayModeInline     DisplayMode = "inline"
	DisplayModePiP        DisplayMode = "pip"
	DisplayModeFullscreen DisplayMode = "fullscreen"
)

// Valid reports whether m is a known display mode.
func (m DisplayMode) Valid() bool {
	switch m {
	case DisplayModeInline, DisplayModePiP, DisplayModeFullscreen:
		return true
	}
	return false
}

// DeviceType classifies the user's device.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
	DeviceUnknown DeviceType = "unknown"
)

// UserAgent describes the device the widget is rendered on. Every field is
// nil unless the host sent it; a false capability is a real answer.
type UserAgent struct {
	Device       *UserAgentDevice       `json:"device,omitempty"`
	Capabilities *UserAgentCapabilities `json:"capabilities,omitempty"`
}

// UserAgentDevice is the device part of UserAgent.
type UserAgentDevice struct {
	Type *DeviceType `json:"type,omitempty"`
}

// UserAgentCapabilities are the input capabilities of the device.
type UserAgentCapabilities struct {
	Hover *bool `json:"hover,omitempty"`
	Touch *bool `json:"touch,omitempty"`
}

// DeviceType returns the device type when the host reported one.
func (ua *UserAgent) DeviceType() (DeviceType, bool) {
	if ua == nil || ua.Device == nil || ua.Device.Type == nil {
		return "", false
	}
	return *ua.Device.Type, true
}

// SafeAreaInsets are the pixel insets reserved by notches and rounded
// corners. Insets the host did not send stay nil.
type SafeAreaInsets struct {
	Top    *float64 `json:"top,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
	Left   *float64 `json:"left,omitempty"`
	Right  *float64 `json:"right,omitempty"`
}

// SafeArea wraps the insets as the host reports them.
type SafeArea struct {
	Insets *SafeAreaInsets `json:"insets,omitempty"`
}

// View is the host view the widget is rendered in (e.g. "modal").
type View struct {
	Mode   string         `json:"mode"`
	Params map[string]any `json:"params,omitempty"`
}

// Theme returns the host theme.
func (g GlobalState) Theme() (Theme, bool) {
	s, ok := g.str(KeyTheme)
	return Theme(s), ok
}

// Locale returns the user's locale, e.g. "en-US".
func (g GlobalState) Locale() (string, bool) {
	return g.str(KeyLocale)
}

// DisplayMode returns the current display mode.
func (g GlobalState) DisplayMode() (DisplayMode, bool) {
	s, ok := g.str(KeyDisplayMode)
	return DisplayMode(s), ok
}

// MaxHeight returns the maximum widget height in pixels.
func (g GlobalState) MaxHeight() (float64, bool) {
	v, ok := g.values[KeyMaxHeight]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// UserAgent returns the device description, or nil if the host never
// populated it.
func (g GlobalState) UserAgent() *UserAgent {
	return decodePtr[UserAgent](g, KeyUserAgent)
}

// SafeArea returns the safe-area insets, or nil if the host never populated
// them. A zero inset is a real value, never a stand-in for "unknown".
func (g GlobalState) SafeArea() *SafeArea {
	return decodePtr[SafeArea](g, KeySafeArea)
}

// View returns the current view, or nil.
func (g GlobalState) View() *View {
	return decodePtr[View](g, KeyView)
}

// ToolInput returns the arguments the current tool was invoked with.
func (g GlobalState) ToolInput() map[string]any {
	return g.object(KeyToolInput)
}

// ToolOutput returns the structured content of the tool result.
func (g GlobalState) ToolOutput() map[string]any {
	return g.object(KeyToolOutput)
}

// ToolResponseMetadata returns the _meta of the tool result, which is
// delivered to the widget and hidden from the model.
func (g GlobalState) ToolResponseMetadata() map[string]any {
	return g.object(KeyToolResponseMetadata)
}

// WidgetState returns the persisted widget state.
func (g GlobalState) WidgetState() map[string]any {
	return g.object(KeyWidgetState)
}

// Decode converts the raw value under key into T. The shape is asserted by
// the caller; ok is false when the key is absent, null, or does not decode.
func Decode[T any](g GlobalState, key Key) (T, bool) {
	var out T
	v, ok := g.values[key]
	if !ok || v == nil {
		return out, false
	}
	if typed, ok := v.(T); ok {
		return typed, true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false
	}
	return out, true
}

func decodePtr[T any](g GlobalState, key Key) *T {
	v, ok := Decode[T](g, key)
	if !ok {
		return nil
	}
	return &v
}

func (g GlobalState) str(key Key) (string, bool) {
	v, ok := g.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (g GlobalState) object(key Key) map[string]any {
	m, ok := Decode[map[string]any](g, key)
	if !ok {
		return nil
	}
	return m
}

// Watch evaluates project against the current snapshot, passes the result to
// fn, and calls fn again each time an applied event changes the projected
// value. The initial read and the subscription happen atomically with respect
// to Apply, so no event falls between them. The returned func stops watching.
func Watch[T any](s *Store, project func(GlobalState) T, fn func(T)) (stop func()) {
	var last T
	return s.subscribeFrom(func(g GlobalState) {
		last = project(g)
		fn(last)
	}, func(g GlobalState) {
		next := project(g)
		if reflect.DeepEqual(next, last) {
			return
		}
		last = next
		fn(next)
	})
}

// state.go — GlobalState snapshot, known keys, and change event parsing.
package bridge

import (
	"encoding/json"
	"sort"
)

// SetGlobalsEventType is the name of the custom event the host dispatches on
// the global event target whenever one or more globals change.
const SetGlobalsEventType = "openai:set_globals"

// Key names one of the host globals.
type Key string

const (
	KeyTheme                Key = "theme"
	KeyLocale               Key = "locale"
	KeyUserAgent            Key = "userAgent"
	KeySafeArea             Key = "safeArea"
	KeyDisplayMode          Key = "displayMode"
	KeyMaxHeight            Key = "maxHeight"
	KeyToolInput            Key = "toolInput"
	KeyToolOutput           Key = "toolOutput"
	KeyToolResponseMetadata Key = "toolResponseMetadata"
	KeyWidgetState          Key = "widgetState"
	KeyView                 Key = "view"
)

var knownKeys = []Key{
	KeyTheme,
	KeyLocale,
	KeyUserAgent,
	KeySafeArea,
	KeyDisplayMode,
	KeyMaxHeight,
	KeyToolInput,
	KeyToolOutput,
	KeyToolResponseMetadata,
	KeyWidgetState,
	KeyView,
}

var knownKeySet = func() map[Key]struct{} {
	set := make(map[Key]struct{}, len(knownKeys))
	for _, k := range knownKeys {
		set[k] = struct{}{}
	}
	return set
}()

// KnownKeys returns the fixed set of globals the bridge mirrors.
func KnownKeys() []Key {
	out := make([]Key, len(knownKeys))
	copy(out, knownKeys)
	return out
}

// IsKnown reports whether k is one of the mirrored globals.
func (k Key) IsKnown() bool {
	_, ok := knownKeySet[k]
	return ok
}

// GlobalState is an immutable snapshot of the mirrored globals. A key that is
// absent is distinct from a key holding a zero value or JSON null.
type GlobalState struct {
	values map[Key]any
}

// Get returns the raw value stored under k.
func (g GlobalState) Get(k Key) (any, bool) {
	v, ok := g.values[k]
	return v, ok
}

// Has reports whether k has been populated.
func (g GlobalState) Has(k Key) bool {
	_, ok := g.values[k]
	return ok
}

// Len returns the number of populated keys.
func (g GlobalState) Len() int {
	return len(g.values)
}

// Keys returns the populated keys in sorted order.
func (g GlobalState) Keys() []Key {
	keys := make([]Key, 0, len(g.values))
	for k := range g.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Map returns a copy of the populated values keyed by global name.
func (g GlobalState) Map() map[string]any {
	out := make(map[string]any, len(g.values))
	for k, v := range g.values {
		out[string(k)] = v
	}
	return out
}

// MarshalJSON encodes the populated globals as a flat object.
func (g GlobalState) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Map())
}

// Merge returns a new snapshot with every key of ev overwritten and all other
// keys carried over unchanged. The receiver is not modified.
func (g GlobalState) Merge(ev ChangeEvent) GlobalState {
	next := make(map[Key]any, len(g.values)+len(ev.Globals))
	for k, v := range g.values {
		next[k] = v
	}
	for k, v := range ev.Globals {
		if !k.IsKnown() {
			continue
		}
		next[k] = v
	}
	return GlobalState{values: next}
}

// ChangeEvent is the detail payload of the set-globals event: the keys that
// changed and their new values. Keys not present are unchanged, not cleared.
type ChangeEvent struct {
	Globals map[Key]any `json:"globals"`
}

// ChangedKeys returns the keys carried by the event in sorted order.
func (ev ChangeEvent) ChangedKeys() []Key {
	keys := make([]Key, 0, len(ev.Globals))
	for k := range ev.Globals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ParseChangeEvent extracts a ChangeEvent from an event detail payload.
// Accepted shapes: ChangeEvent, *ChangeEvent, map[string]any with a "globals"
// object, json.RawMessage or []byte holding such an object. Unknown keys are
// dropped. Any other shape reports ok == false.
func ParseChangeEvent(detail any) (ChangeEvent, bool) {
	switch d := detail.(type) {
	case ChangeEvent:
		return filterKnown(d.Globals), d.Globals != nil
	case *ChangeEvent:
		if d == nil || d.Globals == nil {
			return ChangeEvent{}, false
		}
		return filterKnown(d.Globals), true
	case map[string]any:
		globals, ok := d["globals"].(map[string]any)
		if !ok {
			return ChangeEvent{}, false
		}
		ev := ChangeEvent{Globals: make(map[Key]any, len(globals))}
		for name, v := range globals {
			k := Key(name)
			if k.IsKnown() {
				ev.Globals[k] = v
			}
		}
		return ev, true
	case json.RawMessage:
		return parseChangeEventJSON(d)
	case []byte:
		return parseChangeEventJSON(d)
	default:
		return ChangeEvent{}, false
	}
}

func parseChangeEventJSON(data []byte) (ChangeEvent, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ChangeEvent{}, false
	}
	return ParseChangeEvent(raw)
}

func filterKnown(globals map[Key]any) ChangeEvent {
	ev := ChangeEvent{Globals: make(map[Key]any, len(globals))}
	for k, v := range globals {
		if k.IsKnown() {
			ev.Globals[k] = v
		}
	}
	return ev
}

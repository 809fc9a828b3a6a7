// eventlog.go — Bounded log of set-globals events for the events monitor.
package bridge

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultEventLogCapacity is the number of entries kept before the oldest are
// discarded.
const DefaultEventLogCapacity = 100

// EventLogEntry records one delivered change event.
type EventLogEntry struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Globals     map[string]any `json:"globals"`
	ChangedKeys []Key          `json:"changedKeys"`
}

// EventLog keeps the most recent change events, newest first.
type EventLog struct {
	mu       sync.Mutex
	entries  []EventLogEntry
	capacity int
	paused   bool
	now      func() time.Time
}

// NewEventLog creates a log holding at most capacity entries. A capacity
// below 1 uses DefaultEventLogCapacity.
func NewEventLog(capacity int) *EventLog {
	if capacity < 1 {
		capacity = DefaultEventLogCapacity
	}
	return &EventLog{capacity: capacity, now: time.Now}
}

// Record prepends ev unless the log is paused.
func (l *EventLog) Record(ev ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.paused {
		return
	}

	globals := make(map[string]any, len(ev.Globals))
	for k, v := range ev.Globals {
		globals[string(k)] = v
	}
	entry := EventLogEntry{
		ID:          uuid.NewString(),
		Timestamp:   l.now(),
		Globals:     globals,
		ChangedKeys: ev.ChangedKeys(),
	}

	l.entries = append([]EventLogEntry{entry}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
}

// HandleEvent records a raw event payload; malformed payloads are skipped.
func (l *EventLog) HandleEvent(detail any) {
	if ev, ok := ParseChangeEvent(detail); ok {
		l.Record(ev)
	}
}

// Mount subscribes the log to target. The returned func removes the listener.
func (l *EventLog) Mount(target EventTarget) (unmount func()) {
	if target == nil {
		return func() {}
	}
	return target.AddListener(l.HandleEvent)
}

// Entries returns a copy of the log, newest first.
func (l *EventLog) Entries() []EventLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Pause stops recording until Resume.
func (l *EventLog) Pause() {
	l.mu.Lock()
	l.paused = true
	l.mu.Unlock()
}

// Resume restarts recording.
func (l *EventLog) Resume() {
	l.mu.Lock()
	l.paused = false
	l.mu.Unlock()
}

// Paused reports whether recording is paused.
func (l *EventLog) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// Clear drops every entry.
func (l *EventLog) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

// eventlog_test.go — Tests for the bounded events monitor log.
package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLog_CapsAndKeepsNewestFirst(t *testing.T) {
	t.Parallel()
	log := NewEventLog(0)

	for i := 0; i < DefaultEventLogCapacity+25; i++ {
		log.Record(ChangeEvent{Globals: map[Key]any{KeyMaxHeight: float64(i)}})
	}

	entries := log.Entries()
	require.Len(t, entries, DefaultEventLogCapacity)
	assert.Equal(t, float64(DefaultEventLogCapacity+24), entries[0].Globals["maxHeight"])
	assert.Equal(t, 25.0, entries[len(entries)-1].Globals["maxHeight"])
}

func TestEventLog_EntryFields(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	log := NewEventLog(10)
	log.now = func() time.Time { return fixed }

	log.HandleEvent(globals(map[string]any{"theme": "dark", "locale": "en-US"}))
	log.HandleEvent("garbage")

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, fixed, entries[0].Timestamp)
	assert.Equal(t, []Key{KeyLocale, KeyTheme}, entries[0].ChangedKeys)
}

func TestEventLog_PauseResumeClear(t *testing.T) {
	t.Parallel()
	log := NewEventLog(10)
	ev := ChangeEvent{Globals: map[Key]any{KeyTheme: "dark"}}

	log.Pause()
	assert.True(t, log.Paused())
	log.Record(ev)
	assert.Equal(t, 0, log.Len())

	log.Resume()
	log.Record(ev)
	log.Record(ev)
	assert.Equal(t, 2, log.Len())

	entries := log.Entries()
	assert.NotEqual(t, entries[0].ID, entries[1].ID)

	log.Clear()
	assert.Equal(t, 0, log.Len())
}

func TestEventLog_MountIsSymmetric(t *testing.T) {
	t.Parallel()
	tgt := newTarget()
	log := NewEventLog(10)

	unmount := log.Mount(tgt)
	tgt.dispatch(globals(map[string]any{"theme": "dark"}))
	unmount()
	tgt.dispatch(globals(map[string]any{"theme": "light"}))

	assert.Equal(t, 1, log.Len())
	assert.Equal(t, 0, tgt.count())
}

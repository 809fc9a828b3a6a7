// time_test.go — Tests for timestamp helpers.
package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatISO(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("CEST", 2*60*60)
	ts := time.Date(2025, 10, 1, 14, 30, 5, 123456789, loc)
	assert.Equal(t, "2025-10-01T12:30:05.123Z", FormatISO(ts))
	assert.Equal(t, "2025-10-01T12:30:05.000Z", FormatISO(time.Date(2025, 10, 1, 12, 30, 5, 0, time.UTC)))
}

func TestZoneName(t *testing.T) {
	t.Parallel()
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	assert.Equal(t, "Europe/Berlin", ZoneName(time.Date(2025, 1, 1, 0, 0, 0, 0, berlin)))
	assert.Equal(t, "UTC", ZoneName(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "X", ZoneName(time.Date(2025, 1, 1, 0, 0, 0, 0, time.FixedZone("X", 0))))
}

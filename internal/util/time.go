// time.go — Timestamp formatting shared by tool payloads and event logs.
package util

import "time"

// ISOMillis is the layout produced by JavaScript's Date.toISOString.
const ISOMillis = "2006-01-02T15:04:05.000Z"

// FormatISO renders t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}

// ZoneName returns the IANA name of t's location, falling back to the zone
// abbreviation for the process-local zone.
func ZoneName(t time.Time) string {
	name := t.Location().String()
	if name == "Local" || name == "" {
		name, _ = t.Zone()
	}
	return name
}

package model

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayout matches spec §6: "%Y-%m-%dT%H:%M:%S.<3-digit-ms><±HHMM>"
// — milliseconds (not microseconds), timezone offset without a colon.
const timestampLayout = "2006-01-02T15:04:05.000-0700"

// FormatTimestamp renders t in the stand-off format's version-timestamp
// shape.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// ParseTimestamp parses the stand-off format's version-timestamp shape.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// splitVersionName splits a Tagset/Tag "n" attribute of the form
// "<name> <timestamp>" into its two parts, per spec §6.
func splitVersionName(n string) (name, ts string) {
	idx := strings.LastIndex(n, " ")
	if idx < 0 {
		return n, ""
	}
	return n[:idx], n[idx+1:]
}

// Package timeutil converts between stored UTC timestamps and the fixed
// +05:30 local offset used for display and for the published-at stamp.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Offset is the fixed local offset applied to all display timestamps.
// There is no daylight saving and no timezone database lookup.
const Offset = 5*time.Hour + 30*time.Minute

// NotAvailable is returned by DisplayLocal for missing or malformed input.
const NotAvailable = "N/A"

const (
	// UTCLayout matches the stored scheduledAt format (millisecond precision, Z suffix).
	UTCLayout = "2006-01-02T15:04:05.000Z"
	// UTCSecondsLayout is used for second-granularity range bounds.
	UTCSecondsLayout = "2006-01-02T15:04:05Z"
	// LocalLayout renders an instant at the fixed offset, e.g. 2025-01-01T05:30:00.000+05:30.
	LocalLayout = "2006-01-02T15:04:05.000-07:00"
)

// Zone is the fixed +05:30 location.
var Zone = time.FixedZone("UTC+05:30", int(Offset/time.Second))

// ErrEmptyTimestamp is returned when a timestamp string is blank.
var ErrEmptyTimestamp = errors.New("timestamp is empty")

// Layouts tried in order. Layouts without an offset are resolved against the
// location passed to parseIn.
var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ToLocal shifts an instant into the fixed local offset.
func ToLocal(t time.Time) time.Time {
	return t.In(Zone)
}

// ToUTC returns the same instant in UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// FormatUTC renders t in the stored UTC format.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(UTCLayout)
}

// FormatLocal renders t at the fixed local offset.
func FormatLocal(t time.Time) string {
	return ToLocal(t).Format(LocalLayout)
}

// CeilSecond formats the first whole UTC second at or after t. Any stored
// timestamp at or before t sorts lexicographically at or before the result,
// whether or not it carries fractional seconds.
func CeilSecond(t time.Time) string {
	t = t.UTC()
	ceil := t.Truncate(time.Second)
	if ceil.Before(t) {
		ceil = ceil.Add(time.Second)
	}
	return ceil.Format(UTCSecondsLayout)
}

// ParseTimestamp parses an ISO-8601 string and returns the UTC instant.
// Strings without an offset are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	return parseIn(s, time.UTC)
}

// LocalToUTC parses a local display string and returns the UTC instant.
// Strings without an offset are read at the fixed local offset.
func LocalToUTC(s string) (time.Time, error) {
	return parseIn(s, Zone)
}

// DisplayLocal renders a stored timestamp for display at the local offset.
// It never fails: blank or unparsable input yields NotAvailable.
func DisplayLocal(s string) string {
	t, err := ParseTimestamp(s)
	if err != nil {
		return NotAvailable
	}
	return FormatLocal(t)
}

func parseIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyTimestamp
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

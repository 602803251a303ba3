// Package timefmt normalizes server timestamps and formats durations.
package timefmt

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Layouts for timestamps without a zone. Fractional seconds are accepted by
// time.Parse even when the layout omits them.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
}

// ParseServerTime converts a server timestamp into an instant.
//
// An empty value yields now; it keeps callers from crashing but is never
// authoritative. Values without a zone marker are UTC: the job service emits
// naive UTC strings.
func ParseServerTime(value string, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return now, nil
	}

	if HasZone(v) {
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("parse timestamp %q: unrecognized zoned format", value)
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unrecognized format", value)
}

// HasZone reports whether v carries a zone marker: a trailing Z or a +/-
// offset after the date portion.
func HasZone(v string) bool {
	if strings.HasSuffix(v, "Z") || strings.HasSuffix(v, "z") {
		return true
	}
	if len(v) <= len("2006-01-02") {
		return false
	}
	return strings.ContainsAny(v[len("2006-01-02"):], "+-")
}

// Elapsed returns the whole seconds from start to now. A negative difference
// (clock skew or a misparsed string) is clamped to zero and reported.
func Elapsed(start, now time.Time) (seconds int, clamped bool) {
	d := now.Sub(start)
	if d < 0 {
		return 0, true
	}
	return int(d / time.Second), false
}

// FormatDuration renders whole seconds as "45s", "3m 12s" or "2h 5m".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}

// FormatSeconds floors a fractional duration and formats it.
func FormatSeconds(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		return FormatDuration(0)
	}
	return FormatDuration(int(math.Floor(seconds)))
}

// Relative renders an age with day granularity: "2d 3h", "4h 10m", "5m 2s", "9s".
func Relative(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// Submitted renders a submission time: clock time within the last day,
// otherwise month, day and clock time.
func Submitted(t, now time.Time, loc *time.Location) string {
	local := t.In(location(loc))
	if now.Sub(t) < 24*time.Hour {
		return local.Format("15:04")
	}
	return local.Format("Jan 2 15:04")
}

// Detailed renders a timestamp for timeline tables.
func Detailed(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format("Jan 2 15:04:05")
}

// Clock renders the time of day for log lines.
func Clock(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format("15:04:05")
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

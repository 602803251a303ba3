package tail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/timefmt"
)

// Line is a log entry ready for display.
type Line struct {
	Time    string
	Level   string
	Message string
}

// Sanitize removes terminal escape sequences and control characters from a
// server-supplied message. Tabs are kept.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return r
		case r == '\n' || r == '\r':
			return ' '
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0):
			return -1
		default:
			return r
		}
	}, s)
}

// FormatLine renders an entry's clock time in loc and escapes its message.
// Unparseable timestamps are shown as-is.
func FormatLine(e api.LogEntry, now time.Time, loc *time.Location) Line {
	clock := Sanitize(e.Timestamp)
	if t, err := timefmt.ParseServerTime(e.Timestamp, now); err == nil {
		clock = timefmt.Clock(t, loc)
	}
	return Line{Time: clock, Level: Sanitize(e.Level), Message: Sanitize(e.Message)}
}

// Lines formats entries in server order.
func Lines(entries []api.LogEntry, now time.Time, loc *time.Location) []Line {
	out := make([]Line, len(entries))
	for i, e := range entries {
		out[i] = FormatLine(e, now, loc)
	}
	return out
}

// String renders the plain-text form used for copying.
func (l Line) String() string {
	return fmt.Sprintf("%s %-8s %s", l.Time, l.Level, l.Message)
}

// ExportText renders entries as the plain-text log export.
func ExportText(jobID string, entries []api.LogEntry, now time.Time, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Job %s Logs ===\n", jobID)
	fmt.Fprintf(&b, "Exported: %s\n", now.In(locOrLocal(loc)).Format("Jan 2, 2006 15:04:05"))
	fmt.Fprintf(&b, "Total log entries: %d\n", len(entries))
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")
	for i, l := range Lines(entries, now, loc) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.String())
	}
	return b.String()
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

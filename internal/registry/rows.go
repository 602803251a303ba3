package registry

import (
	"fmt"
	"time"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/phase"
	"github.com/jwulff/jobwatch/internal/timeline"
)

// Row is the presentation-ready form of one job in the list.
type Row struct {
	ID        string
	Status    phase.Phase
	Display   string
	Icon      string
	Track     string
	Submitted string
	Duration  string
	Age       string
	Segments  []timeline.Segment
	Chips     []timeline.Chip
	CanRetry  bool
	ReviewURL string
	Failed    bool
}

// TrackName is the "artist - title" line, or a placeholder.
func TrackName(j api.Job) string {
	switch {
	case j.Artist != "" && j.Title != "":
		return j.Artist + " - " + j.Title
	case j.URL != "":
		return "URL Processing"
	default:
		return "Unknown Track"
	}
}

// BuildRows formats jobs in the given order. A job whose formatting panics
// gets a placeholder row; the other rows are unaffected.
func BuildRows(jobs []api.Job, f timeline.Formatter, now time.Time) []Row {
	rows := make([]Row, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, buildRow(j, f, now))
	}
	return rows
}

func buildRow(j api.Job, f timeline.Formatter, now time.Time) (row Row) {
	defer func() {
		if r := recover(); r != nil {
			if f.Log != nil {
				f.Log.Error("format job row", "job", j.ID, "panic", fmt.Sprint(r))
			}
			row = Row{
				ID:        j.ID,
				Status:    j.Status,
				Display:   phase.Display(j.Status),
				Icon:      phase.Lookup(j.Status).Icon,
				Track:     timeline.Unknown,
				Submitted: timeline.Unknown,
				Duration:  timeline.TimeError,
				Age:       timeline.TimeError,
				Failed:    true,
			}
		}
	}()

	info := phase.Lookup(j.Status)
	return Row{
		ID:        j.ID,
		Status:    j.Status,
		Display:   info.Display,
		Icon:      info.Icon,
		Track:     TrackName(j),
		Submitted: f.Submitted(j, now),
		Duration:  f.TotalDuration(j, now),
		Age:       f.DurationWithStatus(j, now),
		Segments:  timeline.Build(j),
		Chips:     timeline.TopPhases(j.TimelineSummary, 4),
		CanRetry:  j.Status == phase.Error,
		ReviewURL: j.ReviewURL,
	}
}

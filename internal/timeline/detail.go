package timeline

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/phase"
	"github.com/jwulff/jobwatch/internal/timefmt"
)

// DegradedNote is shown for jobs that predate phase tracking.
const DegradedNote = "This job was created before detailed timeline tracking was implemented."

// Card is one headline figure of the detailed view.
type Card struct {
	Label string
	Value string
}

// Bar is one record of the phase chart.
type Bar struct {
	Phase    phase.Phase
	Name     string
	Duration string
	Color    string
	Width    float64
	Active   bool
}

// Row is one line of the phase table.
type Row struct {
	Phase    phase.Phase
	Name     string
	Started  string
	Ended    string
	Duration string
	State    string
	Color    string
	Active   bool
}

// Detail is the view model of the detailed timeline.
type Detail struct {
	JobID       string
	Heading     string
	Cards       []Card
	Bars        []Bar
	Rows        []Row
	Transitions []Transition
	Degraded    bool
	Note        string
}

// Detail builds the full view from a timeline response.
func (f Formatter) Detail(jobID string, resp api.TimelineResponse, now time.Time) Detail {
	d := Detail{
		JobID:   jobID,
		Heading: heading(resp.Artist, resp.Title),
	}

	metrics := api.PerformanceMetrics{}
	if resp.PerformanceMetrics != nil {
		metrics = *resp.PerformanceMetrics
	}
	total := metrics.TotalProcessingTime
	if total == "" {
		total = "0s"
	}
	d.Cards = []Card{
		{Label: "Total Time", Value: total},
		{Label: "Phases Complete", Value: strconv.Itoa(metrics.PhasesCompleted)},
		{Label: "Current Status", Value: phase.Display(resp.CurrentStatus)},
	}
	if metrics.EstimatedRemaining != "" {
		d.Cards = append(d.Cards, Card{Label: "Est. Remaining", Value: metrics.EstimatedRemaining})
	}

	totalSecs := 1.0
	if resp.TimelineSummary != nil && resp.TimelineSummary.TotalDurationSeconds > 0 {
		totalSecs = resp.TimelineSummary.TotalDurationSeconds
	}
	for _, r := range resp.Timeline {
		d.Bars = append(d.Bars, bar(r, totalSecs))
		d.Rows = append(d.Rows, f.row(r, now))
	}
	d.Transitions = SignificantTransitions(resp.PhaseTransitions)
	return d
}

func bar(r api.PhaseRecord, total float64) Bar {
	info := phase.Lookup(r.Status)
	b := Bar{
		Phase:  r.Status,
		Name:   info.Icon + " " + info.Display,
		Color:  info.Color,
		Active: r.Active(),
	}
	var width float64
	switch {
	case r.DurationSeconds != nil && *r.DurationSeconds > 0:
		width = *r.DurationSeconds / total * 100
		b.Duration = timefmt.FormatSeconds(*r.DurationSeconds)
	case b.Active:
		width = 10
		b.Duration = "In Progress"
	default:
		b.Duration = Unknown
	}
	b.Width = math.Max(width, 5)
	return b
}

func (f Formatter) row(r api.PhaseRecord, now time.Time) Row {
	info := phase.Lookup(r.Status)
	row := Row{
		Phase:   r.Status,
		Name:    info.Icon + " " + info.Display,
		Started: f.detailed(r.StartedAt, now),
		Color:   info.Color,
		Active:  r.Active(),
	}
	if row.Active {
		row.Ended = "In Progress"
		row.State = "Active"
	} else {
		row.Ended = f.detailed(r.EndedAt, now)
		row.State = "Complete"
	}
	if r.DurationSeconds != nil && *r.DurationSeconds > 0 {
		row.Duration = timefmt.FormatSeconds(*r.DurationSeconds)
	} else {
		row.Duration = "In Progress"
	}
	return row
}

func (f Formatter) detailed(v string, now time.Time) string {
	t, err := timefmt.ParseServerTime(v, now)
	if err != nil {
		f.log().Warn("unparseable phase time", "value", v, "error", err)
		return TimeError
	}
	return timefmt.Detailed(t, f.Loc)
}

// Degraded builds the one-phase view for a job without a usable timeline.
func (f Formatter) Degraded(job api.Job, now time.Time) Detail {
	duration := f.TotalDuration(job, now)
	d := Detail{
		JobID:   job.ID,
		Heading: heading(job.Artist, job.Title),
		Cards: []Card{
			{Label: "Total Time", Value: duration},
			{Label: "Current Status", Value: phase.Display(job.Status)},
			{Label: "Progress", Value: fmt.Sprintf("%d%%", job.Percent())},
		},
		Degraded: true,
		Note:     DegradedNote,
	}
	info := phase.Lookup(job.Status)
	d.Rows = []Row{{
		Phase:    job.Status,
		Name:     info.Icon + " " + info.Display,
		Started:  f.Submitted(job, now),
		Ended:    "In Progress",
		Duration: duration,
		State:    "Active",
		Color:    info.Color,
		Active:   true,
	}}
	if job.CreatedAt != "" {
		d.Cards = append(d.Cards, Card{Label: "Created", Value: f.detailed(job.CreatedAt, now)})
	}
	return d
}

func heading(artist, title string) string {
	if artist == "" {
		artist = Unknown
	}
	if title == "" {
		title = Unknown
	}
	return "Timeline for " + artist + " - " + title
}

// Source is the part of the API client the detailed view needs.
type Source interface {
	GetTimeline(ctx context.Context, id string) (api.TimelineResponse, error)
	GetJob(ctx context.Context, id string) (api.Job, error)
}

// Load fetches the detailed timeline, falling back to the plain job and a
// degraded view when the timeline endpoint fails.
func (f Formatter) Load(ctx context.Context, src Source, id string, now time.Time) (Detail, error) {
	resp, err := src.GetTimeline(ctx, id)
	if err == nil {
		return f.Detail(id, resp, now), nil
	}
	f.log().Warn("timeline endpoint failed, falling back to job", "job", id, "error", err)

	job, jobErr := src.GetJob(ctx, id)
	if jobErr != nil {
		return Detail{}, fmt.Errorf("load timeline: %w", err)
	}
	return f.Degraded(job, now), nil
}

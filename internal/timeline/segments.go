// Package timeline turns a job's phase history and summary into the segment
// model behind its progress bar and the detailed timeline view.
package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/phase"
	"github.com/jwulff/jobwatch/internal/timefmt"
)

// Minimum widths, in percent.
const (
	MinPhaseWidth     = 8.0  // recorded phase in the summary path
	MinUpcomingPool   = 10.0 // space shared by upcoming placeholders
	MinFallbackActive = 15.0 // active segment in the progress-only path
)

// Segment is one region of a progress bar.
type Segment struct {
	Phase     phase.Phase
	Label     string
	Caption   string
	Tooltip   string
	Color     string
	Width     float64 // percent of the bar
	Active    bool
	Completed bool
	Upcoming  bool
	Next      bool
	Remaining bool
}

// Build returns the progress bar segments for job. It prefers the summary
// when the service provided phase durations and falls back to the bare
// progress value otherwise.
func Build(job api.Job) []Segment {
	if job.TimelineSummary != nil && job.TimelineSummary.PhaseDurations != nil {
		if segs := fromSummary(job); len(segs) > 0 {
			return segs
		}
	}
	return fromProgress(job)
}

func fromSummary(job api.Job) []Segment {
	summary := job.TimelineSummary
	total := summary.TotalDurationSeconds
	if total <= 0 {
		total = 1
	}

	var segs []Segment
	var accumulated float64
	for _, p := range phase.Canonical {
		d := summary.PhaseDurations[p]
		if d <= 0 {
			continue
		}
		info := phase.Lookup(p)
		width := math.Max(d/total*100, MinPhaseWidth)
		segs = append(segs, Segment{
			Phase:     p,
			Label:     info.ShortLabel,
			Caption:   timefmt.FormatSeconds(d),
			Tooltip:   fmt.Sprintf("%s: %s", info.Label, timefmt.FormatSeconds(d)),
			Color:     phase.Color(p, false),
			Width:     width,
			Active:    job.Status == p,
			Completed: endedRecord(job.Timeline, p),
		})
		accumulated += width
	}

	var upcoming []phase.Phase
	for _, p := range phase.Canonical {
		if summary.PhaseDurations[p] <= 0 && phase.ShouldShow(p, job.Status) {
			upcoming = append(upcoming, p)
		}
	}

	if len(upcoming) == 0 {
		return stretch(segs, accumulated)
	}

	// Each placeholder keeps the per-phase floor even when recorded phases
	// already fill the bar.
	pool := math.Max(100-accumulated, MinUpcomingPool)
	pool = math.Max(pool, MinPhaseWidth*float64(len(upcoming)))
	each := pool / float64(len(upcoming))
	for _, p := range upcoming {
		info := phase.Lookup(p)
		segs = append(segs, Segment{
			Phase:    p,
			Label:    info.ShortLabel,
			Caption:  "Pending",
			Tooltip:  info.Label + ": Pending",
			Color:    phase.Color(p, true),
			Width:    each,
			Upcoming: true,
			Next:     phase.IsNext(p, job.Status),
		})
	}
	return segs
}

// stretch scales recorded segments up so a bar with nothing pending still
// spans the full width. Scaling up keeps every segment above its floor.
func stretch(segs []Segment, accumulated float64) []Segment {
	if accumulated <= 0 || accumulated >= 100 {
		return segs
	}
	factor := 100 / accumulated
	for i := range segs {
		segs[i].Width *= factor
	}
	return segs
}

func fromProgress(job api.Job) []Segment {
	progress := job.Percent()

	info := phase.Lookup(job.Status)
	if !phase.Known(job.Status) {
		info = phase.Lookup(phase.Canonical[0])
	}

	segs := []Segment{{
		Phase:   job.Status,
		Label:   info.ShortLabel,
		Caption: fmt.Sprintf("%d%%", progress),
		Tooltip: fmt.Sprintf("%s: %d%%", info.Label, progress),
		Color:   phase.Color(job.Status, false),
		Width:   math.Max(float64(progress), MinFallbackActive),
		Active:  true,
	}}
	if progress < 100 {
		rest := 100 - progress
		segs = append(segs, Segment{
			Label:     phase.RemainingLabel,
			Caption:   fmt.Sprintf("%d%%", rest),
			Tooltip:   fmt.Sprintf("%s: %d%%", phase.RemainingLabel, rest),
			Color:     phase.NeutralColor,
			Width:     float64(rest),
			Upcoming:  true,
			Remaining: true,
		})
	}
	return segs
}

func endedRecord(records []api.PhaseRecord, p phase.Phase) bool {
	for _, r := range records {
		if r.Status == p && !r.Active() {
			return true
		}
	}
	return false
}

// TotalWidth sums segment widths.
func TotalWidth(segs []Segment) float64 {
	var sum float64
	for _, s := range segs {
		sum += s.Width
	}
	return sum
}

// Chip is one entry of the compact per-job timeline.
type Chip struct {
	Phase    phase.Phase
	Icon     string
	Duration string
	Color    string
	Seconds  float64
}

// TopPhases returns up to n phases from the summary, longest first.
func TopPhases(summary *api.TimelineSummary, n int) []Chip {
	if summary == nil || len(summary.PhaseDurations) == 0 || n <= 0 {
		return nil
	}
	chips := make([]Chip, 0, len(summary.PhaseDurations))
	for p, d := range summary.PhaseDurations {
		chips = append(chips, Chip{
			Phase:    p,
			Icon:     phase.Lookup(p).Icon,
			Duration: timefmt.FormatSeconds(d),
			Color:    phase.Color(p, false),
			Seconds:  d,
		})
	}
	sort.SliceStable(chips, func(i, j int) bool {
		if chips[i].Seconds != chips[j].Seconds {
			return chips[i].Seconds > chips[j].Seconds
		}
		return chips[i].Phase < chips[j].Phase
	})
	if len(chips) > n {
		chips = chips[:n]
	}
	return chips
}

// Transition is an idle gap worth showing.
type Transition struct {
	From, To phase.Phase
	Gap      string
	Seconds  float64
}

// SignificantTransitions keeps gaps longer than one second; shorter gaps are
// measurement noise.
func SignificantTransitions(in []api.PhaseTransition) []Transition {
	var out []Transition
	for _, t := range in {
		if t.TransitionDurationSeconds <= 1 {
			continue
		}
		out = append(out, Transition{
			From:    t.FromStatus,
			To:      t.ToStatus,
			Gap:     timefmt.FormatSeconds(t.TransitionDurationSeconds),
			Seconds: t.TransitionDurationSeconds,
		})
	}
	return out
}

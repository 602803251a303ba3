package timeline

import (
	"time"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/logger"
	"github.com/jwulff/jobwatch/internal/phase"
	"github.com/jwulff/jobwatch/internal/timefmt"
)

// Placeholders shown when a job's times cannot be determined.
const (
	Unknown   = "Unknown"
	TimeError = "Error"
)

// Formatter renders per-job times. Failures degrade to placeholders for the
// one job and are logged, never returned.
type Formatter struct {
	Loc *time.Location
	Log *logger.Logger
}

func (f Formatter) log() *logger.Logger {
	if f.Log == nil {
		return logger.Nop()
	}
	return f.Log
}

// StartValue returns the raw timestamp a job's clock starts from: the first
// timeline record, then created_at.
func StartValue(job api.Job) string {
	if len(job.Timeline) > 0 && job.Timeline[0].StartedAt != "" {
		return job.Timeline[0].StartedAt
	}
	return job.CreatedAt
}

// EffectiveStart is the instant used for ordering. Jobs with no usable
// timestamp sort as if started at the zero time.
func EffectiveStart(job api.Job) time.Time {
	v := StartValue(job)
	if v == "" {
		return time.Time{}
	}
	t, err := timefmt.ParseServerTime(v, time.Time{})
	if err != nil {
		return time.Time{}
	}
	return t
}

// TotalDuration is the "how long has this job existed" string.
func (f Formatter) TotalDuration(job api.Job, now time.Time) string {
	if s := job.TimelineSummary; s != nil && s.TotalDurationFormatted != "" {
		return s.TotalDurationFormatted
	}
	v := StartValue(job)
	if v == "" {
		return Unknown
	}
	start, err := timefmt.ParseServerTime(v, now)
	if err != nil {
		f.log().Warn("unparseable start time", "job", job.ID, "value", v, "error", err)
		return TimeError
	}
	secs, clamped := timefmt.Elapsed(start, now)
	if clamped {
		f.log().Warn("negative duration clamped",
			"job", job.ID,
			"start", start.UTC().Format(time.RFC3339),
			"now", now.UTC().Format(time.RFC3339),
			"raw", v,
			"zone", now.Location().String())
	}
	return timefmt.FormatDuration(secs)
}

// Submitted renders when the job was submitted.
func (f Formatter) Submitted(job api.Job, now time.Time) string {
	v := StartValue(job)
	if v == "" {
		return Unknown
	}
	t, err := timefmt.ParseServerTime(v, now)
	if err != nil {
		f.log().Warn("unparseable submit time", "job", job.ID, "value", v, "error", err)
		return TimeError
	}
	return timefmt.Submitted(t, now, f.Loc)
}

// DurationWithStatus renders the job's age from created_at with a
// status-dependent suffix, e.g. "⏳ 4m 2s running".
func (f Formatter) DurationWithStatus(job api.Job, now time.Time) string {
	age := Unknown
	if job.CreatedAt != "" {
		start, err := timefmt.ParseServerTime(job.CreatedAt, now)
		switch {
		case err != nil:
			f.log().Warn("unparseable created_at", "job", job.ID, "value", job.CreatedAt, "error", err)
			age = TimeError
		default:
			secs, clamped := timefmt.Elapsed(start, now)
			if clamped {
				f.log().Warn("negative age clamped", "job", job.ID, "raw", job.CreatedAt)
			}
			age = timefmt.Relative(secs)
		}
	}

	switch job.Status {
	case phase.Queued:
		return "⏱️ " + age + " waiting"
	case phase.ProcessingAudio, phase.Transcribing, phase.Rendering:
		return "⏳ " + age + " running"
	case phase.AwaitingReview:
		return "⏸️ " + age + " awaiting review"
	case phase.Complete:
		return "✅ " + age + " total"
	case phase.Error:
		return "❌ " + age + " before error"
	default:
		return "📅 " + age
	}
}

// Package tail implements the live log tail for a single job: concurrent
// status and log fetches, selection-aware updates, auto-scroll and the log
// font scale.
package tail

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/logger"
	"github.com/jwulff/jobwatch/internal/notify"
	"github.com/jwulff/jobwatch/internal/phase"
)

// LogRegion names the log display area for SelectionProbe queries.
const LogRegion = "tail-logs"

// SelectionSuffix marks a title updated while log content was held back.
const SelectionSuffix = " [Selection Active]"

// SelectionProbe is implemented by the renderer.
type SelectionProbe interface {
	// SelectionIntersects reports whether a non-empty user selection lies
	// within region.
	SelectionIntersects(region string) bool
}

// Fetcher is the part of the API client a tail needs.
type Fetcher interface {
	GetJob(ctx context.Context, id string) (api.Job, error)
	GetLogs(ctx context.Context, id string) ([]api.LogEntry, error)
}

// Tick identifies one fetch round of one session.
type Tick struct {
	JobID      string
	Generation uint64
	Seq        uint64
}

// Result is the joined outcome of one tick's two requests.
type Result struct {
	Tick
	Job  api.Job
	Logs []api.LogEntry
	Err  error
}

// Outcome says what Apply did with a result.
type Outcome int

const (
	Dropped Outcome = iota
	Failed
	TitleOnly
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Dropped:
		return "dropped"
	case Failed:
		return "failed"
	case TitleOnly:
		return "title-only"
	case Updated:
		return "updated"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Update is returned by Apply.
type Update struct {
	Outcome        Outcome
	ScrollToBottom bool
}

// Session is the state of the one active tail.
type Session struct {
	JobID      string
	Generation uint64
	AutoScroll bool
	Title      string
	Status     phase.Phase
	Progress   int
	Entries    []api.LogEntry
	Loaded     bool
	Err        error
	// Held is true when the last tick skipped content because of a selection.
	Held bool

	nextSeq uint64
	lastSeq uint64
	failing bool
}

// Controller owns the active tail session. At most one session exists; the
// font preference outlives sessions.
type Controller struct {
	Source Fetcher
	Notify notify.Sink
	Log    *logger.Logger

	font    int
	session *Session
}

// NewController creates a controller with the named initial font size.
func NewController(src Fetcher, sink notify.Sink, log *logger.Logger, font string) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{Source: src, Notify: sink, Log: log, font: FontIndex(font)}
}

// Start replaces any previous session with a fresh one for jobID. The new
// session has auto-scroll on and no content.
func (c *Controller) Start(jobID string, generation uint64) *Session {
	if c.session != nil {
		c.Log.Debug("tail session replaced", "from", c.session.JobID, "to", jobID)
	}
	c.session = &Session{
		JobID:      jobID,
		Generation: generation,
		AutoScroll: true,
		Title:      "Log Tail - Job " + jobID,
	}
	return c.session
}

// Stop detaches the active session.
func (c *Controller) Stop() {
	c.session = nil
}

// Session returns the active session, or nil.
func (c *Controller) Session() *Session { return c.session }

// Active reports whether a session is open.
func (c *Controller) Active() bool { return c.session != nil }

// NextTick allocates the next fetch round for the active session.
func (c *Controller) NextTick() (Tick, bool) {
	s := c.session
	if s == nil {
		return Tick{}, false
	}
	s.nextSeq++
	return Tick{JobID: s.JobID, Generation: s.Generation, Seq: s.nextSeq}, true
}

// Fetch issues the status and log requests concurrently. It touches no
// session state and is safe to run off the UI loop.
func (c *Controller) Fetch(ctx context.Context, tk Tick) Result {
	res := Result{Tick: tk}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		job, err := c.Source.GetJob(gctx, tk.JobID)
		if err != nil {
			return err
		}
		res.Job = job
		return nil
	})
	g.Go(func() error {
		logs, err := c.Source.GetLogs(gctx, tk.JobID)
		if err != nil {
			return err
		}
		res.Logs = logs
		return nil
	})
	if err := g.Wait(); err != nil {
		res.Err = err
		res.Job, res.Logs = api.Job{}, nil
	}
	return res
}

// Apply folds a fetch result into the active session. Results for another
// session, or older than one already applied, are dropped.
func (c *Controller) Apply(res Result, probe SelectionProbe) Update {
	s := c.session
	if s == nil || res.Generation != s.Generation || res.JobID != s.JobID {
		c.Log.Debug("tail result for closed session dropped", "job", res.JobID, "gen", res.Generation)
		return Update{Outcome: Dropped}
	}
	if res.Seq <= s.lastSeq {
		c.Log.Debug("stale tail result dropped", "job", res.JobID, "seq", res.Seq, "last", s.lastSeq)
		return Update{Outcome: Dropped}
	}
	s.lastSeq = res.Seq

	if res.Err != nil {
		s.Err = res.Err
		if !s.failing {
			s.failing = true
			c.Log.Warn("tail fetch failed", "job", s.JobID, "error", res.Err)
			if c.Notify != nil {
				c.Notify.Notify(notify.Error, "Failed to load logs: "+res.Err.Error())
			}
		}
		return Update{Outcome: Failed}
	}
	if s.failing {
		c.Log.Info("tail fetch recovered", "job", s.JobID)
	}
	s.failing = false
	s.Err = nil
	s.Status = res.Job.Status
	s.Progress = res.Job.Percent()
	s.Title = Title(s.JobID, res.Job)

	if probe != nil && probe.SelectionIntersects(LogRegion) {
		s.Title += SelectionSuffix
		s.Held = true
		return Update{Outcome: TitleOnly}
	}

	s.Held = false
	s.Entries = res.Logs
	s.Loaded = true
	return Update{Outcome: Updated, ScrollToBottom: s.AutoScroll}
}

// Title renders the status line for a tail.
func Title(jobID string, job api.Job) string {
	return fmt.Sprintf("Log Tail - Job %s - %s (%d%%)", jobID, phase.Display(job.Status), job.Percent())
}

// ToggleAutoScroll flips auto-scroll for the active session and returns the
// new value. Enabling it should scroll to the bottom right away.
func (c *Controller) ToggleAutoScroll() bool {
	if c.session == nil {
		return false
	}
	c.session.AutoScroll = !c.session.AutoScroll
	return c.session.AutoScroll
}

// Font returns the current log font size.
func (c *Controller) Font() FontSize { return FontScale[c.font] }

// StepFont moves along the font scale, clamped at its ends.
func (c *Controller) StepFont(delta int) FontSize {
	c.font += delta
	if c.font < 0 {
		c.font = 0
	}
	if c.font > len(FontScale)-1 {
		c.font = len(FontScale) - 1
	}
	return FontScale[c.font]
}

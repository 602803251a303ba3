package registry

import (
	"context"
	"time"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/logger"
	"github.com/jwulff/jobwatch/internal/notify"
)

// Lister fetches the full job collection.
type Lister interface {
	ListJobs(ctx context.Context) (map[string]api.Job, error)
}

// Poller refreshes a Registry from the job service.
type Poller struct {
	Source   Lister
	Registry *Registry
	Notify   notify.Sink
	Log      *logger.Logger
	Now      func() time.Time
}

func (p *Poller) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// Fetch issues one GET /jobs. It does not touch the registry, so it can run
// off the UI loop.
func (p *Poller) Fetch(ctx context.Context) (map[string]api.Job, error) {
	return p.Source.ListJobs(ctx)
}

// Apply installs a fetch result. On failure the registry is left untouched
// and exactly one error notification is emitted.
func (p *Poller) Apply(jobs map[string]api.Job, err error) error {
	if err != nil {
		if p.Log != nil {
			p.Log.Warn("registry poll failed", "error", err)
		}
		if p.Notify != nil {
			p.Notify.Notify(notify.Error, "Failed to load jobs: "+err.Error())
		}
		return err
	}
	p.Registry.Replace(jobs, p.now())
	if p.Log != nil {
		p.Log.Debug("registry replaced", "jobs", len(jobs))
	}
	return nil
}

// Poll fetches and applies in one step.
func (p *Poller) Poll(ctx context.Context) error {
	jobs, err := p.Fetch(ctx)
	return p.Apply(jobs, err)
}

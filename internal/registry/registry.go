// Package registry keeps the local snapshot of all known jobs and derives
// aggregate counts and display rows from it.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/phase"
	"github.com/jwulff/jobwatch/internal/timeline"
)

// Stats are job counts by status class. They are derived from the full
// snapshot and never adjusted incrementally.
type Stats struct {
	Processing     int
	AwaitingReview int
	Complete       int
	Error          int
	Total          int
}

// ComputeStats counts jobs by status class. Queued and rendering jobs count
// as processing.
func ComputeStats(jobs map[string]api.Job) Stats {
	s := Stats{Total: len(jobs)}
	for _, j := range jobs {
		switch j.Status {
		case phase.Queued, phase.ProcessingAudio, phase.Transcribing, phase.Rendering:
			s.Processing++
		case phase.AwaitingReview:
			s.AwaitingReview++
		case phase.Complete:
			s.Complete++
		case phase.Error:
			s.Error++
		}
	}
	return s
}

// Registry is the local copy of all known jobs. Each successful poll
// replaces it wholesale.
type Registry struct {
	mu      sync.RWMutex
	jobs    map[string]api.Job
	stats   Stats
	updated time.Time
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{jobs: map[string]api.Job{}}
}

// Replace swaps in a new snapshot and recomputes stats from it.
func (r *Registry) Replace(jobs map[string]api.Job, at time.Time) {
	snap := make(map[string]api.Job, len(jobs))
	for id, j := range jobs {
		j.ID = id
		snap[id] = j
	}
	stats := ComputeStats(snap)

	r.mu.Lock()
	r.jobs = snap
	r.stats = stats
	r.updated = at
	r.mu.Unlock()
}

// Stats returns the counts for the current snapshot.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Updated returns when the current snapshot was installed.
func (r *Registry) Updated() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updated
}

// Get returns one job from the snapshot.
func (r *Registry) Get(id string) (api.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}

// Len returns the number of jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Sorted returns the jobs most recent first by effective start time. The
// order is recomputed on every call; ties break on id.
func (r *Registry) Sorted() []api.Job {
	r.mu.RLock()
	jobs := make([]api.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j)
	}
	r.mu.RUnlock()

	starts := make(map[string]time.Time, len(jobs))
	for _, j := range jobs {
		starts[j.ID] = timeline.EffectiveStart(j)
	}
	sort.Slice(jobs, func(a, b int) bool {
		sa, sb := starts[jobs[a].ID], starts[jobs[b].ID]
		if !sa.Equal(sb) {
			return sa.After(sb)
		}
		return jobs[a].ID < jobs[b].ID
	})
	return jobs
}

package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/logger"
)

// maxLogFetches bounds concurrent log requests during a collect.
const maxLogFetches = 4

// Source is the part of the job service a collect reads.
type Source interface {
	ListJobs(ctx context.Context) (map[string]api.Job, error)
	GetLogs(ctx context.Context, id string) ([]api.LogEntry, error)
}

// Collect reads the job list and every job's logs into a Snapshot. A job
// whose logs cannot be fetched is kept without logs; a failed job list
// fails the whole collect.
func Collect(ctx context.Context, src Source, baseURL string, at time.Time, log *logger.Logger) (Snapshot, error) {
	if log == nil {
		log = logger.Nop()
	}
	jobs, err := src.ListJobs(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list jobs: %w", err)
	}

	snap := Snapshot{
		BaseURL: baseURL,
		At:      at,
		Jobs:    jobs,
		Logs:    make(map[string][]api.LogEntry, len(jobs)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLogFetches)
	for id := range jobs {
		g.Go(func() error {
			entries, err := src.GetLogs(gctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("skipping logs for job", "job", id, "error", err)
				return nil
			}
			mu.Lock()
			snap.Logs[id] = entries
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("collect logs: %w", err)
	}
	return snap, nil
}

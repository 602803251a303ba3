package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// ErrEmpty is returned by Report when the archive holds no export.
var ErrEmpty = errors.New("archive has no exports")

// Report writes a per-job summary of the latest export to w.
func (s *Store) Report(ctx context.Context, w io.Writer, loc *time.Location) error {
	e, err := s.LatestExport(ctx)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEmpty
	}
	if loc == nil {
		loc = time.Local
	}

	jobs, err := s.Jobs(ctx, e.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Export %d of %s at %s (%d jobs)\n",
		e.ID, e.BaseURL, e.CreatedAt.In(loc).Format("Jan 2, 2006 15:04:05"), e.JobCount)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tSTATUS\tPROGRESS\tTRACK\tTOTAL\tPHASES\tLOGS")
	for _, j := range jobs {
		phases, err := s.Phases(ctx, e.ID, j.ID)
		if err != nil {
			return err
		}
		logs, err := s.Logs(ctx, e.ID, j.ID)
		if err != nil {
			return err
		}
		total := j.TotalDuration
		if total == "" {
			total = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%s\t%s\t%d\t%d\n",
			j.ID, j.Status, j.Progress, track(j), total, len(phases), len(logs))
	}
	return tw.Flush()
}

func track(j Job) string {
	switch {
	case j.Artist != "" && j.Title != "":
		return j.Artist + " - " + j.Title
	case j.URL != "":
		return j.URL
	default:
		return "-"
	}
}

package app

import (
	"github.com/google/uuid"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/clip"
	"github.com/jwulff/jobwatch/internal/tail"
	"github.com/jwulff/jobwatch/internal/timeline"
)

// RegistryTickMsg fires the registry timer of generation Gen.
type RegistryTickMsg struct {
	Gen uint64
}

// JobsLoadedMsg carries the result of one GET /jobs.
type JobsLoadedMsg struct {
	Jobs map[string]api.Job
	Err  error
	// Manual is set for refreshes the user asked for.
	Manual bool
}

// TailTickMsg fires the tail timer of generation Gen.
type TailTickMsg struct {
	Gen uint64
}

// TailResultMsg carries one joined status + logs fetch.
type TailResultMsg struct {
	Result tail.Result
}

// TimelineLoadedMsg carries the detailed timeline of a job.
type TimelineLoadedMsg struct {
	JobID  string
	Detail timeline.Detail
	Err    error
}

// ActionResultMsg carries the outcome of a retry or delete.
type ActionResultMsg struct {
	Action string
	JobID  string
	Result api.ActionResult
	Err    error
}

// DismissNotificationMsg removes a notification after its TTL.
type DismissNotificationMsg struct {
	ID uuid.UUID
}

// CopyDoneMsg reports a clipboard copy.
type CopyDoneMsg struct {
	Result  clip.Result
	Entries int
	Err     error
}

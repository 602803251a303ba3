// Package coordinator owns the lifecycle of the two refresh timers: the job
// registry poll and the log tail. Timers are identified by generation; a
// tick carrying an old generation belongs to a timer that was torn down.
package coordinator

import "sync"

// State is the coordinator's externally visible mode.
type State int

const (
	Idle State = iota
	RegistryPolling
	TailActive
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RegistryPolling:
		return "registry-polling"
	case TailActive:
		return "tail-active"
	default:
		return "unknown"
	}
}

// Coordinator tracks which timers are live.
type Coordinator struct {
	mu sync.Mutex

	autoRefresh bool
	registryGen uint64

	tailJob string
	tailGen uint64
}

// New returns an idle coordinator.
func New() *Coordinator { return &Coordinator{} }

// State reports the current mode.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

func (c *Coordinator) state() State {
	switch {
	case c.tailJob != "":
		return TailActive
	case c.autoRefresh:
		return RegistryPolling
	default:
		return Idle
	}
}

// AutoRefresh reports whether the registry timer is running.
func (c *Coordinator) AutoRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoRefresh
}

// EnableAutoRefresh starts the registry timer. started is false when it was
// already running; the caller schedules the first tick only when true.
func (c *Coordinator) EnableAutoRefresh() (gen uint64, started bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.autoRefresh {
		return c.registryGen, false
	}
	c.autoRefresh = true
	c.registryGen++
	return c.registryGen, true
}

// DisableAutoRefresh tears down the registry timer. The tail is unaffected.
func (c *Coordinator) DisableAutoRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.autoRefresh {
		return
	}
	c.autoRefresh = false
	c.registryGen++
}

// RegistryTick decides what a registry tick of generation gen does. poll is
// false while a tail is open; reschedule is false once the timer is gone.
func (c *Coordinator) RegistryTick(gen uint64) (poll, reschedule bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.autoRefresh || gen != c.registryGen {
		return false, false
	}
	return c.tailJob == "", true
}

// RegistryGeneration returns the live registry timer generation.
func (c *Coordinator) RegistryGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registryGen
}

// OpenTail starts a tail timer for jobID, first tearing down any previous
// one. prev is the job whose tail was replaced, if any.
func (c *Coordinator) OpenTail(jobID string) (gen uint64, prev string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev = c.tailJob
	c.tailGen++
	c.tailJob = jobID
	return c.tailGen, prev
}

// CloseTail tears down the tail timer. Registry polling resumes on its next
// tick if auto-refresh is on.
func (c *Coordinator) CloseTail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tailJob == "" {
		return
	}
	c.tailJob = ""
	c.tailGen++
}

// TailTick reports whether a tail tick of generation gen is still live.
func (c *Coordinator) TailTick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tailJob != "" && gen == c.tailGen
}

// TailJob returns the job being tailed, or "".
func (c *Coordinator) TailJob() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tailJob
}

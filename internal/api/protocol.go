// Package api provides the HTTP client and wire types for the job service
// the monitor observes.
package api

import "github.com/jwulff/jobwatch/internal/phase"

// Job is one job as reported by the service. ID is not part of the payload;
// it is the key under which the job was returned.
type Job struct {
	ID              string           `json:"-"`
	Status          phase.Phase      `json:"status"`
	Progress        float64          `json:"progress"`
	CreatedAt       string           `json:"created_at,omitempty"`
	Artist          string           `json:"artist,omitempty"`
	Title           string           `json:"title,omitempty"`
	URL             string           `json:"url,omitempty"`
	ReviewURL       string           `json:"review_url,omitempty"`
	Timeline        []PhaseRecord    `json:"timeline,omitempty"`
	TimelineSummary *TimelineSummary `json:"timeline_summary,omitempty"`
}

// Percent returns the advisory progress clamped to 0..100.
func (j Job) Percent() int {
	p := int(j.Progress)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// PhaseRecord is one entry of a job's phase history. An empty EndedAt means
// the phase is still active; only the last record may be active.
type PhaseRecord struct {
	Status          phase.Phase `json:"status"`
	StartedAt       string      `json:"started_at"`
	EndedAt         string      `json:"ended_at,omitempty"`
	DurationSeconds *float64    `json:"duration_seconds,omitempty"`
}

// Active reports whether the phase has not ended.
func (r PhaseRecord) Active() bool { return r.EndedAt == "" }

// TimelineSummary aggregates phase durations computed by the service.
type TimelineSummary struct {
	PhaseDurations         map[phase.Phase]float64 `json:"phase_durations,omitempty"`
	TotalDurationSeconds   float64                 `json:"total_duration_seconds,omitempty"`
	TotalDurationFormatted string                  `json:"total_duration_formatted,omitempty"`
}

// TimelineResponse is the payload of GET /jobs/{id}/timeline.
type TimelineResponse struct {
	Artist             string              `json:"artist,omitempty"`
	Title              string              `json:"title,omitempty"`
	Timeline           []PhaseRecord       `json:"timeline,omitempty"`
	TimelineSummary    *TimelineSummary    `json:"timeline_summary,omitempty"`
	PerformanceMetrics *PerformanceMetrics `json:"performance_metrics,omitempty"`
	PhaseTransitions   []PhaseTransition   `json:"phase_transitions,omitempty"`
	CurrentStatus      phase.Phase         `json:"current_status,omitempty"`
}

// PerformanceMetrics are preformatted totals from the service.
type PerformanceMetrics struct {
	TotalProcessingTime string `json:"total_processing_time,omitempty"`
	PhasesCompleted     int    `json:"phases_completed,omitempty"`
	EstimatedRemaining  string `json:"estimated_remaining,omitempty"`
}

// PhaseTransition is the idle gap between two consecutive phases.
type PhaseTransition struct {
	FromStatus                phase.Phase `json:"from_status"`
	ToStatus                  phase.Phase `json:"to_status"`
	TransitionDurationSeconds float64     `json:"transition_duration_seconds"`
}

// LogEntry is one job log line. Entries arrive in chronological order and
// are never re-sorted.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// ActionResult is returned by retry and delete.
type ActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the service accepted the action.
func (r ActionResult) OK() bool { return r.Status == "success" }

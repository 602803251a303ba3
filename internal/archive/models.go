// Package archive writes job service snapshots to a SQLite file and reads
// them back.
package archive

import "time"

// Export is one snapshot written by WriteSnapshot.
type Export struct {
	ID        int64
	BaseURL   string
	CreatedAt time.Time
	JobCount  int
}

// Job is an archived job row.
type Job struct {
	ExportID  int64
	ID        string
	Status    string
	Progress  float64
	Artist    string
	Title     string
	URL       string
	CreatedAt string
	// TotalDuration is the formatted server summary, if there was one.
	TotalDuration string
}

// Phase is an archived timeline record.
type Phase struct {
	JobID           string
	Seq             int
	Status          string
	StartedAt       string
	EndedAt         string
	DurationSeconds *float64
}

// LogLine is an archived log entry.
type LogLine struct {
	JobID     string
	Seq       int
	Timestamp string
	Level     string
	Message   string
}

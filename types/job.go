package types

import "math"

// SplitMode selects the splitter used for a job.
type SplitMode string

const (
	SplitModeBytes SplitMode = "bytes"
	SplitModeTime  SplitMode = "time"
)

// Valid reports whether m names a known splitter.
func (m SplitMode) Valid() bool {
	return m == SplitModeBytes || m == SplitModeTime
}

// JobStatus is the lifecycle state of a progress entry.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

func (s JobStatus) String() string {
	return string(s)
}

// IsFinished returns true if the job completed or failed
func (s JobStatus) IsFinished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is one split request from a single source file to one output directory.
type Job struct {
	Key        string // stored upload name, also the progress key
	SourcePath string
	OutputDir  string
	FolderName string
	Mode       SplitMode
	PartBytes  int64
	TotalSize  int64
	Parts      []string
}

// JobProgress is a point-in-time view of a progress entry.
type JobProgress struct {
	Key      string    `json:"key"`
	Progress float64   `json:"progress"`
	Status   JobStatus `json:"status"`
}

// ProgressReporter receives cumulative percentage updates from a splitter.
type ProgressReporter func(percent float64)

// Rounded returns the percentage rounded to two decimals for replies.
func (p JobProgress) Rounded() float64 {
	return math.Round(p.Progress*100) / 100
}

package models

import "time"

// RunState is the engine's lifecycle state. There is no paused state.
type RunState string

const (
	RunStateIdle    RunState = "idle"
	RunStateRunning RunState = "running"
)

// Severity classifies a log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// LogEntry is one line of the execution log.
type LogEntry struct {
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats aggregates lead outcomes for a run.
type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	InProgress int `json:"in_progress"`
}

// Settled reports whether every lead of the run reached an outcome.
func (s Stats) Settled() bool {
	return s.InProgress == 0 && s.Completed+s.Failed == s.Total
}

// RunRecord is the archived summary of a finished run.
type RunRecord struct {
	ID           string     `json:"id"`
	WorkflowName string     `json:"workflow_name"`
	Plan         Plan       `json:"plan"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   time.Time  `json:"finished_at"`
	Stats        Stats      `json:"stats"`
	Leads        []Lead     `json:"leads"`
	Log          []LogEntry `json:"log"`
	Cancelled    bool       `json:"cancelled"`
}

// Duration returns how long the run took.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

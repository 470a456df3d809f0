// Package execution carries the per-run state that flows through the engine:
// the run context, the stats and the execution log.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/outreach/pkg/models"
	"github.com/jonboulle/clockwork"
)

// Observer receives journal changes in the order they are produced.
type Observer interface {
	LogAppended(ctx context.Context, runID string, entry models.LogEntry)
	StatsChanged(ctx context.Context, runID string, stats models.Stats)
	LeadUpdated(ctx context.Context, runID string, lead models.Lead)
}

// RunObserver is implemented by observers that also want run boundaries.
type RunObserver interface {
	Observer
	RunStarted(ctx context.Context, runID, workflowName string, plan models.Plan, total int)
	RunFinished(ctx context.Context, record *models.RunRecord)
}

// Journal owns the run stats and the execution log. All writes go through
// it so observers see them in emission order; readers get copies.
type Journal struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	logger    *slog.Logger
	observers []Observer
	runID     string
	entries   []models.LogEntry
	stats     models.Stats
}

func NewJournal(clock clockwork.Clock, logger *slog.Logger, observers ...Observer) *Journal {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Journal{
		clock:     clock,
		logger:    logger,
		observers: observers,
		entries:   []models.LogEntry{},
	}
}

// AddObserver registers an observer for subsequent changes.
func (j *Journal) AddObserver(observer Observer) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.observers = append(j.observers, observer)
}

// Begin starts a new run: the log is cleared and stats reset to total.
func (j *Journal) Begin(runID string, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.runID = runID
	j.entries = []models.LogEntry{}
	j.stats = models.Stats{Total: total}
}

// Append adds a log entry and mirrors it to the structured logger.
func (j *Journal) Append(ctx context.Context, severity models.Severity, format string, args ...any) models.LogEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry := models.LogEntry{
		Message:   fmt.Sprintf(format, args...),
		Severity:  severity,
		Timestamp: j.clock.Now(),
	}

	j.entries = append(j.entries, entry)
	j.logger.Log(ctx, slogLevel(severity), entry.Message, "run_id", j.runID, "severity", string(severity))

	for _, observer := range j.observers {
		observer.LogAppended(ctx, j.runID, entry)
	}

	return entry
}

func (j *Journal) Info(ctx context.Context, format string, args ...any) {
	j.Append(ctx, models.SeverityInfo, format, args...)
}

func (j *Journal) Success(ctx context.Context, format string, args ...any) {
	j.Append(ctx, models.SeveritySuccess, format, args...)
}

func (j *Journal) Warn(ctx context.Context, format string, args ...any) {
	j.Append(ctx, models.SeverityWarning, format, args...)
}

func (j *Journal) Error(ctx context.Context, format string, args ...any) {
	j.Append(ctx, models.SeverityError, format, args...)
}

// StartLead marks one lead as in progress.
func (j *Journal) StartLead(ctx context.Context) {
	j.updateStats(ctx, func(s *models.Stats) { s.InProgress++ })
}

// CompleteLead counts a completed lead; fromInProgress also releases the
// in-progress slot taken by StartLead.
func (j *Journal) CompleteLead(ctx context.Context, fromInProgress bool) {
	j.updateStats(ctx, func(s *models.Stats) {
		s.Completed++

		if fromInProgress && s.InProgress > 0 {
			s.InProgress--
		}
	})
}

// FailLead counts a failed lead, see CompleteLead.
func (j *Journal) FailLead(ctx context.Context, fromInProgress bool) {
	j.updateStats(ctx, func(s *models.Stats) {
		s.Failed++

		if fromInProgress && s.InProgress > 0 {
			s.InProgress--
		}
	})
}

func (j *Journal) updateStats(ctx context.Context, update func(*models.Stats)) {
	j.mu.Lock()
	defer j.mu.Unlock()

	update(&j.stats)

	for _, observer := range j.observers {
		observer.StatsChanged(ctx, j.runID, j.stats)
	}
}

// Started announces a run that has passed validation.
func (j *Journal) Started(ctx context.Context, workflowName string, plan models.Plan) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, observer := range j.observers {
		if ro, ok := observer.(RunObserver); ok {
			ro.RunStarted(ctx, j.runID, workflowName, plan, j.stats.Total)
		}
	}
}

// Finished announces the archived record of a run.
func (j *Journal) Finished(ctx context.Context, record *models.RunRecord) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, observer := range j.observers {
		if ro, ok := observer.(RunObserver); ok {
			ro.RunFinished(ctx, record)
		}
	}
}

// LeadUpdated forwards a lead change to the observers.
func (j *Journal) LeadUpdated(ctx context.Context, lead models.Lead) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, observer := range j.observers {
		observer.LeadUpdated(ctx, j.runID, lead)
	}
}

// Stats returns a snapshot of the current stats.
func (j *Journal) Stats() models.Stats {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.stats
}

// Entries returns a copy of the log.
func (j *Journal) Entries() []models.LogEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]models.LogEntry, len(j.entries))
	copy(out, j.entries)

	return out
}

// Clear drops the log.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = []models.LogEntry{}
}

// ResetStats zeroes the stats.
func (j *Journal) ResetStats() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.stats = models.Stats{}
}

func slogLevel(severity models.Severity) slog.Level {
	switch severity {
	case models.SeverityWarning:
		return slog.LevelWarn
	case models.SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

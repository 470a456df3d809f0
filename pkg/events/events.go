// Package events defines the notifications emitted while an outreach run progresses.
package events

import (
	"time"

	"github.com/dukex/outreach/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every run event.
const Topic = "outreach.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Run lifecycle events.
	RunStartedEvent  EventType = "run.started"
	RunFinishedEvent EventType = "run.finished"

	// Progress events emitted by the run journal.
	LeadUpdatedEvent  EventType = "lead.updated"
	LogAppendedEvent  EventType = "log.appended"
	StatsChangedEvent EventType = "stats.changed"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
}

func NewBaseEvent(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
	}
}

type RunStarted struct {
	BaseEvent

	WorkflowName string      `json:"workflow_name"`
	Plan         models.Plan `json:"plan"`
	Total        int         `json:"total"`
}

func (r RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunFinished struct {
	BaseEvent

	Stats      models.Stats  `json:"stats"`
	Cancelled  bool          `json:"cancelled"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finished_at"`
}

func (r RunFinished) GetType() EventType {
	return RunFinishedEvent
}

type LeadUpdated struct {
	BaseEvent

	Lead models.Lead `json:"lead"`
}

func (l LeadUpdated) GetType() EventType {
	return LeadUpdatedEvent
}

type LogAppended struct {
	BaseEvent

	Entry models.LogEntry `json:"entry"`
}

func (l LogAppended) GetType() EventType {
	return LogAppendedEvent
}

type StatsChanged struct {
	BaseEvent

	Stats models.Stats `json:"stats"`
}

func (s StatsChanged) GetType() EventType {
	return StatsChangedEvent
}

// New returns an empty event value for eventType, ready to be decoded into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case RunStartedEvent:
		return &RunStarted{}, true
	case RunFinishedEvent:
		return &RunFinished{}, true
	case LeadUpdatedEvent:
		return &LeadUpdated{}, true
	case LogAppendedEvent:
		return &LogAppended{}, true
	case StatsChangedEvent:
		return &StatsChanged{}, true
	default:
		return nil, false
	}
}

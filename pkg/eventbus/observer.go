package eventbus

import (
	"context"
	"log/slog"

	"github.com/dukex/outreach/pkg/events"
	"github.com/dukex/outreach/pkg/models"
)

// RunPublisher forwards journal changes to an event publisher. Events are
// keyed by run id so a partitioned broker keeps each run in order. Publish
// failures are logged and never reach the run.
type RunPublisher struct {
	publisher EventPublisher
	logger    *slog.Logger
}

func NewRunPublisher(publisher EventPublisher, logger *slog.Logger) *RunPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &RunPublisher{
		publisher: publisher,
		logger:    logger.With("module", "eventbus"),
	}
}

func (p *RunPublisher) RunStarted(ctx context.Context, runID, workflowName string, plan models.Plan, total int) {
	p.publish(ctx, runID, &events.RunStarted{
		BaseEvent:    events.NewBaseEvent(events.RunStartedEvent, runID),
		WorkflowName: workflowName,
		Plan:         plan,
		Total:        total,
	})
}

func (p *RunPublisher) RunFinished(ctx context.Context, record *models.RunRecord) {
	p.publish(ctx, record.ID, &events.RunFinished{
		BaseEvent:  events.NewBaseEvent(events.RunFinishedEvent, record.ID),
		Stats:      record.Stats,
		Cancelled:  record.Cancelled,
		Duration:   record.Duration(),
		FinishedAt: record.FinishedAt,
	})
}

func (p *RunPublisher) LogAppended(ctx context.Context, runID string, entry models.LogEntry) {
	p.publish(ctx, runID, &events.LogAppended{
		BaseEvent: events.NewBaseEvent(events.LogAppendedEvent, runID),
		Entry:     entry,
	})
}

func (p *RunPublisher) StatsChanged(ctx context.Context, runID string, stats models.Stats) {
	p.publish(ctx, runID, &events.StatsChanged{
		BaseEvent: events.NewBaseEvent(events.StatsChangedEvent, runID),
		Stats:     stats,
	})
}

func (p *RunPublisher) LeadUpdated(ctx context.Context, runID string, lead models.Lead) {
	p.publish(ctx, runID, &events.LeadUpdated{
		BaseEvent: events.NewBaseEvent(events.LeadUpdatedEvent, runID),
		Lead:      lead,
	})
}

func (p *RunPublisher) publish(ctx context.Context, key string, event Event) {
	if err := p.publisher.Publish(ctx, key, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			"event_type", event.GetType(), "run_id", key, "error", err)
	}
}

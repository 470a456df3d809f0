package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/outreach/pkg/eventbus"
	"github.com/dukex/outreach/pkg/events"
	"github.com/dukex/outreach/pkg/models"
)

// followEvents subscribes to the run event topic and writes every event to
// logger until ctx is cancelled.
func followEvents(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.RunStartedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.RunStarted)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}

			logger.InfoContext(ctx, "Run started",
				"run_id", e.RunID, "workflow", e.WorkflowName, "plan", e.Plan.String(), "total", e.Total)

			return nil
		},
		events.RunFinishedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.RunFinished)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}

			logger.InfoContext(ctx, "Run finished",
				"run_id", e.RunID,
				"completed", e.Stats.Completed,
				"failed", e.Stats.Failed,
				"cancelled", e.Cancelled,
				"duration", e.Duration)

			return nil
		},
		events.LeadUpdatedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.LeadUpdated)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}

			logger.InfoContext(ctx, "Lead updated", "run_id", e.RunID, "lead", e.Lead.Name, "status", e.Lead.Status)

			return nil
		},
		events.LogAppendedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.LogAppended)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}

			logger.Log(ctx, severityLevel(e.Entry.Severity), e.Entry.Message, "run_id", e.RunID)

			return nil
		},
		events.StatsChangedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.StatsChanged)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}

			logger.DebugContext(ctx, "Stats changed",
				"run_id", e.RunID,
				"total", e.Stats.Total,
				"completed", e.Stats.Completed,
				"failed", e.Stats.Failed,
				"in_progress", e.Stats.InProgress)

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return fmt.Errorf("failed to register %s handler: %w", eventType, err)
		}
	}

	if err := bus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to run events: %w", err)
	}

	logger.InfoContext(ctx, "Following run events", "topic", events.Topic)

	return nil
}

func severityLevel(severity models.Severity) slog.Level {
	switch severity {
	case models.SeverityError:
		return slog.LevelError
	case models.SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/outreach/pkg/channels/gochannel"
	"github.com/dukex/outreach/pkg/eventbus"
	"github.com/dukex/outreach/pkg/events"
	"github.com/dukex/outreach/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestFollowEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	var out lockedBuffer

	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	require.NoError(t, followEvents(ctx, bus, logger))

	published := []eventbus.Event{
		&events.RunStarted{
			BaseEvent:    events.NewBaseEvent(events.RunStartedEvent, "run-1"),
			WorkflowName: "Cold Outreach",
			Plan:         models.Plan{DoEmail: true},
			Total:        1,
		},
		&events.LeadUpdated{
			BaseEvent: events.NewBaseEvent(events.LeadUpdatedEvent, "run-1"),
			Lead:      models.Lead{Name: "Ada", Status: models.LeadStatusCompleted},
		},
		&events.LogAppended{
			BaseEvent: events.NewBaseEvent(events.LogAppendedEvent, "run-1"),
			Entry:     models.LogEntry{Message: "Skipping email for Ada - no email address", Severity: models.SeverityWarning},
		},
		&events.StatsChanged{
			BaseEvent: events.NewBaseEvent(events.StatsChangedEvent, "run-1"),
			Stats:     models.Stats{Total: 1, Completed: 1},
		},
		&events.RunFinished{
			BaseEvent: events.NewBaseEvent(events.RunFinishedEvent, "run-1"),
			Stats:     models.Stats{Total: 1, Completed: 1},
		},
	}

	for _, event := range published {
		require.NoError(t, bus.Publish(ctx, "run-1", event))
	}

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Run finished")
	}, 5*time.Second, 10*time.Millisecond)

	logged := out.String()
	assert.Contains(t, logged, `msg="Run started"`)
	assert.Contains(t, logged, "workflow=\"Cold Outreach\"")
	assert.Contains(t, logged, "lead=Ada")
	assert.Contains(t, logged, `level=WARN msg="Skipping email for Ada - no email address"`)
	assert.Contains(t, logged, `msg="Stats changed"`)
	assert.Contains(t, logged, "run_id=run-1")
}

func TestSeverityLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, severityLevel(models.SeverityError))
	assert.Equal(t, slog.LevelWarn, severityLevel(models.SeverityWarning))
	assert.Equal(t, slog.LevelInfo, severityLevel(models.SeveritySuccess))
	assert.Equal(t, slog.LevelInfo, severityLevel(models.SeverityInfo))
}

package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukex/outreach/pkg/execution"
	"github.com/dukex/outreach/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ execution.RunObserver = (*Collector)(nil)

func TestCollector_RecordsRun(t *testing.T) {
	ctx := context.Background()
	c := NewCollector()

	c.RunStarted(ctx, "run-1", "Outreach", models.Plan{DoCall: true}, 2)
	assert.InDelta(t, 1, testutil.ToFloat64(c.runActive), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.lastRunStats.WithLabelValues("total")), 0)

	c.StatsChanged(ctx, "run-1", models.Stats{Total: 2, InProgress: 1})
	assert.InDelta(t, 1, testutil.ToFloat64(c.inProgress), 0)

	c.LeadUpdated(ctx, "run-1", models.Lead{Name: "Ada", Status: models.LeadStatusCalling})
	c.LeadUpdated(ctx, "run-1", models.Lead{Name: "Ada", Status: models.LeadStatusCompleted})
	c.LeadUpdated(ctx, "run-1", models.Lead{Name: "Bob", Status: models.LeadStatusFailed})
	assert.InDelta(t, 1, testutil.ToFloat64(c.leads.WithLabelValues("completed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.leads.WithLabelValues("failed")), 0)

	c.LogAppended(ctx, "run-1", models.LogEntry{Severity: models.SeverityWarning})
	c.LogAppended(ctx, "run-1", models.LogEntry{Severity: models.SeverityWarning})
	assert.InDelta(t, 2, testutil.ToFloat64(c.logEntries.WithLabelValues("warning")), 0)

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.RunFinished(ctx, &models.RunRecord{
		ID:         "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
		Stats:      models.Stats{Total: 2, Completed: 1, Failed: 1},
	})

	assert.InDelta(t, 0, testutil.ToFloat64(c.runActive), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(c.inProgress), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.runs.WithLabelValues("false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.lastRunStats.WithLabelValues("failed")), 0)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.LogAppended(context.Background(), "run-1", models.LogEntry{Severity: models.SeverityError})

	server := httptest.NewServer(c.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `outreach_log_entries_total{severity="error"} 1`)
	assert.Contains(t, string(body), "outreach_run_active 0")
}

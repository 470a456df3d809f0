// Package metrics exposes run progress as Prometheus collectors.
package metrics

import (
	"context"
	"net/http"

	"github.com/dukex/outreach/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "outreach"

// Collector records journal changes. It implements execution.RunObserver.
type Collector struct {
	registry *prometheus.Registry

	runActive    prometheus.Gauge
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	leads        *prometheus.CounterVec
	inProgress   prometheus.Gauge
	logEntries   *prometheus.CounterVec
	lastRunStats *prometheus.GaugeVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "active",
			Help:      "1 while a workflow run is executing.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "finished_total",
			Help:      "Total number of finished workflow runs.",
		}, []string{"cancelled"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Duration of workflow runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34m
		}),
		leads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "transitions_total",
			Help:      "Total number of lead status transitions.",
		}, []string{"status"}),
		inProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "in_progress",
			Help:      "Leads with a call in flight.",
		}),
		logEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "log",
			Name:      "entries_total",
			Help:      "Total number of execution log entries.",
		}, []string{"severity"}),
		lastRunStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "stats",
			Help:      "Stats of the current or last run.",
		}, []string{"counter"}),
	}

	c.registry.MustRegister(
		c.runActive,
		c.runs,
		c.runDuration,
		c.leads,
		c.inProgress,
		c.logEntries,
		c.lastRunStats,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return c
}

// Registry returns the registry holding the collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RunStarted(_ context.Context, _, _ string, _ models.Plan, total int) {
	c.runActive.Set(1)
	c.setStats(models.Stats{Total: total})
}

func (c *Collector) RunFinished(_ context.Context, record *models.RunRecord) {
	c.runActive.Set(0)
	c.inProgress.Set(0)
	c.setStats(record.Stats)

	cancelled := "false"
	if record.Cancelled {
		cancelled = "true"
	}

	c.runs.WithLabelValues(cancelled).Inc()
	c.runDuration.Observe(record.Duration().Seconds())
}

func (c *Collector) LogAppended(_ context.Context, _ string, entry models.LogEntry) {
	c.logEntries.WithLabelValues(string(entry.Severity)).Inc()
}

func (c *Collector) StatsChanged(_ context.Context, _ string, stats models.Stats) {
	c.inProgress.Set(float64(stats.InProgress))
	c.setStats(stats)
}

func (c *Collector) LeadUpdated(_ context.Context, _ string, lead models.Lead) {
	c.leads.WithLabelValues(string(lead.Status)).Inc()
}

func (c *Collector) setStats(stats models.Stats) {
	c.lastRunStats.WithLabelValues("total").Set(float64(stats.Total))
	c.lastRunStats.WithLabelValues("completed").Set(float64(stats.Completed))
	c.lastRunStats.WithLabelValues("failed").Set(float64(stats.Failed))
	c.lastRunStats.WithLabelValues("in_progress").Set(float64(stats.InProgress))
}

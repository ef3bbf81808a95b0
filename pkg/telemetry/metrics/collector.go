package metrics

import (
	"net/http"

	"github.com/de-tools/snapshot-sweeper/pkg/models/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "snapshot_sweeper"

// Collector records sweep outcomes. It satisfies sweeper.Observer.
type Collector struct {
	registry *prometheus.Registry

	decisions      *prometheus.CounterVec
	deleteFailures prometheus.Counter
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	lastRun        prometheus.Gauge
	lastPending    prometheus.Gauge
}

// NewCollector registers the sweep metrics on registry, or on a fresh
// registry when nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Retention decisions taken per snapshot.",
		}, []string{"decision"}),
		deleteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delete_failures_total",
			Help:      "Snapshot deletions that failed.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed sweeps by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a sweep.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 900},
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last sweep finished.",
		}),
		lastPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_pending_deletes",
			Help:      "Snapshots the last sweep failed to delete.",
		}),
	}

	registry.MustRegister(
		c.decisions,
		c.deleteFailures,
		c.runs,
		c.runDuration,
		c.lastRun,
		c.lastPending,
	)
	return c
}

func (c *Collector) ObserveDecision(decision domain.Decision) {
	c.decisions.WithLabelValues(string(decision)).Inc()
	if decision == domain.DecisionDeleteFailed {
		c.deleteFailures.Inc()
	}
}

func (c *Collector) ObserveSweep(report *domain.SweepReport, err error) {
	result := "success"
	switch {
	case err != nil && report != nil && report.Failed > 0:
		result = "incomplete"
	case err != nil:
		result = "error"
	}
	c.runs.WithLabelValues(result).Inc()

	if report == nil {
		return
	}
	c.runDuration.Observe(report.Duration().Seconds())
	c.lastRun.Set(float64(report.FinishedAt.Unix()))
	c.lastPending.Set(float64(report.Failed))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Package metrics exposes prometheus instrumentation for backup runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "memvault"

// Metrics holds the backup collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	runs              *prometheus.CounterVec
	runDuration       prometheus.Histogram
	pushAttempts      prometheus.Histogram
	retentionDeleted  prometheus.Counter
	retentionFailures prometheus.Counter
	lastSuccess       prometheus.Gauge
	snapshotEntities  prometheus.Gauge
	snapshotRelations prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_runs_total",
			Help:      "Backup runs by outcome",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backup_run_duration_seconds",
			Help:      "Wall time of a backup run",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		pushAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "push_attempts",
			Help:      "Push attempts per backup run",
			Buckets:   []float64{1, 2, 3, 5, 10},
		}),
		retentionDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_deleted_total",
			Help:      "Snapshots deleted by retention",
		}),
		retentionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_failures_total",
			Help:      "Snapshots retention failed to delete",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Completion time of the last run that wrote a snapshot",
		}),
		snapshotEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_entities",
			Help:      "Entities in the last snapshot",
		}),
		snapshotRelations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_relations",
			Help:      "Relations in the last snapshot",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.runs,
			m.runDuration,
			m.pushAttempts,
			m.retentionDeleted,
			m.retentionFailures,
			m.lastSuccess,
			m.snapshotEntities,
			m.snapshotRelations,
		)
	}

	return m
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(outcome string, duration time.Duration, completedAt time.Time, wrote bool) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(duration.Seconds())
	if wrote {
		m.lastSuccess.Set(float64(completedAt.Unix()))
	}
}

// ObserveSnapshot records the size of the snapshot just written.
func (m *Metrics) ObserveSnapshot(entities, relations int) {
	if m == nil {
		return
	}
	m.snapshotEntities.Set(float64(entities))
	m.snapshotRelations.Set(float64(relations))
}

// ObservePush records how many attempts a push took.
func (m *Metrics) ObservePush(attempts int) {
	if m == nil {
		return
	}
	m.pushAttempts.Observe(float64(attempts))
}

// ObserveRetention records a retention pass.
func (m *Metrics) ObserveRetention(deleted, failures int) {
	if m == nil {
		return
	}
	m.retentionDeleted.Add(float64(deleted))
	m.retentionFailures.Add(float64(failures))
}

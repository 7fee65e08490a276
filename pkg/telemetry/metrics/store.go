package metrics

import (
	"time"

	"gatecontrol-hq/gatecontrol/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks entity store activity.
//
// Metrics:
//   - gatecontrol_store_mutations_total: mutations by operation and entity type
//   - gatecontrol_store_persist_duration_seconds: snapshot persist latency
//   - gatecontrol_store_persist_errors_total: failed persists by backend
//   - gatecontrol_audit_sink_errors_total: failed audit mirror deliveries
type StoreMetrics struct {
	mutationsTotal  *prometheus.CounterVec
	persistDuration *prometheus.HistogramVec
	persistErrors   *prometheus.CounterVec
	sinkErrors      *prometheus.CounterVec
}

// NewStoreMetrics creates and registers store metrics with the provided registry.
func NewStoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StoreMetrics {
	sm := &StoreMetrics{
		mutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "store_mutations_total",
				Help:      "Total number of store mutations",
			},
			[]string{"operation", "entity_type"},
		),

		persistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "store_persist_duration_seconds",
				Help:      "Duration of full snapshot persists in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"backend"},
		),

		persistErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "store_persist_errors_total",
				Help:      "Total number of failed snapshot persists",
			},
			[]string{"backend"},
		),

		sinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_sink_errors_total",
				Help:      "Total number of failed audit sink deliveries",
			},
			[]string{"sink"},
		),
	}

	registry.MustRegister(
		sm.mutationsTotal,
		sm.persistDuration,
		sm.persistErrors,
		sm.sinkErrors,
	)

	return sm
}

// RecordMutation increments the mutation counter.
func (sm *StoreMetrics) RecordMutation(operation, entityType string) {
	sm.mutationsTotal.WithLabelValues(operation, entityType).Inc()
}

// RecordPersist observes persist latency and counts failures.
func (sm *StoreMetrics) RecordPersist(backend string, duration time.Duration, err error) {
	sm.persistDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		sm.persistErrors.WithLabelValues(backend).Inc()
	}
}

// RecordSinkError increments the sink error counter.
func (sm *StoreMetrics) RecordSinkError(sink string) {
	sm.sinkErrors.WithLabelValues(sink).Inc()
}

package metrics

import (
	"time"

	"gatecontrol-hq/gatecontrol/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PublishMetrics tracks validation and publish outcomes.
//
// Metrics:
//   - gatecontrol_validation_issues_total: issues by code and severity
//   - gatecontrol_publish_attempts_total: publish attempts by environment and status
//   - gatecontrol_publish_duration_seconds: publish duration by status
//   - gatecontrol_publish_mirror_errors_total: failed mirror or reload steps
type PublishMetrics struct {
	issuesTotal     *prometheus.CounterVec
	attemptsTotal   *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
	mirrorErrors    *prometheus.CounterVec
}

// NewPublishMetrics creates and registers publish metrics with the provided registry.
func NewPublishMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PublishMetrics {
	pm := &PublishMetrics{
		issuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validation_issues_total",
				Help:      "Total number of validation issues found",
			},
			[]string{"code", "severity"},
		),

		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "publish_attempts_total",
				Help:      "Total number of publish attempts",
			},
			[]string{"environment", "status"},
		),

		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "publish_duration_seconds",
				Help:      "Duration of publish attempts in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"status"},
		),

		mirrorErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "publish_mirror_errors_total",
				Help:      "Total number of failed artifact mirror or reload steps",
			},
			[]string{"mirror"},
		),
	}

	registry.MustRegister(
		pm.issuesTotal,
		pm.attemptsTotal,
		pm.publishDuration,
		pm.mirrorErrors,
	)

	return pm
}

// RecordIssue increments the issue counter.
func (pm *PublishMetrics) RecordIssue(code, severity string) {
	pm.issuesTotal.WithLabelValues(code, severity).Inc()
}

// RecordPublish counts an attempt and observes its duration.
func (pm *PublishMetrics) RecordPublish(environment, status string, duration time.Duration) {
	pm.attemptsTotal.WithLabelValues(environment, status).Inc()
	pm.publishDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordMirrorError increments the mirror error counter.
func (pm *PublishMetrics) RecordMirrorError(mirror string) {
	pm.mirrorErrors.WithLabelValues(mirror).Inc()
}

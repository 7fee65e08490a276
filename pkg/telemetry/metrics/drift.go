package metrics

import (
	"gatecontrol-hq/gatecontrol/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DriftMetrics tracks differences between published artifacts and the model.
//
// Metrics:
//   - gatecontrol_config_drift: 1 when an environment has drifted, by kind
//   - gatecontrol_drift_checks_total: completed checks by result
type DriftMetrics struct {
	drift       *prometheus.GaugeVec
	checksTotal *prometheus.CounterVec
}

// NewDriftMetrics creates and registers drift metrics with the provided registry.
func NewDriftMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DriftMetrics {
	dm := &DriftMetrics{
		drift: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "config_drift",
				Help:      "Whether the environment's published config has drifted (1=drifted, 0=in sync)",
			},
			[]string{"environment", "kind"},
		),

		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "drift_checks_total",
				Help:      "Total number of drift checks",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(dm.drift, dm.checksTotal)

	return dm
}

// Set updates the drift gauge.
func (dm *DriftMetrics) Set(environment, kind string, drifted bool) {
	value := 0.0
	if drifted {
		value = 1.0
	}
	dm.drift.WithLabelValues(environment, kind).Set(value)
}

// RecordCheck increments the check counter.
func (dm *DriftMetrics) RecordCheck(result string) {
	dm.checksTotal.WithLabelValues(result).Inc()
}

package metrics

import (
	"time"

	"gatecontrol-hq/gatecontrol/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in GateControl.
// It manages metric registration and provides a unified interface for
// recording metrics across the store, validator, publisher, drift detector
// and HTTP API.
//
// A nil *Collector is valid and records nothing, so components can be
// constructed without metrics in tests and CLI one-shots.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	storeMetrics   *StoreMetrics
	publishMetrics *PublishMetrics
	driftMetrics   *DriftMetrics
	httpMetrics    *HTTPMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "gatecontrol",
//		Subsystem: "controlplane",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		// Store persists and publishes are file or database writes (1ms - 5s)
		cfg.DurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.storeMetrics = NewStoreMetrics(cfg, registry)
	c.publishMetrics = NewPublishMetrics(cfg, registry)
	c.driftMetrics = NewDriftMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordMutation records a store mutation.
//
// Parameters:
//   - operation: "upsert", "delete", "status", "append_publish", "append_audit"
//   - entityType: entity type name (e.g., "Route")
func (c *Collector) RecordMutation(operation, entityType string) {
	if !c.enabled() {
		return
	}
	c.storeMetrics.RecordMutation(operation, entityType)
}

// RecordPersist records a snapshot persist and whether it failed.
func (c *Collector) RecordPersist(backend string, duration time.Duration, err error) {
	if !c.enabled() {
		return
	}
	c.storeMetrics.RecordPersist(backend, duration, err)
}

// RecordSinkError records a failed audit sink delivery.
func (c *Collector) RecordSinkError(sink string) {
	if !c.enabled() {
		return
	}
	c.storeMetrics.RecordSinkError(sink)
}

// RecordValidationIssue records one validation issue by code and severity.
func (c *Collector) RecordValidationIssue(code, severity string) {
	if !c.enabled() {
		return
	}
	c.publishMetrics.RecordIssue(code, severity)
}

// RecordPublish records a publish attempt.
//
// Parameters:
//   - environment: environment id
//   - status: "Succeeded" or "Failed"
//   - duration: time from validation to the final history append
func (c *Collector) RecordPublish(environment, status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.publishMetrics.RecordPublish(environment, status, duration)
}

// RecordMirrorError records a failed artifact mirror or reload step.
func (c *Collector) RecordMirrorError(mirror string) {
	if !c.enabled() {
		return
	}
	c.publishMetrics.RecordMirrorError(mirror)
}

// SetDrift sets the drift gauge for an environment.
//
// Parameters:
//   - environment: environment id
//   - kind: "tampered" or "pending"
//   - drifted: true when the condition holds
func (c *Collector) SetDrift(environment, kind string, drifted bool) {
	if !c.enabled() {
		return
	}
	c.driftMetrics.Set(environment, kind, drifted)
}

// RecordDriftCheck records a completed drift check.
func (c *Collector) RecordDriftCheck(result string) {
	if !c.enabled() {
		return
	}
	c.driftMetrics.RecordCheck(result)
}

// RecordHTTPRequest records a served API request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.httpMetrics.Record(method, route, status, duration)
}

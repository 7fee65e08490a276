// Package metrics provides Prometheus metrics collection for GateControl.
//
// # Metrics Categories
//
//   - Store Metrics: mutations, snapshot persist latency and failures
//   - Publish Metrics: validation issues, publish attempts and mirror failures
//   - Drift Metrics: per-environment drift gauge and check counts
//   - HTTP Metrics: API request counts and latency
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	collector.RecordPublish("env-1", "Succeeded", 40*time.Millisecond)
//
//	http.Handle("/metrics", collector.Handler())
//
// All Record methods are safe to call on a nil *Collector.
package metrics

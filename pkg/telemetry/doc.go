// Package telemetry groups the observability packages used by the GateControl
// control plane.
//
// # Components
//
//   - logging: slog setup with request, actor and environment context attributes
//   - metrics: Prometheus collectors for store, publish, drift and HTTP traffic
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, err := logging.Setup(logging.FromConfig(cfg.Telemetry.Logging, os.Stderr))
//	if err != nil {
//	    return err
//	}
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("store", health.PingCheck(st))
//
// Metrics are optional: a nil *metrics.Collector is safe to call and records
// nothing, so packages accept one without checking whether metrics are enabled.
package telemetry

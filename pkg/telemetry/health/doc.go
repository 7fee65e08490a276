// Package health provides liveness and readiness endpoints for the
// control plane.
//
// Liveness (/health) only reports that the process is serving requests.
// Readiness (/ready) runs every registered check concurrently, each bounded
// by a timeout, and answers 503 when any of them fails. The control plane
// registers two checks: the store's snapshot backend accepts writes, and
// the publish root directory is writable.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("store", health.PingCheck(store))
//	checker.RegisterCheck("publish_root", health.WritableDirCheck(root))
//	r.Get("/health", checker.LivenessHandler())
//	r.Get("/ready", checker.ReadinessHandler())
package health

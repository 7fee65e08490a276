// Package drift detects divergence between what was published and what is
// on disk or in the live model.
//
// Two kinds of drift are reported per environment:
//
//   - Tampered: the published file no longer hashes to the config hash of
//     the last successful publish (edited by hand, deleted, or written by
//     something other than the publisher).
//   - Pending: the live model compiles to a different hash than the last
//     successful publish, so a publish would change the gateway.
//
// Checks run on demand (Detector), on a cron schedule (Scheduler) and when
// files under the publish root change (Watcher).
package drift

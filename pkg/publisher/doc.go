// Package publisher validates, compiles and writes one environment's gateway
// configuration, then records the attempt in publish history and the audit
// trail.
//
// Publishes are serialized: at most one attempt runs at a time. Every attempt
// appends exactly one PublishRecord and exactly one audit entry, whether it
// fails validation, fails to write, or succeeds.
//
// After a successful write the configured mirrors (S3, Git) receive the
// artifact and target nodes are signalled to reload. Mirror and reload
// failures do not fail the publish; they are reported in the record's
// Result text and counted in metrics.
package publisher

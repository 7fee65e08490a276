// Package audit provides the audit trail vocabulary for GateControl.
//
// Every state change in the store and every publish attempt appends exactly
// one model.AuditLogEntry. This package defines the action names, builds
// entries with the standard defaults (fresh id, correlation id, actor
// "system" when none is given) and serializes entity snapshots.
//
// Entries are append-only. Nothing in this package updates or removes an
// entry once written.
//
// # Sinks
//
// The store is the system of record. Entries can additionally be mirrored
// into a Sink after they are durably persisted. SQLiteIndex is a Sink that
// keeps a queryable copy of the trail for the audit CLI:
//
//	index, err := audit.NewSQLiteIndex(&audit.SQLiteConfig{Path: "data/audit.db"})
//	if err != nil {
//	    return err
//	}
//	entries, err := index.Query(ctx, &audit.Filter{EntityType: "Route", Limit: 20})
//
// Sink failures never roll back the primary write.
package audit

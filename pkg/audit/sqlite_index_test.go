package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/model"
)

func newTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()

	cfg := DefaultSQLiteConfig()
	cfg.Path = filepath.Join(t.TempDir(), "audit.db")

	idx, err := NewSQLiteIndex(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteIndex() failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestSQLiteIndex_RecordAndQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []model.AuditLogEntry{
		NewEntry(Entry{Actor: "alice", Action: ActionRouteCreated, EntityType: "Route", EntityID: "r1", After: `{"id":"r1"}`}, now),
		NewEntry(Entry{Action: ActionDelete, EntityType: "Route", EntityID: "r1", Before: `{"id":"r1"}`}, now.Add(time.Minute)),
		NewEntry(Entry{Actor: "bob", Action: ActionPublish, EntityType: "Environment", EntityID: "e1", Reason: ReasonManualPublish}, now.Add(2*time.Minute)),
	}

	if err := idx.Record(ctx, entries); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	// Re-recording the same entries must not duplicate them.
	if err := idx.Record(ctx, entries[:1]); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 entries, got %d", count)
	}

	all, err := idx.Query(ctx, nil)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Action != ActionPublish {
		t.Errorf("expected newest first, got %q", all[0].Action)
	}
	if all[0].Reason != ReasonManualPublish {
		t.Errorf("expected reason %q, got %q", ReasonManualPublish, all[0].Reason)
	}
	if all[1].BeforeJSON != `{"id":"r1"}` {
		t.Errorf("expected before snapshot, got %q", all[1].BeforeJSON)
	}

	routes, err := idx.Query(ctx, &Filter{EntityType: "route", EntityID: "r1"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(routes) != 2 {
		t.Errorf("expected 2 route entries, got %d", len(routes))
	}

	byActor, err := idx.Query(ctx, &Filter{Actor: "system"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(byActor) != 1 || byActor[0].Action != ActionDelete {
		t.Errorf("expected the system delete entry, got %+v", byActor)
	}
}

func TestSQLiteIndex_RecordEmpty(t *testing.T) {
	idx := newTestIndex(t)
	if err := idx.Record(context.Background(), nil); err != nil {
		t.Errorf("Record(nil) failed: %v", err)
	}
}

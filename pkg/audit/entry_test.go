package audit

import (
	"encoding/json"
	"testing"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/model"
)

func TestNewEntry_Defaults(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))

	e := NewEntry(Entry{Action: ActionDelete, EntityType: model.EntityTypeRoute, EntityID: "r1"}, now)

	if e.Actor != "system" {
		t.Errorf("expected actor system, got %q", e.Actor)
	}
	if len(e.ID) != 32 {
		t.Errorf("expected 32 char id, got %q", e.ID)
	}
	if e.CorrelationID == "" {
		t.Error("expected correlation id")
	}
	if !e.Timestamp.Equal(now) || e.Timestamp.Location() != time.UTC {
		t.Errorf("expected UTC timestamp equal to %v, got %v", now, e.Timestamp)
	}

	other := NewEntry(Entry{Action: ActionDelete}, now)
	if other.ID == e.ID || other.CorrelationID == e.CorrelationID {
		t.Error("expected fresh ids per entry")
	}
}

func TestNewEntry_KeepsActorAndCorrelation(t *testing.T) {
	e := NewEntry(Entry{Actor: "alice", Action: ActionPublish, CorrelationID: "req-7"}, time.Now())
	if e.Actor != "alice" {
		t.Errorf("expected actor alice, got %q", e.Actor)
	}
	if e.CorrelationID != "req-7" {
		t.Errorf("expected correlation id req-7, got %q", e.CorrelationID)
	}
}

func TestUpsertAction(t *testing.T) {
	tests := []struct {
		entityType string
		created    bool
		want       string
	}{
		{model.EntityTypeEnvironment, true, ActionEnvironmentCreated},
		{model.EntityTypeService, false, ActionServiceUpdated},
		{model.EntityTypeRoute, true, ActionRouteCreated},
		{model.EntityTypeChangeRequest, false, ActionChangeRequestUpdated},
	}

	for _, tt := range tests {
		if got := UpsertAction(tt.entityType, tt.created); got != tt.want {
			t.Errorf("UpsertAction(%q, %v) = %q, want %q", tt.entityType, tt.created, got, tt.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	s := Snapshot(model.Service{ID: "s1", Name: "users"})

	var decoded model.Service
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if decoded.ID != "s1" || decoded.Name != "users" {
		t.Errorf("unexpected snapshot %s", s)
	}

	if got := Snapshot(make(chan int)); got != "" {
		t.Errorf("expected empty snapshot for unencodable value, got %q", got)
	}
}

func TestFilter_Apply(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []model.AuditLogEntry{
		{ID: "1", Actor: "alice", Action: ActionRouteCreated, EntityType: "Route", EntityID: "r1", Timestamp: base},
		{ID: "2", Actor: "bob", Action: ActionRouteUpdated, EntityType: "Route", EntityID: "r1", Timestamp: base.Add(time.Hour)},
		{ID: "3", Actor: "alice", Action: ActionDelete, EntityType: "Service", EntityID: "s1", Timestamp: base.Add(2 * time.Hour)},
	}
	since := base.Add(30 * time.Minute)

	tests := []struct {
		name   string
		filter *Filter
		want   []string
	}{
		{"nil filter newest first", nil, []string{"3", "2", "1"}},
		{"entity type case-insensitive", &Filter{EntityType: "route"}, []string{"2", "1"}},
		{"actor", &Filter{Actor: "alice"}, []string{"3", "1"}},
		{"since", &Filter{Since: &since}, []string{"3", "2"}},
		{"limit", &Filter{Limit: 1}, []string{"3"}},
		{"action", &Filter{Action: "delete"}, []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(entries)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("entry %d: got %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

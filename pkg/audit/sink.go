package audit

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/model"
)

// Sink receives audit entries after they have been persisted by the store.
// Implementations must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, entries []model.AuditLogEntry) error
}

// Filter selects audit entries. Empty fields match everything.
type Filter struct {
	EntityType string
	EntityID   string
	Actor      string
	Action     string
	Since      *time.Time

	// Limit caps the number of entries returned. Zero means DefaultQueryLimit.
	Limit int
}

// DefaultQueryLimit is used when Filter.Limit is zero.
const DefaultQueryLimit = 100

func (f *Filter) limit() int {
	if f == nil || f.Limit <= 0 {
		return DefaultQueryLimit
	}
	return f.Limit
}

func (f *Filter) matches(e model.AuditLogEntry) bool {
	if f == nil {
		return true
	}
	if f.EntityType != "" && !strings.EqualFold(f.EntityType, e.EntityType) {
		return false
	}
	if f.EntityID != "" && f.EntityID != e.EntityID {
		return false
	}
	if f.Actor != "" && f.Actor != e.Actor {
		return false
	}
	if f.Action != "" && !strings.EqualFold(f.Action, e.Action) {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	return true
}

// Apply filters entries and returns the matches newest first.
func (f *Filter) Apply(entries []model.AuditLogEntry) []model.AuditLogEntry {
	out := []model.AuditLogEntry{}
	for i := len(entries) - 1; i >= 0; i-- {
		if f.matches(entries[i]) {
			out = append(out, entries[i])
			if len(out) == f.limit() {
				break
			}
		}
	}
	return out
}

// MemorySink keeps mirrored entries in memory. It is intended for tests.
type MemorySink struct {
	mu      sync.RWMutex
	entries []model.AuditLogEntry
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends entries.
func (s *MemorySink) Record(_ context.Context, entries []model.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

// Entries returns a copy of everything recorded so far.
func (s *MemorySink) Entries() []model.AuditLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Query returns recorded entries matching filter, newest first.
func (s *MemorySink) Query(_ context.Context, filter *Filter) ([]model.AuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter.Apply(s.entries), nil
}

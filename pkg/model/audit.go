package model

import "time"

// DefaultActor is recorded when no actor is supplied.
const DefaultActor = "system"

// AuditLogEntry is an immutable record of one state change. BeforeJSON and
// AfterJSON hold serialized snapshots of the entity around the change.
type AuditLogEntry struct {
	ID            string    `json:"id"`
	Actor         string    `json:"actor"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entityType"`
	EntityID      string    `json:"entityId"`
	Timestamp     time.Time `json:"timestamp"`
	Reason        string    `json:"reason,omitempty"`
	CorrelationID string    `json:"correlationId"`
	BeforeJSON    string    `json:"beforeJson,omitempty"`
	AfterJSON     string    `json:"afterJson,omitempty"`
}

// GetID implements Entity.
func (a AuditLogEntry) GetID() string { return a.ID }

package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"gatecontrol-hq/gatecontrol/pkg/model"
)

// Audit actions.
const (
	ActionEnvironmentCreated   = "EnvironmentCreated"
	ActionEnvironmentUpdated   = "EnvironmentUpdated"
	ActionServiceCreated       = "ServiceCreated"
	ActionServiceUpdated       = "ServiceUpdated"
	ActionRouteCreated         = "RouteCreated"
	ActionRouteUpdated         = "RouteUpdated"
	ActionChangeRequestCreated = "ChangeRequestCreated"
	ActionChangeRequestUpdated = "ChangeRequestUpdated"
	ActionChangeRequestStatus  = "ChangeRequestStatus"
	ActionDelete               = "Delete"
	ActionPublish              = "Publish"
	ActionPublishFailed        = "PublishFailed"
)

// Reasons recorded on publish entries.
const (
	ReasonManualPublish    = "Manual publish"
	ReasonValidationFailed = "Validation failed"
	ReasonWriteFailed      = "Write failed"
)

// UpsertAction returns the Created or Updated action for entityType.
func UpsertAction(entityType string, created bool) string {
	if created {
		return entityType + "Created"
	}
	return entityType + "Updated"
}

// Entry describes an audit entry before it is stamped.
type Entry struct {
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Reason     string
	Before     string
	After      string

	// CorrelationID links entries to the request that caused them. A fresh
	// id is generated when empty.
	CorrelationID string
}

// NewEntry stamps e with a fresh id and timestamp.
func NewEntry(e Entry, now time.Time) model.AuditLogEntry {
	actor := e.Actor
	if actor == "" {
		actor = model.DefaultActor
	}
	correlationID := e.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	return model.AuditLogEntry{
		ID:            model.NewID(),
		Actor:         actor,
		Action:        e.Action,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		Timestamp:     now.UTC(),
		Reason:        e.Reason,
		CorrelationID: correlationID,
		BeforeJSON:    e.Before,
		AfterJSON:     e.After,
	}
}

// Snapshot serializes v as indented JSON for use as a before or after image.
// Values that cannot be encoded produce an empty snapshot.
func Snapshot(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

package model

import (
	"slices"
	"time"
)

// Publish statuses.
const (
	PublishPending   = "Pending"
	PublishFailed    = "Failed"
	PublishSucceeded = "Succeeded"
)

// PublishRecord is the immutable history entry of one publish attempt.
type PublishRecord struct {
	ID                string            `json:"id"`
	EnvironmentID     string            `json:"environmentId"`
	ChangeRequestID   string            `json:"changeRequestId,omitempty"`
	ConfigHash        string            `json:"configHash"`
	PublishedAt       time.Time         `json:"publishedAt"`
	Status            string            `json:"status"`
	PublishedBy       string            `json:"publishedBy,omitempty"`
	TargetNodes       []string          `json:"targetNodes"`
	Result            string            `json:"result,omitempty"`
	RollbackReference string            `json:"rollbackReference,omitempty"`
	ValidationIssues  []ValidationIssue `json:"validationIssues"`
}

// GetID implements Entity.
func (p PublishRecord) GetID() string { return p.ID }

// Clone returns a deep copy.
func (p PublishRecord) Clone() PublishRecord {
	p.TargetNodes = slices.Clone(p.TargetNodes)
	p.ValidationIssues = slices.Clone(p.ValidationIssues)
	return p
}

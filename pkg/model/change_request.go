package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Change request statuses.
const (
	ChangeRequestDraft     = "Draft"
	ChangeRequestInReview  = "InReview"
	ChangeRequestApproved  = "Approved"
	ChangeRequestRejected  = "Rejected"
	ChangeRequestPublished = "Published"
)

// ErrInvalidStatus is returned for an unknown change request status.
var ErrInvalidStatus = errors.New("invalid change request status")

var changeRequestStatuses = []string{
	ChangeRequestDraft,
	ChangeRequestInReview,
	ChangeRequestApproved,
	ChangeRequestRejected,
	ChangeRequestPublished,
}

// ParseChangeRequestStatus returns the canonical spelling of status.
func ParseChangeRequestStatus(status string) (string, error) {
	for _, s := range changeRequestStatuses {
		if strings.EqualFold(s, status) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

// ChangeRequest groups proposed entity changes for review before publish.
type ChangeRequest struct {
	ID            string              `json:"id"`
	EnvironmentID string              `json:"environmentId"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        string              `json:"status"`
	CreatedBy     string              `json:"createdBy"`
	CreatedAt     time.Time           `json:"createdAt"`
	ApprovedBy    string              `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time          `json:"approvedAt,omitempty"`
	PublishedBy   string              `json:"publishedBy,omitempty"`
	PublishedAt   *time.Time          `json:"publishedAt,omitempty"`
	RiskLevel     string              `json:"riskLevel,omitempty"`
	RollbackPlan  string              `json:"rollbackPlan,omitempty"`
	Justification string              `json:"justification,omitempty"`
	Items         []ChangeRequestItem `json:"items"`
}

// ChangeRequestItem is one entity change within a ChangeRequest.
type ChangeRequestItem struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	BeforeJSON json.RawMessage `json:"beforeJson,omitempty"`
	AfterJSON  json.RawMessage `json:"afterJson,omitempty"`
}

// NewChangeRequest returns a draft ChangeRequest.
func NewChangeRequest() ChangeRequest {
	return ChangeRequest{
		Status: ChangeRequestDraft,
		Items:  []ChangeRequestItem{},
	}
}

// GetID implements Entity.
func (c ChangeRequest) GetID() string { return c.ID }

// Clone returns a deep copy.
func (c ChangeRequest) Clone() ChangeRequest {
	if c.ApprovedAt != nil {
		t := *c.ApprovedAt
		c.ApprovedAt = &t
	}
	if c.PublishedAt != nil {
		t := *c.PublishedAt
		c.PublishedAt = &t
	}
	items := make([]ChangeRequestItem, len(c.Items))
	for i, item := range c.Items {
		item.BeforeJSON = slices.Clone(item.BeforeJSON)
		item.AfterJSON = slices.Clone(item.AfterJSON)
		items[i] = item
	}
	if c.Items == nil {
		items = nil
	}
	c.Items = items
	return c
}

// ApplyStatus moves the change request to status on behalf of actor.
// Approved and Published stamp the actor and time; InReview clears a
// previous approval.
func (c *ChangeRequest) ApplyStatus(status, actor string, now time.Time) {
	c.Status = status
	switch status {
	case ChangeRequestApproved:
		c.ApprovedBy = actor
		c.ApprovedAt = &now
	case ChangeRequestPublished:
		c.PublishedBy = actor
		c.PublishedAt = &now
	case ChangeRequestInReview:
		c.ApprovedBy = ""
		c.ApprovedAt = nil
	}
}

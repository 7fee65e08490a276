package store

import (
	"slices"

	"gatecontrol-hq/gatecontrol/pkg/model"
)

// Aggregate is the complete persisted state. It is always written and read
// as a whole.
type Aggregate struct {
	Environments   []model.Environment   `json:"environments"`
	Services       []model.Service       `json:"services"`
	Routes         []model.Route         `json:"routes"`
	ChangeRequests []model.ChangeRequest `json:"changeRequests"`
	PublishHistory []model.PublishRecord `json:"publishHistory"`
	AuditLogs      []model.AuditLogEntry `json:"auditLogs"`
}

// NewAggregate returns an empty aggregate with non-nil collections.
func NewAggregate() *Aggregate {
	a := &Aggregate{}
	a.normalize()
	return a
}

// normalize replaces nil collections so snapshots encode them as [].
func (a *Aggregate) normalize() {
	if a.Environments == nil {
		a.Environments = []model.Environment{}
	}
	if a.Services == nil {
		a.Services = []model.Service{}
	}
	if a.Routes == nil {
		a.Routes = []model.Route{}
	}
	if a.ChangeRequests == nil {
		a.ChangeRequests = []model.ChangeRequest{}
	}
	if a.PublishHistory == nil {
		a.PublishHistory = []model.PublishRecord{}
	}
	if a.AuditLogs == nil {
		a.AuditLogs = []model.AuditLogEntry{}
	}
}

// Clone returns a deep copy.
func (a *Aggregate) Clone() *Aggregate {
	return &Aggregate{
		Environments:   cloneAll(a.Environments, model.Environment.Clone),
		Services:       cloneAll(a.Services, model.Service.Clone),
		Routes:         cloneAll(a.Routes, model.Route.Clone),
		ChangeRequests: cloneAll(a.ChangeRequests, model.ChangeRequest.Clone),
		PublishHistory: cloneAll(a.PublishHistory, model.PublishRecord.Clone),
		AuditLogs:      slices.Clone(a.AuditLogs),
	}
}

func cloneAll[T any](items []T, clone func(T) T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = clone(item)
	}
	return out
}

package main

import (
	"strconv"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/drift"
	"gatecontrol-hq/gatecontrol/pkg/model"
)

// reportTable renders a validation report as one row per issue. JSON
// output encodes the report itself.
type reportTable struct {
	model.ValidationReport
}

func (t reportTable) Header() []string {
	return []string{"SEVERITY", "CODE", "ROUTE", "FIELD", "MESSAGE"}
}

func (t reportTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Issues))
	for _, issue := range t.Issues {
		rows = append(rows, []string{issue.Severity, issue.Code, issue.RouteID, issue.Field, issue.Message})
	}
	return rows
}

type publishTable []model.PublishRecord

func (t publishTable) Header() []string {
	return []string{"ID", "ENVIRONMENT", "STATUS", "PUBLISHED AT", "BY", "HASH", "RESULT"}
}

func (t publishTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, rec := range t {
		rows = append(rows, []string{
			rec.ID,
			rec.EnvironmentID,
			rec.Status,
			rec.PublishedAt.Format(time.RFC3339),
			rec.PublishedBy,
			shortHash(rec.ConfigHash),
			rec.Result,
		})
	}
	return rows
}

type auditTable []model.AuditLogEntry

func (t auditTable) Header() []string {
	return []string{"TIMESTAMP", "ACTOR", "ACTION", "ENTITY", "ID", "REASON"}
}

func (t auditTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		rows = append(rows, []string{
			e.Timestamp.Format(time.RFC3339),
			e.Actor,
			e.Action,
			e.EntityType,
			e.EntityID,
			e.Reason,
		})
	}
	return rows
}

type driftTable []drift.Report

func (t driftTable) Header() []string {
	return []string{"ENVIRONMENT", "FILE", "TAMPERED", "PENDING", "PUBLISHED HASH", "FILE HASH", "MODEL HASH"}
}

func (t driftTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.EnvironmentID,
			r.Path,
			strconv.FormatBool(r.Tampered),
			strconv.FormatBool(r.Pending),
			shortHash(r.PublishedHash),
			shortHash(r.FileHash),
			shortHash(r.ModelHash),
		})
	}
	return rows
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

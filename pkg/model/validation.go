package model

import (
	"encoding/json"
	"strings"
)

// Validation severities.
const (
	SeverityError   = "Error"
	SeverityWarning = "Warning"
)

// ValidationIssue is a single rule violation found in an environment.
type ValidationIssue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	RouteID  string `json:"routeId,omitempty"`
	Field    string `json:"field,omitempty"`
}

// ValidationReport lists the issues found in one environment together with
// the hash of the configuration that would be published.
type ValidationReport struct {
	Issues     []ValidationIssue `json:"issues"`
	ConfigHash string            `json:"configHash,omitempty"`
}

// IsValid reports whether no issue has Error severity.
func (r ValidationReport) IsValid() bool {
	for _, issue := range r.Issues {
		if strings.EqualFold(issue.Severity, SeverityError) {
			return false
		}
	}
	return true
}

// MarshalJSON includes the derived isValid flag.
func (r ValidationReport) MarshalJSON() ([]byte, error) {
	type plain ValidationReport
	issues := r.Issues
	if issues == nil {
		issues = []ValidationIssue{}
	}
	p := plain(r)
	p.Issues = issues
	return json.Marshal(struct {
		plain
		IsValid bool `json:"isValid"`
	}{p, r.IsValid()})
}

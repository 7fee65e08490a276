// Package validator checks an environment's routes for structural and
// semantic errors and reports the hash of the configuration that would be
// published.
package validator

import (
	"log/slog"
	"strings"

	"gatecontrol-hq/gatecontrol/pkg/generator"
	"gatecontrol-hq/gatecontrol/pkg/model"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/metrics"
)

// Issue codes.
const (
	CodeEnvironmentNotFound     = "ENVIRONMENT_NOT_FOUND"
	CodeDuplicateRoute          = "DUPLICATE_ROUTE"
	CodeUpstreamRequired        = "UPSTREAM_REQUIRED"
	CodeDownstreamRequired      = "DOWNSTREAM_REQUIRED"
	CodeDownstreamTargetMissing = "DOWNSTREAM_TARGET_MISSING"
	CodeServiceNotFound         = "SERVICE_NOT_FOUND"
	CodeWildcardPath            = "WILDCARD_PATH"
)

// anyMethod stands in for a route that lists no methods.
const anyMethod = "ANY"

// Validator validates environments read from a generator.ViewSource.
type Validator struct {
	source  generator.ViewSource
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New creates a Validator. collector may be nil.
func New(source generator.ViewSource, collector *metrics.Collector) *Validator {
	return &Validator{
		source:  source,
		metrics: collector,
		logger:  slog.Default().With("component", "validator"),
	}
}

// ValidateEnvironment checks every route of envID, active or not, then
// compiles the environment and records the config hash. Issues are data;
// the error is non-nil only when serialization fails.
func (v *Validator) ValidateEnvironment(envID string) (model.ValidationReport, error) {
	report := model.ValidationReport{Issues: []model.ValidationIssue{}}

	view, ok := v.source.EnvironmentView(envID)
	if !ok {
		report.Issues = append(report.Issues, model.ValidationIssue{
			Code:     CodeEnvironmentNotFound,
			Message:  "Environment not found",
			Severity: model.SeverityError,
		})
		v.record(report)
		return report, nil
	}

	report.Issues = append(report.Issues, duplicateRoutes(view.Routes)...)
	for _, r := range view.Routes {
		report.Issues = append(report.Issues, checkRoute(r, view)...)
	}

	data, err := generator.Marshal(generator.Compile(view))
	if err != nil {
		return report, err
	}
	report.ConfigHash = generator.Hash(data)

	v.record(report)
	v.logger.Debug("environment validated",
		"environment", envID,
		"issues", len(report.Issues),
		"valid", report.IsValid(),
	)
	return report, nil
}

func (v *Validator) record(report model.ValidationReport) {
	for _, issue := range report.Issues {
		v.metrics.RecordValidationIssue(issue.Code, issue.Severity)
	}
}

type dupKey struct {
	path   string
	method string
}

type dupGroup struct {
	path    string
	method  string
	members []string
}

// duplicateRoutes groups (route, method) pairs by upstream path and method,
// both case-insensitive, and reports every member of a group with more than
// one entry. Groups are reported in order of first appearance.
func duplicateRoutes(routes []model.Route) []model.ValidationIssue {
	index := map[dupKey]int{}
	var groups []*dupGroup

	for _, r := range routes {
		methods := r.UpstreamMethods
		if len(methods) == 0 {
			methods = []string{anyMethod}
		}
		for _, m := range methods {
			key := dupKey{path: strings.ToLower(r.UpstreamPathTemplate), method: strings.ToLower(m)}
			i, ok := index[key]
			if !ok {
				i = len(groups)
				index[key] = i
				groups = append(groups, &dupGroup{path: r.UpstreamPathTemplate, method: m})
			}
			groups[i].members = append(groups[i].members, r.ID)
		}
	}

	var issues []model.ValidationIssue
	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}
		for _, routeID := range g.members {
			issues = append(issues, model.ValidationIssue{
				Code:     CodeDuplicateRoute,
				Message:  "Duplicate upstream " + g.method + " " + g.path,
				Severity: model.SeverityError,
				RouteID:  routeID,
				Field:    "UpstreamPathTemplate",
			})
		}
	}
	return issues
}

func checkRoute(r model.Route, view model.EnvironmentView) []model.ValidationIssue {
	var issues []model.ValidationIssue
	add := func(code, message, severity, field string) {
		issues = append(issues, model.ValidationIssue{
			Code:     code,
			Message:  message,
			Severity: severity,
			RouteID:  r.ID,
			Field:    field,
		})
	}

	if strings.TrimSpace(r.UpstreamPathTemplate) == "" {
		add(CodeUpstreamRequired, "UpstreamPathTemplate is required", model.SeverityError, "UpstreamPathTemplate")
	}
	if strings.TrimSpace(r.DownstreamPathTemplate) == "" {
		add(CodeDownstreamRequired, "DownstreamPathTemplate is required", model.SeverityError, "DownstreamPathTemplate")
	}

	hasService := strings.TrimSpace(r.DownstreamServiceID) != ""
	if !hasService && len(r.DownstreamHostAndPorts) == 0 {
		add(CodeDownstreamTargetMissing, "Specify either DownstreamServiceId or DownstreamHostAndPorts", model.SeverityError, "DownstreamServiceId")
	}
	if hasService {
		if _, ok := view.Service(r.DownstreamServiceID); !ok {
			add(CodeServiceNotFound, "Route references missing service "+r.DownstreamServiceID, model.SeverityError, "DownstreamServiceId")
		}
	}

	if strings.Contains(r.UpstreamPathTemplate, "**") {
		add(CodeWildcardPath, "Wildcard upstream path detected; requires explicit approval", model.SeverityWarning, "UpstreamPathTemplate")
	}
	return issues
}

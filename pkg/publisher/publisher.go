package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/audit"
	"gatecontrol-hq/gatecontrol/pkg/generator"
	"gatecontrol-hq/gatecontrol/pkg/model"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/logging"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/metrics"
	"gatecontrol-hq/gatecontrol/pkg/validator"
)

// Result texts recorded on publish records.
const (
	ResultValidationFailed = "Validation failed"
	ResultSucceeded        = "Config written and ready for reload"
	ResultModelChanged     = "Model changed during publish"
	resultWriteFailed      = "Write failed: "
)

// maxBuildAttempts bounds how often a publish re-validates when the model
// changes between validation and build.
const maxBuildAttempts = 3

// Store is the part of the entity store the publisher needs.
type Store interface {
	generator.ViewSource
	LastSuccessfulPublish(envID string) (model.PublishRecord, bool)
	RecordPublish(ctx context.Context, rec model.PublishRecord, entry model.AuditLogEntry) error
}

// Request describes one publish attempt.
type Request struct {
	EnvironmentID   string   `json:"environmentId"`
	Actor           string   `json:"actor"`
	ChangeRequestID string   `json:"changeRequestId"`
	TargetNodes     []string `json:"targetNodes"`
}

// Publisher runs publish attempts one at a time.
type Publisher struct {
	mu sync.Mutex

	store     Store
	writer    ArtifactWriter
	fileName  string
	validator *validator.Validator
	generator *generator.Generator
	mirrors   []Mirror
	reloader  Reloader

	metrics *metrics.Collector
	clock   func() time.Time
	logger  *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithMirror adds an artifact mirror.
func WithMirror(m Mirror) Option {
	return func(p *Publisher) {
		p.mirrors = append(p.mirrors, m)
	}
}

// WithReloader sets the reload notifier for target nodes.
func WithReloader(r Reloader) Option {
	return func(p *Publisher) {
		p.reloader = r
	}
}

// WithMetrics records publish and validation metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Publisher) {
		p.metrics = c
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) {
		p.clock = clock
	}
}

// New creates a Publisher writing through writer.
func New(store Store, writer ArtifactWriter, opts ...Option) *Publisher {
	p := &Publisher{
		store:     store,
		writer:    writer,
		fileName:  "ocelot.json",
		generator: generator.New(store),
		clock:     time.Now,
		logger:    slog.Default().With("component", "publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if fw, ok := writer.(*FileWriter); ok {
		p.fileName = fw.FileName()
	}
	p.validator = validator.New(store, p.metrics)
	return p
}

// Validator returns the validator used by the publisher.
func (p *Publisher) Validator() *validator.Validator {
	return p.validator
}

// Publish validates and writes the configuration of req.EnvironmentID.
//
// A validation failure is not an error: the returned record has status
// Failed and carries the issues. A write failure is recorded as a Failed
// attempt and returned as a *WriteError.
func (p *Publisher) Publish(ctx context.Context, req Request) (model.PublishRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	actor := req.Actor
	if actor == "" {
		actor = logging.GetActor(ctx)
	}
	if actor == "" {
		actor = model.DefaultActor
	}
	targets := req.TargetNodes
	if targets == nil {
		targets = []string{}
	}

	rec := model.PublishRecord{
		ID:               model.NewID(),
		EnvironmentID:    req.EnvironmentID,
		ChangeRequestID:  req.ChangeRequestID,
		PublishedAt:      p.clock().UTC(),
		Status:           model.PublishPending,
		PublishedBy:      actor,
		TargetNodes:      append([]string(nil), targets...),
		ValidationIssues: []model.ValidationIssue{},
	}
	logger := p.logger.With("environment", req.EnvironmentID, "publish_id", rec.ID, "actor", actor)

	var (
		report model.ValidationReport
		doc    *generator.Document
		data   []byte
	)
	for attempt := 1; ; attempt++ {
		var err error
		report, err = p.validator.ValidateEnvironment(req.EnvironmentID)
		if err != nil {
			return p.fail(ctx, rec, start, audit.ReasonWriteFailed, resultWriteFailed+err.Error(), err)
		}
		rec.ValidationIssues = report.Issues

		if !report.IsValid() {
			logger.WarnContext(ctx, "publish rejected by validation", "issues", len(report.Issues))
			return p.fail(ctx, rec, start, audit.ReasonValidationFailed, ResultValidationFailed, nil)
		}

		doc, err = p.generator.Build(req.EnvironmentID)
		if err != nil {
			return p.fail(ctx, rec, start, audit.ReasonWriteFailed, resultWriteFailed+err.Error(), err)
		}
		data, err = generator.Marshal(doc)
		if err != nil {
			return p.fail(ctx, rec, start, audit.ReasonWriteFailed, resultWriteFailed+err.Error(), err)
		}

		// The document must be the one that was validated.
		if generator.Hash(data) == report.ConfigHash {
			break
		}
		if attempt == maxBuildAttempts {
			logger.WarnContext(ctx, "model kept changing during publish", "attempts", attempt)
			return p.fail(ctx, rec, start, audit.ReasonValidationFailed, ResultModelChanged, nil)
		}
		logger.InfoContext(ctx, "model changed during publish, revalidating", "attempt", attempt)
	}

	path := p.writer.Path(req.EnvironmentID)
	if err := p.writer.Write(ctx, req.EnvironmentID, data); err != nil {
		werr := &WriteError{EnvironmentID: req.EnvironmentID, Path: path, Cause: err}
		logger.ErrorContext(ctx, "failed to write published config", "path", path, "error", err)
		return p.fail(ctx, rec, start, audit.ReasonWriteFailed, resultWriteFailed+err.Error(), werr)
	}

	rec.ConfigHash = report.ConfigHash
	if prev, ok := p.store.LastSuccessfulPublish(req.EnvironmentID); ok {
		rec.RollbackReference = prev.ID
	}

	warnings := p.distribute(ctx, Artifact{
		EnvironmentID: req.EnvironmentID,
		FileName:      p.fileName,
		Data:          data,
		Record:        rec,
	}, targets)

	rec.Status = model.PublishSucceeded
	rec.Result = ResultSucceeded
	if len(warnings) > 0 {
		rec.Result += " (warnings: " + strings.Join(warnings, "; ") + ")"
	}

	entry := audit.NewEntry(audit.Entry{
		Actor:      actor,
		Action:     audit.ActionPublish,
		EntityType: model.EntityTypeEnvironment,
		EntityID:   req.EnvironmentID,
		Reason:     audit.ReasonManualPublish,
		After:      string(data),

		CorrelationID: logging.GetRequestID(ctx),
	}, p.clock())
	if err := p.store.RecordPublish(ctx, rec, entry); err != nil {
		return rec, fmt.Errorf("failed to record publish: %w", err)
	}

	p.metrics.RecordPublish(req.EnvironmentID, rec.Status, time.Since(start))
	logger.InfoContext(ctx, "config published",
		"path", path,
		"config_hash", rec.ConfigHash,
		"routes", len(doc.Routes),
		"warnings", len(warnings),
	)
	return rec, nil
}

// fail records a Failed attempt with its PublishFailed audit entry and
// returns cause, or the persist error if recording itself fails.
func (p *Publisher) fail(ctx context.Context, rec model.PublishRecord, start time.Time, reason, result string, cause error) (model.PublishRecord, error) {
	rec.Status = model.PublishFailed
	rec.Result = result
	rec.ConfigHash = ""

	entry := audit.NewEntry(audit.Entry{
		Actor:      rec.PublishedBy,
		Action:     audit.ActionPublishFailed,
		EntityType: model.EntityTypeEnvironment,
		EntityID:   rec.EnvironmentID,
		Reason:     reason,

		CorrelationID: logging.GetRequestID(ctx),
	}, p.clock())
	if err := p.store.RecordPublish(ctx, rec, entry); err != nil {
		if cause != nil {
			return rec, fmt.Errorf("%w (also failed to record attempt: %v)", cause, err)
		}
		return rec, fmt.Errorf("failed to record publish: %w", err)
	}
	p.metrics.RecordPublish(rec.EnvironmentID, rec.Status, time.Since(start))
	return rec, cause
}

// distribute runs mirrors and reload notifications. Failures become
// warnings on the record.
func (p *Publisher) distribute(ctx context.Context, artifact Artifact, targets []string) []string {
	var warnings []string
	for _, m := range p.mirrors {
		if err := m.Mirror(ctx, artifact); err != nil {
			p.metrics.RecordMirrorError(m.Name())
			p.logger.WarnContext(ctx, "artifact mirror failed", "mirror", m.Name(), "environment", artifact.EnvironmentID, "error", err)
			warnings = append(warnings, m.Name()+" mirror failed: "+err.Error())
		}
	}
	if p.reloader == nil {
		return warnings
	}
	for _, node := range targets {
		if err := p.reloader.Reload(ctx, node); err != nil {
			p.metrics.RecordMirrorError("reload")
			p.logger.WarnContext(ctx, "gateway reload failed", "node", node, "error", err)
			warnings = append(warnings, "reload "+node+" failed: "+err.Error())
		}
	}
	return warnings
}

package drift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/generator"
	"gatecontrol-hq/gatecontrol/pkg/model"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/metrics"
)

// Drift kinds used as metric labels.
const (
	KindTampered = "tampered"
	KindPending  = "pending"
)

// Source is the part of the entity store the detector reads.
type Source interface {
	generator.ViewSource
	Environments() []model.Environment
	LastSuccessfulPublish(envID string) (model.PublishRecord, bool)
}

// Locator resolves where an environment's artifact is published.
type Locator interface {
	Path(envID string) string
}

// Report is the drift state of one environment.
type Report struct {
	EnvironmentID string    `json:"environmentId"`
	Path          string    `json:"path"`
	FileExists    bool      `json:"fileExists"`
	FileHash      string    `json:"fileHash,omitempty"`
	PublishedHash string    `json:"publishedHash,omitempty"`
	PublishID     string    `json:"publishId,omitempty"`
	ModelHash     string    `json:"modelHash"`
	Tampered      bool      `json:"tampered"`
	Pending       bool      `json:"pending"`
	CheckedAt     time.Time `json:"checkedAt"`
}

// Drifted reports whether any kind of drift was found.
func (r Report) Drifted() bool {
	return r.Tampered || r.Pending
}

// Detector compares published artifacts with publish history and the
// live model.
type Detector struct {
	source  Source
	locator Locator
	metrics *metrics.Collector
	clock   func() time.Time
	logger  *slog.Logger
}

// NewDetector creates a Detector. collector may be nil.
func NewDetector(source Source, locator Locator, collector *metrics.Collector) *Detector {
	return &Detector{
		source:  source,
		locator: locator,
		metrics: collector,
		clock:   time.Now,
		logger:  slog.Default().With("component", "drift"),
	}
}

// Check computes the drift report of envID.
func (d *Detector) Check(_ context.Context, envID string) (Report, error) {
	view, ok := d.source.EnvironmentView(envID)
	if !ok {
		d.metrics.RecordDriftCheck("error")
		return Report{}, fmt.Errorf("environment %s: %w", envID, model.ErrNotFound)
	}

	report := Report{
		EnvironmentID: envID,
		Path:          d.locator.Path(envID),
		CheckedAt:     d.clock().UTC(),
	}

	data, err := generator.Marshal(generator.Compile(view))
	if err != nil {
		d.metrics.RecordDriftCheck("error")
		return Report{}, err
	}
	report.ModelHash = generator.Hash(data)

	file, err := os.ReadFile(report.Path)
	switch {
	case err == nil:
		report.FileExists = true
		report.FileHash = generator.Hash(file)
	case errors.Is(err, os.ErrNotExist):
	default:
		d.metrics.RecordDriftCheck("error")
		return Report{}, fmt.Errorf("failed to read published config: %w", err)
	}

	last, published := d.source.LastSuccessfulPublish(envID)
	if published {
		report.PublishedHash = last.ConfigHash
		report.PublishID = last.ID
		report.Tampered = !report.FileExists || report.FileHash != last.ConfigHash
		report.Pending = report.ModelHash != last.ConfigHash
	} else {
		// A file nobody published is foreign.
		report.Tampered = report.FileExists
		report.Pending = true
	}

	d.metrics.SetDrift(envID, KindTampered, report.Tampered)
	d.metrics.SetDrift(envID, KindPending, report.Pending)
	if report.Drifted() {
		d.metrics.RecordDriftCheck("drift")
	} else {
		d.metrics.RecordDriftCheck("clean")
	}

	if report.Tampered {
		d.logger.Warn("published config does not match publish history",
			"environment", envID,
			"path", report.Path,
			"file_exists", report.FileExists,
			"file_hash", report.FileHash,
			"published_hash", report.PublishedHash,
		)
	}
	return report, nil
}

// CheckAll checks every environment. A failing environment is logged and
// skipped.
func (d *Detector) CheckAll(ctx context.Context) []Report {
	var reports []Report
	for _, env := range d.source.Environments() {
		if ctx.Err() != nil {
			break
		}
		r, err := d.Check(ctx, env.ID)
		if err != nil {
			d.logger.Error("drift check failed", "environment", env.ID, "error", err)
			continue
		}
		reports = append(reports, r)
	}
	return reports
}

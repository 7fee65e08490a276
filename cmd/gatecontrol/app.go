package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gatecontrol-hq/gatecontrol/pkg/audit"
	"gatecontrol-hq/gatecontrol/pkg/config"
	"gatecontrol-hq/gatecontrol/pkg/drift"
	"gatecontrol-hq/gatecontrol/pkg/importer"
	"gatecontrol-hq/gatecontrol/pkg/model"
	"gatecontrol-hq/gatecontrol/pkg/publisher"
	"gatecontrol-hq/gatecontrol/pkg/store"
	"gatecontrol-hq/gatecontrol/pkg/telemetry/metrics"
)

// app holds the components shared by the commands.
type app struct {
	cfg       *config.Config
	metrics   *metrics.Collector
	store     *store.Store
	writer    *publisher.FileWriter
	publisher *publisher.Publisher
	importer  *importer.Importer
	drift     *drift.Detector

	// auditIndex is nil unless audit.index.enabled is set.
	auditIndex *audit.SQLiteIndex

	closers []func() error
}

// newApp opens the store and wires the pipeline from cfg. withMetrics
// enables the Prometheus collector; one-shot commands leave it off.
func newApp(ctx context.Context, cfg *config.Config, withMetrics bool) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if withMetrics && cfg.Telemetry.Metrics.Enabled {
		a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	storeOpts := []store.Option{store.WithMetrics(a.metrics)}
	if cfg.Audit.Index.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Audit.Index.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit index directory: %w", err)
		}
		idxCfg := audit.DefaultSQLiteConfig()
		idxCfg.Path = cfg.Audit.Index.Path
		a.auditIndex, err = audit.NewSQLiteIndex(idxCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit index: %w", err)
		}
		a.closers = append(a.closers, a.auditIndex.Close)
		storeOpts = append(storeOpts, store.WithSink("sqlite", a.auditIndex))
	}

	snap, err := store.OpenSnapshotter(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	a.store, err = store.New(ctx, snap, storeOpts...)
	if err != nil {
		snap.Close()
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)

	a.writer = publisher.NewFileWriter(cfg.Publish.Root, cfg.Publish.FileName)
	pubOpts := []publisher.Option{publisher.WithMetrics(a.metrics)}

	if cfg.Publish.S3.Enabled {
		mirror, err := publisher.NewS3Mirror(ctx, cfg.Publish.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to configure S3 mirror: %w", err)
		}
		pubOpts = append(pubOpts, publisher.WithMirror(mirror))
	}
	if cfg.Publish.Git.Enabled {
		mirror, err := publisher.NewGitMirror(cfg.Publish.Git)
		if err != nil {
			return nil, fmt.Errorf("failed to configure git mirror: %w", err)
		}
		pubOpts = append(pubOpts, publisher.WithMirror(mirror))
	}
	if cfg.Publish.Reload.Enabled {
		reloader, err := publisher.NewDockerReloader(cfg.Publish.Reload.Signal)
		if err != nil {
			return nil, fmt.Errorf("failed to configure docker reload: %w", err)
		}
		a.closers = append(a.closers, reloader.Close)
		pubOpts = append(pubOpts, publisher.WithReloader(reloader))
	}

	a.publisher = publisher.New(a.store, a.writer, pubOpts...)
	a.importer = importer.New(a.store)
	a.drift = drift.NewDetector(a.store, a.writer, a.metrics)

	slog.Default().Debug("control plane initialized",
		"component", "cli",
		"backend", a.store.Backend(),
		"publish_root", a.writer.Root(),
		"audit_index", cfg.Audit.Index.Enabled,
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openApp builds the app from the loaded process configuration.
func openApp(ctx context.Context, withMetrics bool) (*app, error) {
	return newApp(ctx, config.MustGetConfig(), withMetrics)
}

// resolveEnvironment accepts an environment id or a case-insensitive name.
func (a *app) resolveEnvironment(ref string) (model.Environment, error) {
	if env, ok := a.store.Environment(ref); ok {
		return env, nil
	}
	var matches []model.Environment
	for _, env := range a.store.Environments() {
		if strings.EqualFold(env.Name, ref) {
			matches = append(matches, env)
		}
	}
	switch len(matches) {
	case 0:
		return model.Environment{}, fmt.Errorf("environment %q: %w", ref, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Environment{}, fmt.Errorf("environment name %q is ambiguous (%d matches), use the id", ref, len(matches))
	}
}

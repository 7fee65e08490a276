package store

import (
	"context"
	"fmt"

	"gatecontrol-hq/gatecontrol/pkg/config"
)

// Snapshotter persists the full aggregate.
//
// Load reports found=false when no snapshot exists yet. Save must replace
// the previous snapshot atomically: after a crash either the old or the new
// snapshot is observed. Ping checks the backend is reachable without
// writing the aggregate.
type Snapshotter interface {
	Backend() string
	Load(ctx context.Context) (agg *Aggregate, found bool, err error)
	Save(ctx context.Context, agg *Aggregate) error
	Ping(ctx context.Context) error
	Close() error
}

// OpenSnapshotter constructs the backend selected in cfg.
func OpenSnapshotter(ctx context.Context, cfg config.StorageConfig) (Snapshotter, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileSnapshotter(cfg.File.Path)
	case "sqlite":
		return NewSQLiteSnapshotter(ctx, cfg.SQLite.Path, cfg.SQLite.BusyTimeout)
	case "postgres":
		return NewPostgresSnapshotter(ctx, cfg.Postgres.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

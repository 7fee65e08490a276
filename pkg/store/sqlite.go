package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteSnapshotter stores the aggregate in a SQLite database.
type SQLiteSnapshotter struct {
	sqlSnapshotter
	path string
}

// NewSQLiteSnapshotter opens (and creates) the database at path.
func NewSQLiteSnapshotter(ctx context.Context, path string, busyTimeout time.Duration) (*SQLiteSnapshotter, error) {
	if path == "" {
		return nil, NewPersistError("sqlite", "open", errors.New("path is required"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, NewPersistError("sqlite", "open", fmt.Errorf("create dirs: %w", err))
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, NewPersistError("sqlite", "open", err)
	}
	// One writer; the store already serializes mutations.
	db.SetMaxOpenConns(1)

	if busyTimeout > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
			db.Close()
			return nil, NewPersistError("sqlite", "set_busy_timeout", err)
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS gatecontrol_state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, NewPersistError("sqlite", "create_schema", err)
	}

	return &SQLiteSnapshotter{
		sqlSnapshotter: sqlSnapshotter{
			db:      db,
			backend: "sqlite",
			upsert:  `INSERT INTO gatecontrol_state(bucket, payload) VALUES(?, ?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
		},
		path: path,
	}, nil
}

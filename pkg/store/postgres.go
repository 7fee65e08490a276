package store

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

var sqlOpen = sql.Open

// PostgresSnapshotter stores the aggregate in PostgreSQL as JSONB rows.
type PostgresSnapshotter struct {
	sqlSnapshotter
}

// NewPostgresSnapshotter connects using dsn and ensures the state table exists.
func NewPostgresSnapshotter(ctx context.Context, dsn string) (*PostgresSnapshotter, error) {
	if dsn == "" {
		return nil, NewPersistError("postgres", "open", errors.New("dsn is required"))
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, NewPersistError("postgres", "open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewPersistError("postgres", "ping", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS gatecontrol_state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, NewPersistError("postgres", "create_schema", err)
	}

	return &PostgresSnapshotter{
		sqlSnapshotter: sqlSnapshotter{
			db:      db,
			backend: "postgres",
			upsert:  `INSERT INTO gatecontrol_state(bucket, payload) VALUES($1, $2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`,
		},
	}, nil
}

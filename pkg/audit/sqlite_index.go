package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"gatecontrol-hq/gatecontrol/pkg/model"
)

// SQLiteConfig configures the SQLite audit index.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// WALMode enables Write-Ahead Logging.
	// Default: true via DefaultSQLiteConfig
	WALMode bool

	// BusyTimeout is how long to wait on a locked database.
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite index configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/audit.db",
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteIndex mirrors audit entries into a SQLite database for querying.
type SQLiteIndex struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteIndex opens the index and creates its schema.
func NewSQLiteIndex(config *SQLiteConfig) (*SQLiteIndex, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "audit.index.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(1)

	idx := &SQLiteIndex{db: db, config: config, logger: logger}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("audit index initialized", "path", config.Path, "wal_mode", config.WALMode)
	return idx, nil
}

func (s *SQLiteIndex) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
	}
	if s.config.BusyTimeout > 0 {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
			return NewStorageError("sqlite", "set_busy_timeout", err)
		}
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Record inserts entries in one transaction. Entries already present are skipped.
func (s *SQLiteIndex) Record(ctx context.Context, entries []model.AuditLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO audit_log (
			id, actor, action, entity_type, entity_id, timestamp,
			reason, correlation_id, before_json, after_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return NewStorageError("sqlite", "prepare", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.Actor, e.Action, e.EntityType, e.EntityID, e.Timestamp.UTC(),
			nullString(e.Reason), e.CorrelationID, nullString(e.BeforeJSON), nullString(e.AfterJSON),
		); err != nil {
			return NewStorageError("sqlite", "record", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError("sqlite", "commit", err)
	}
	return nil
}

// Query returns entries matching filter, newest first.
func (s *SQLiteIndex) Query(ctx context.Context, filter *Filter) ([]model.AuditLogEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter != nil {
		if filter.EntityType != "" {
			where = append(where, "entity_type = ? COLLATE NOCASE")
			args = append(args, filter.EntityType)
		}
		if filter.EntityID != "" {
			where = append(where, "entity_id = ?")
			args = append(args, filter.EntityID)
		}
		if filter.Actor != "" {
			where = append(where, "actor = ?")
			args = append(args, filter.Actor)
		}
		if filter.Action != "" {
			where = append(where, "action = ? COLLATE NOCASE")
			args = append(args, filter.Action)
		}
		if filter.Since != nil {
			where = append(where, "timestamp >= ?")
			args = append(args, filter.Since.UTC())
		}
	}

	query := `SELECT id, actor, action, entity_type, entity_id, timestamp,
		reason, correlation_id, before_json, after_json FROM audit_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY seq DESC LIMIT %d", filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	entries := []model.AuditLogEntry{}
	for rows.Next() {
		var (
			e                     model.AuditLogEntry
			reason, before, after sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.EntityType, &e.EntityID, &e.Timestamp,
			&reason, &e.CorrelationID, &before, &after); err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		e.Reason = reason.String
		e.BeforeJSON = before.String
		e.AfterJSON = after.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "scan", err)
	}
	return entries, nil
}

// Count returns the number of indexed entries.
func (s *SQLiteIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_log").Scan(&n); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

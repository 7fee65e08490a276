package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// buckets are the rows of the state table, one per aggregate collection.
var buckets = []string{"environments", "services", "routes", "changeRequests", "publishHistory", "auditLogs"}

func bucketField(agg *Aggregate, bucket string) any {
	switch bucket {
	case "environments":
		return &agg.Environments
	case "services":
		return &agg.Services
	case "routes":
		return &agg.Routes
	case "changeRequests":
		return &agg.ChangeRequests
	case "publishHistory":
		return &agg.PublishHistory
	case "auditLogs":
		return &agg.AuditLogs
	}
	return nil
}

// sqlSnapshotter stores the aggregate in a bucket/payload table, one row
// per collection, rewritten in a single transaction.
type sqlSnapshotter struct {
	db      *sql.DB
	backend string
	upsert  string
}

func (s *sqlSnapshotter) Backend() string { return s.backend }

func (s *sqlSnapshotter) Load(ctx context.Context) (*Aggregate, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM gatecontrol_state`)
	if err != nil {
		return nil, false, NewPersistError(s.backend, "load", err)
	}
	defer rows.Close()

	agg := NewAggregate()
	found := false
	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, false, NewPersistError(s.backend, "scan", err)
		}
		field := bucketField(agg, bucket)
		if field == nil {
			continue
		}
		if err := json.Unmarshal(payload, field); err != nil {
			return nil, false, NewPersistError(s.backend, "decode", fmt.Errorf("bucket %s: %w", bucket, err))
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, false, NewPersistError(s.backend, "load", err)
	}
	if !found {
		return nil, false, nil
	}
	agg.normalize()
	return agg, true, nil
}

func (s *sqlSnapshotter) Save(ctx context.Context, agg *Aggregate) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewPersistError(s.backend, "begin", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, bucket := range buckets {
		payload, err := json.Marshal(bucketField(agg, bucket))
		if err != nil {
			return NewPersistError(s.backend, "encode", err)
		}
		if _, err := tx.ExecContext(ctx, s.upsert, bucket, payload); err != nil {
			return NewPersistError(s.backend, "save", fmt.Errorf("upsert %s: %w", bucket, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return NewPersistError(s.backend, "commit", err)
	}
	return nil
}

func (s *sqlSnapshotter) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewPersistError(s.backend, "ping", err)
	}
	return nil
}

func (s *sqlSnapshotter) Close() error {
	return s.db.Close()
}

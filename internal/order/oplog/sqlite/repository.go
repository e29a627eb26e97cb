// Package sqlite provides the SQLite-backed implementation of
// oplog.Repository. WAL mode is enabled so the submission goroutine can
// write while a status endpoint reads.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mezehub/ordering/internal/order/oplog"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS submission_logs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Not UNIQUE: multiple rows exist per submission, one per transition.
    order_id     TEXT NOT NULL,
    order_number TEXT NOT NULL DEFAULT '',

    status       TEXT NOT NULL,
    step         TEXT NOT NULL DEFAULT '',
    errors       TEXT NOT NULL DEFAULT '[]',

    trace_id     TEXT NOT NULL DEFAULT '',
    span_id      TEXT NOT NULL DEFAULT '',

    -- RFC3339 stored as TEXT, SQLite idiom.
    updated_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submission_logs_order_id ON submission_logs(order_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_submission_logs_trace_id ON submission_logs(trace_id);
`

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the submission log database at the given path.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply oplog schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends a new log row. Safe for concurrent use.
func (r *Repository) Save(ctx context.Context, e *oplog.Entry) error {
	const q = `
		INSERT INTO submission_logs
			(order_id, order_number, status, step, errors, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		e.OrderID,
		e.OrderNumber,
		string(e.Status),
		e.Step,
		e.Errors,
		e.TraceID,
		e.SpanID,
		e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save submission log for %q: %w", e.OrderID, err)
	}
	return nil
}

// Latest returns the most recent log row for an order id.
func (r *Repository) Latest(ctx context.Context, orderID string) (*oplog.Entry, error) {
	const q = `
		SELECT order_id, order_number, status, step, errors, trace_id, span_id, updated_at
		FROM   submission_logs
		WHERE  order_id = ?
		ORDER  BY updated_at DESC, id DESC
		LIMIT  1`

	var e oplog.Entry
	var updatedAt string
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&e.OrderID, &e.OrderNumber, &e.Status, &e.Step, &e.Errors, &e.TraceID, &e.SpanID, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: submission log for %q not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: latest submission log for %q: %w", orderID, err)
	}

	e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: parse time %q: %w", updatedAt, err)
	}
	return &e, nil
}

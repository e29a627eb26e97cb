// Package sqlite provides the SQLite-backed implementation of
// order.Repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mezehub/ordering/internal/order"

	sqlite3 "modernc.org/sqlite"
)

// SQLITE_CONSTRAINT_UNIQUE, the extended result code for a unique index
// violation, used to detect order number collisions.
const sqliteConstraintUnique = 2067

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    number     TEXT NOT NULL,
    status     TEXT NOT NULL,
    total      INTEGER NOT NULL,
    address    TEXT NOT NULL DEFAULT '',
    phone      TEXT NOT NULL DEFAULT '',
    notes      TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- The human-readable number is the customer-facing identity; collisions on
-- insert surface as order.ErrDuplicateNumber and the submitter retries with
-- a fresh number.
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_number ON orders(number);
CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id, created_at);

CREATE TABLE IF NOT EXISTS order_lines (
    id             TEXT PRIMARY KEY,
    order_id       TEXT NOT NULL REFERENCES orders(id),
    item_id        TEXT NOT NULL,
    item_name      TEXT NOT NULL,
    variation_id   TEXT,
    variation_name TEXT NOT NULL DEFAULT '',
    quantity       INTEGER NOT NULL,
    unit_price     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_lines_order_id ON order_lines(order_id);

CREATE TABLE IF NOT EXISTS order_line_addons (
    line_id  TEXT NOT NULL REFERENCES order_lines(id),
    addon_id TEXT NOT NULL,
    name     TEXT NOT NULL,
    price    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_line_addons_line_id ON order_line_addons(line_id);
`

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the orders database at the given path and applies
// the schema. WAL mode keeps staff status updates from blocking customer
// reads.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply orders schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) InsertOrder(ctx context.Context, o *order.Order) error {
	const q = `INSERT INTO orders (id, user_id, number, status, total, address, phone, notes, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		o.ID, o.UserID, o.Number, string(o.Status), o.Total,
		o.Address, o.Phone, o.Notes,
		o.CreatedAt.UTC().Format(time.RFC3339Nano),
		o.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		var serr *sqlite3.Error
		if errors.As(err, &serr) && serr.Code() == sqliteConstraintUnique {
			return order.ErrDuplicateNumber
		}
		return fmt.Errorf("sqlite: insert order %q: %w", o.Number, err)
	}
	return nil
}

func (r *Repository) InsertLine(ctx context.Context, l *order.Line) error {
	const q = `INSERT INTO order_lines (id, order_id, item_id, item_name, variation_id, variation_name, quantity, unit_price)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		l.ID, l.OrderID, l.ItemID, l.ItemName,
		nullableString(l.VariationID), l.VariationName,
		l.Quantity, l.UnitPrice,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert line for order %q: %w", l.OrderID, err)
	}
	return nil
}

func (r *Repository) InsertLineAddons(ctx context.Context, lineID string, addons []order.LineAddon) error {
	const q = `INSERT INTO order_line_addons (line_id, addon_id, name, price) VALUES (?, ?, ?, ?)`

	for _, a := range addons {
		if _, err := r.db.ExecContext(ctx, q, lineID, a.AddonID, a.Name, a.Price); err != nil {
			return fmt.Errorf("sqlite: insert addon %q for line %q: %w", a.AddonID, lineID, err)
		}
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	const q = `SELECT id, user_id, number, status, total, address, phone, notes, created_at, updated_at
	           FROM orders WHERE id = ?`

	o, err := r.scanOrder(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	const q = `SELECT id, user_id, number, status, total, address, phone, notes, created_at, updated_at
	           FROM orders WHERE user_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

func (r *Repository) ListAll(ctx context.Context) ([]*order.Order, error) {
	const q = `SELECT id, user_id, number, status, total, address, phone, notes, created_at, updated_at
	           FROM orders ORDER BY created_at DESC`
	return r.list(ctx, q)
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	const q = `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, q, string(status), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("sqlite: update status of %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]*order.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: order rows: %w", err)
	}

	for _, o := range orders {
		if err := r.loadLines(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	var status, createdAt, updatedAt string
	err := row.Scan(&o.ID, &o.UserID, &o.Number, &status, &o.Total, &o.Address, &o.Phone, &o.Notes, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan order row: %w", err)
	}
	o.Status = order.Status(status)
	if o.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("sqlite: parse created_at %q: %w", createdAt, err)
	}
	if o.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("sqlite: parse updated_at %q: %w", updatedAt, err)
	}
	return &o, nil
}

func (r *Repository) loadLines(ctx context.Context, o *order.Order) error {
	const q = `SELECT id, order_id, item_id, item_name, COALESCE(variation_id,''), variation_name, quantity, unit_price
	           FROM order_lines WHERE order_id = ?`

	rows, err := r.db.QueryContext(ctx, q, o.ID)
	if err != nil {
		return fmt.Errorf("sqlite: lines for order %q: %w", o.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l order.Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.ItemName, &l.VariationID, &l.VariationName, &l.Quantity, &l.UnitPrice); err != nil {
			return fmt.Errorf("sqlite: scan line row: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: line rows: %w", err)
	}

	for i := range o.Lines {
		if err := r.loadAddons(ctx, &o.Lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) loadAddons(ctx context.Context, l *order.Line) error {
	const q = `SELECT addon_id, name, price FROM order_line_addons WHERE line_id = ?`

	rows, err := r.db.QueryContext(ctx, q, l.ID)
	if err != nil {
		return fmt.Errorf("sqlite: addons for line %q: %w", l.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a order.LineAddon
		if err := rows.Scan(&a.AddonID, &a.Name, &a.Price); err != nil {
			return fmt.Errorf("sqlite: scan addon row: %w", err)
		}
		l.Addons = append(l.Addons, a)
	}
	return rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Package sqlite provides the SQLite-backed implementation of
// catalog.Repository. WAL mode is enabled on Open so menu reads never block
// the (external) catalog management writes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mezehub/ordering/internal/catalog"

	// Register the pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS menu_items (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    base_price  INTEGER NOT NULL,
    image_url   TEXT NOT NULL DEFAULT '',
    category_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS variations (
    id          TEXT PRIMARY KEY,
    item_id     TEXT NOT NULL REFERENCES menu_items(id),
    name        TEXT NOT NULL,
    price_delta INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_variations_item_id ON variations(item_id);

CREATE TABLE IF NOT EXISTS addons (
    id    TEXT PRIMARY KEY,
    name  TEXT NOT NULL,
    price INTEGER NOT NULL DEFAULT 0
);

-- Many-to-many association between items and add-ons.
CREATE TABLE IF NOT EXISTS item_addons (
    item_id  TEXT NOT NULL REFERENCES menu_items(id),
    addon_id TEXT NOT NULL REFERENCES addons(id),
    PRIMARY KEY (item_id, addon_id)
);
`

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at the given path and applies
// the schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply catalog schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) ListItems(ctx context.Context) ([]catalog.MenuItem, error) {
	const q = `SELECT id, name, description, base_price, image_url, category_id
	           FROM menu_items ORDER BY category_id, name`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list items: %w", err)
	}
	defer rows.Close()

	var items []catalog.MenuItem
	for rows.Next() {
		var it catalog.MenuItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.BasePrice, &it.ImageURL, &it.CategoryID); err != nil {
			return nil, fmt.Errorf("sqlite: scan item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: item rows: %w", err)
	}
	return items, nil
}

func (r *Repository) ItemByID(ctx context.Context, id string) (*catalog.MenuItem, error) {
	const q = `SELECT id, name, description, base_price, image_url, category_id
	           FROM menu_items WHERE id = ?`

	var it catalog.MenuItem
	err := r.db.QueryRowContext(ctx, q, id).Scan(&it.ID, &it.Name, &it.Description, &it.BasePrice, &it.ImageURL, &it.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: item by id %q: %w", id, err)
	}
	return &it, nil
}

func (r *Repository) VariationsByItem(ctx context.Context, itemID string) ([]catalog.Variation, error) {
	const q = `SELECT id, item_id, name, price_delta FROM variations WHERE item_id = ? ORDER BY price_delta, name`

	rows, err := r.db.QueryContext(ctx, q, itemID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: variations for %q: %w", itemID, err)
	}
	defer rows.Close()

	var out []catalog.Variation
	for rows.Next() {
		var v catalog.Variation
		if err := rows.Scan(&v.ID, &v.ItemID, &v.Name, &v.PriceDelta); err != nil {
			return nil, fmt.Errorf("sqlite: scan variation row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: variation rows: %w", err)
	}
	return out, nil
}

func (r *Repository) AddonsByItem(ctx context.Context, itemID string) ([]catalog.Addon, error) {
	const q = `SELECT a.id, a.name, a.price
	           FROM addons a JOIN item_addons ia ON ia.addon_id = a.id
	           WHERE ia.item_id = ? ORDER BY a.name`

	rows, err := r.db.QueryContext(ctx, q, itemID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: addons for %q: %w", itemID, err)
	}
	defer rows.Close()

	var out []catalog.Addon
	for rows.Next() {
		var a catalog.Addon
		if err := rows.Scan(&a.ID, &a.Name, &a.Price); err != nil {
			return nil, fmt.Errorf("sqlite: scan addon row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: addon rows: %w", err)
	}
	return out, nil
}

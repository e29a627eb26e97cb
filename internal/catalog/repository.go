package catalog

import (
	"context"
	"errors"
)

var ErrItemNotFound = errors.New("catalog: item not found")

// Repository is the port for catalog reads. The pipeline depends on this
// abstraction, not on SQLite directly, so tests can use an in-memory fake.
type Repository interface {
	ListItems(ctx context.Context) ([]MenuItem, error)
	ItemByID(ctx context.Context, id string) (*MenuItem, error)
	VariationsByItem(ctx context.Context, itemID string) ([]Variation, error)
	AddonsByItem(ctx context.Context, itemID string) ([]Addon, error)
}

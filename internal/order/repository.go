package order

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("order: not found")

	// ErrDuplicateNumber signals a uniqueness-constraint violation on the
	// order number. The submitter regenerates the number and retries.
	ErrDuplicateNumber = errors.New("order: duplicate order number")
)

// Repository is the port for order persistence. The header, line and
// line-addon writes are deliberately separate operations: the submission
// pipeline issues them sequentially and a failure between them is an
// accepted partial-write risk, surfaced to the caller rather than rolled
// back.
type Repository interface {
	InsertOrder(ctx context.Context, o *Order) error
	InsertLine(ctx context.Context, l *Line) error
	InsertLineAddons(ctx context.Context, lineID string, addons []LineAddon) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

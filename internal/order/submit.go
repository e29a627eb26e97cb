package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mezehub/ordering/internal/cart"
	"github.com/mezehub/ordering/internal/checkout"
	"github.com/mezehub/ordering/internal/notify"
	"github.com/mezehub/ordering/internal/order/oplog"
	"github.com/mezehub/ordering/internal/realtime"
)

// numberRetries bounds how many fresh order numbers are attempted when the
// uniqueness constraint rejects one.
const numberRetries = 3

// SubmissionError is the single user-facing failure for any step of the
// submission pipeline. The cart is never cleared on failure so the customer
// can retry without re-entering items.
type SubmissionError struct {
	Step string
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("order submission failed at %s: %v", e.Step, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Broadcaster publishes order events to the status channel.
type Broadcaster interface {
	Publish(topic string, ev realtime.Event)
}

// step is one unit of work in the submission pipeline. Steps run strictly in
// order; a failing step prevents every later step from running. There is no
// compensation: a failure between the header and line writes leaves a header
// without lines, an accepted partial-write risk that the oplog makes
// visible.
type step interface {
	name() string
	execute(ctx context.Context) error
}

// Submitter converts a validated cart into durable order rows.
type Submitter struct {
	repo     Repository
	log      oplog.Repository // nil-safe: logging skipped if nil
	events   Broadcaster
	notifier notify.Notifier
}

func NewSubmitter(repo Repository, log oplog.Repository, events Broadcaster, notifier notify.Notifier) *Submitter {
	return &Submitter{
		repo:     repo,
		log:      log,
		events:   events,
		notifier: notifier,
	}
}

// Submit runs the submission pipeline: order number, header, lines, addons.
// On full success the cart is cleared and the order returned for receipt
// display. On any failure the cart is preserved and a SubmissionError
// carrying the cause is returned.
func (s *Submitter) Submit(ctx context.Context, store *cart.Store, info checkout.DeliveryInfo, userID string) (*Order, error) {
	o := s.buildOrder(store, info, userID)

	steps := []step{
		&insertHeaderStep{repo: s.repo, order: o},
		&insertLinesStep{repo: s.repo, order: o},
		&insertAddonsStep{repo: s.repo, order: o},
	}

	s.logEntry(ctx, oplog.NewEntry(ctx, o.ID, o.Number, oplog.StatusStarted, "", nil))

	for _, st := range steps {
		slog.InfoContext(ctx, "executing submission step", "step", st.name(), "order_id", o.ID)
		if err := st.execute(ctx); err != nil {
			slog.ErrorContext(ctx, "submission step failed", "step", st.name(), "order_id", o.ID, "error", err)
			s.logEntry(ctx, oplog.NewEntry(ctx, o.ID, o.Number, oplog.StatusFailed, st.name(), []string{err.Error()}))
			s.notifier.Notify(ctx, userID, notify.Toast{
				Title:       "Order failed",
				Description: "We could not place your order. Your cart is unchanged, please try again.",
				Variant:     notify.VariantDestructive,
			})
			return nil, &SubmissionError{Step: st.name(), Err: err}
		}
		s.logEntry(ctx, oplog.NewEntry(ctx, o.ID, o.Number, oplog.StatusStepDone, st.name(), nil))
	}

	if err := store.Clear(ctx); err != nil {
		// The order is durable at this point; a failed cart clear is not a
		// submission failure.
		slog.WarnContext(ctx, "cart clear after submission failed", "order_id", o.ID, "error", err)
	}

	s.logEntry(ctx, oplog.NewEntry(ctx, o.ID, o.Number, oplog.StatusCompleted, "", nil))

	if s.events != nil {
		s.events.Publish(realtime.TopicStaff, realtime.Event{
			Type:        "order.created",
			OrderID:     o.ID,
			OrderNumber: o.Number,
			Status:      o.Status.String(),
			Total:       o.Total,
		})
	}
	s.notifier.Notify(ctx, userID, notify.Toast{
		Title:       "Order placed",
		Description: fmt.Sprintf("Order %s received. We'll let you know when it's ready.", o.Number),
		Variant:     notify.VariantDefault,
	})

	return o, nil
}

// buildOrder captures the cart's resolved prices into order rows. Prices are
// taken from the cart lines, not from a live catalog lookup.
func (s *Submitter) buildOrder(store *cart.Store, info checkout.DeliveryInfo, userID string) *Order {
	now := time.Now().UTC()
	o := &Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Number:    NewNumber(),
		Status:    StatusPending,
		Total:     store.Total(),
		Address:   info.Address,
		Phone:     info.Phone,
		Notes:     info.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, cl := range store.Lines() {
		line := Line{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ItemID:    cl.Item.ID,
			ItemName:  cl.Item.Name,
			Quantity:  cl.Quantity,
			UnitPrice: cl.UnitPrice,
		}
		if v := cl.Customization.Variation; v != nil {
			line.VariationID = v.ID
			line.VariationName = v.Name
		}
		for _, a := range cl.Customization.Addons {
			line.Addons = append(line.Addons, LineAddon{AddonID: a.ID, Name: a.Name, Price: a.Price})
		}
		o.Lines = append(o.Lines, line)
	}
	return o
}

func (s *Submitter) logEntry(ctx context.Context, e *oplog.Entry) {
	if s.log == nil {
		return
	}
	if err := s.log.Save(ctx, e); err != nil {
		slog.WarnContext(ctx, "submission log write failed", "order_id", e.OrderID, "error", err)
	}
}

// --- insertHeaderStep ---

// insertHeaderStep writes the order header with status pending. A collision
// on the human-readable number regenerates it and retries; the store's
// uniqueness constraint is the arbiter, never an assumption.
type insertHeaderStep struct {
	repo  Repository
	order *Order
}

func (st *insertHeaderStep) name() string { return "insert_order_header" }

func (st *insertHeaderStep) execute(ctx context.Context) error {
	var err error
	for attempt := 0; attempt <= numberRetries; attempt++ {
		if attempt > 0 {
			st.order.Number = NewNumber()
			slog.InfoContext(ctx, "order number collision, regenerated", "order_id", st.order.ID, "number", st.order.Number)
		}
		err = st.repo.InsertOrder(ctx, st.order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateNumber) {
			return fmt.Errorf("write order header: %w", err)
		}
	}
	return fmt.Errorf("write order header: %w", err)
}

// --- insertLinesStep ---

type insertLinesStep struct {
	repo  Repository
	order *Order
}

func (st *insertLinesStep) name() string { return "insert_order_lines" }

func (st *insertLinesStep) execute(ctx context.Context) error {
	for i := range st.order.Lines {
		if err := st.repo.InsertLine(ctx, &st.order.Lines[i]); err != nil {
			return fmt.Errorf("write order line %d: %w", i, err)
		}
	}
	return nil
}

// --- insertAddonsStep ---

type insertAddonsStep struct {
	repo  Repository
	order *Order
}

func (st *insertAddonsStep) name() string { return "insert_line_addons" }

func (st *insertAddonsStep) execute(ctx context.Context) error {
	for i := range st.order.Lines {
		l := &st.order.Lines[i]
		if len(l.Addons) == 0 {
			continue
		}
		if err := st.repo.InsertLineAddons(ctx, l.ID, l.Addons); err != nil {
			return fmt.Errorf("write addons for line %d: %w", i, err)
		}
	}
	return nil
}

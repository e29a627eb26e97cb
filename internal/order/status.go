package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mezehub/ordering/internal/realtime"
)

// ErrInvalidStatus rejects status values outside the known set.
var ErrInvalidStatus = fmt.Errorf("order: invalid status")

// StatusService applies staff-initiated status changes and fans them out.
// The persisted row is the source of truth; the published events are
// best-effort notifications with no replay.
type StatusService struct {
	repo   Repository
	events Broadcaster
}

func NewStatusService(repo Repository, events Broadcaster) *StatusService {
	return &StatusService{repo: repo, events: events}
}

// UpdateStatus sets the order's status and notifies the owning customer and
// all staff sessions. Any valid status is settable: the forward kitchen
// order is not enforced, as an operator override. The update is a single-row
// write with no concurrency token; simultaneous staff updates race and the
// last acknowledged write wins.
func (s *StatusService) UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order status updated", "order_id", o.ID, "number", o.Number, "status", status)

	if s.events != nil {
		ev := realtime.Event{
			Type:        "order.status",
			OrderID:     o.ID,
			OrderNumber: o.Number,
			Status:      status.String(),
			Title:       "Order update",
			Description: fmt.Sprintf("Order %s is now %s", o.Number, status),
		}
		s.events.Publish(realtime.UserTopic(o.UserID), ev)
		s.events.Publish(realtime.TopicStaff, ev)
	}

	return o, nil
}

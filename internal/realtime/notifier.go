package realtime

import (
	"context"

	"github.com/mezehub/ordering/internal/notify"
)

// Notifier adapts the hub to the toast collaborator contract: toasts become
// events on the user's topic.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) Notify(_ context.Context, userID string, t notify.Toast) {
	n.hub.Publish(UserTopic(userID), Event{
		Type:        "toast",
		Title:       t.Title,
		Description: t.Description,
		Variant:     t.Variant,
	})
}

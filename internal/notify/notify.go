// Package notify is the fire-and-forget toast collaborator. Callers hand it
// a title/description/variant triple; delivery is best-effort and never
// reported back.
package notify

import "context"

const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

// Notifier delivers a toast to one user's active sessions.
type Notifier interface {
	Notify(ctx context.Context, userID string, t Toast)
}

// Nop discards every toast. Used in tests and headless tooling.
type Nop struct{}

func (Nop) Notify(context.Context, string, Toast) {}

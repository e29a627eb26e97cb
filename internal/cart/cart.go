// Package cart holds the shopping cart aggregate: an ordered list of
// customized lines with derived totals, persisted through an injected
// Storage so a session's cart survives restarts.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mezehub/ordering/internal/catalog"
	"github.com/mezehub/ordering/internal/notify"
	"github.com/mezehub/ordering/internal/pricing"
)

// TaxRatePercent is the fixed tax rate applied to the subtotal.
const TaxRatePercent = 8

// Line is one cart entry. UnitPrice is the effective price resolved when the
// line was added; it is never recomputed from the live catalog.
type Line struct {
	Item          catalog.MenuItem      `json:"item"`
	Customization pricing.Customization `json:"customization"`
	UnitPrice     int64                 `json:"unit_price"`
	Quantity      int                   `json:"quantity"`
}

// Total returns the line total (unit price times quantity).
func (l Line) Total() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Key returns the line's merge identity: item id, variation id and the
// sorted add-on id set. Two lines with different add-on sets are distinct
// lines, so their differing prices are never conflated.
func (l Line) Key() LineKey {
	var variationID string
	if l.Customization.Variation != nil {
		variationID = l.Customization.Variation.ID
	}
	addonIDs := make([]string, 0, len(l.Customization.Addons))
	for _, a := range l.Customization.Addons {
		addonIDs = append(addonIDs, a.ID)
	}
	return KeyFor(l.Item.ID, variationID, addonIDs)
}

// LineKey identifies a cart line for merge, update and removal.
type LineKey string

// KeyFor builds a LineKey from raw ids. The addon id order is irrelevant.
func KeyFor(itemID, variationID string, addonIDs []string) LineKey {
	ids := make([]string, len(addonIDs))
	copy(ids, addonIDs)
	sort.Strings(ids)
	return LineKey(itemID + "|" + variationID + "|" + strings.Join(ids, ","))
}

// Store owns one session's cart. It is not safe for concurrent use by
// multiple goroutines; a session is a single logical owner. Two sessions
// sharing a storage key race with last-write-wins, by product decision.
type Store struct {
	key      string
	storage  Storage
	notifier notify.Notifier
	userID   string
	lines    []Line
}

// NewStore rehydrates the cart for the given storage key. Corrupt or
// unparsable stored state yields an empty cart rather than an error: a bad
// blob must never lock a customer out of ordering.
func NewStore(ctx context.Context, userID string, storage Storage, notifier notify.Notifier) *Store {
	s := &Store{
		key:      "cart:" + userID,
		storage:  storage,
		notifier: notifier,
		userID:   userID,
	}

	raw, err := storage.Get(ctx, s.key)
	if err != nil {
		slog.WarnContext(ctx, "cart rehydrate failed, starting empty", "key", s.key, "error", err)
		return s
	}
	if len(raw) == 0 {
		return s
	}
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		slog.WarnContext(ctx, "cart state unparsable, starting empty", "key", s.key, "error", err)
		return s
	}
	s.lines = lines
	return s
}

// AddLine resolves a quoted item into the cart: quantities merge into an
// existing line with the same identity, otherwise a new line is appended.
// Non-positive quantities are rejected as a no-op. A user-visible
// confirmation is emitted with the customization description.
func (s *Store) AddLine(ctx context.Context, item catalog.MenuItem, quote pricing.Quote, quantity int) error {
	if quantity < 1 {
		return nil
	}

	line := Line{
		Item:          item,
		Customization: quote.Customization,
		UnitPrice:     quote.UnitPrice,
		Quantity:      quantity,
	}

	merged := false
	key := line.Key()
	for i := range s.lines {
		if s.lines[i].Key() == key {
			s.lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, line)
	}

	if err := s.flush(ctx); err != nil {
		return err
	}

	desc := quote.Customization.Describe()
	if desc == "" {
		desc = item.Name
	} else {
		desc = fmt.Sprintf("%s (%s)", item.Name, desc)
	}
	s.notifier.Notify(ctx, s.userID, notify.Toast{
		Title:       "Added to cart",
		Description: desc,
		Variant:     notify.VariantDefault,
	})
	return nil
}

// RemoveLine deletes the matching line. Absent lines are a no-op.
func (s *Store) RemoveLine(ctx context.Context, key LineKey) error {
	for i := range s.lines {
		if s.lines[i].Key() == key {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return s.flush(ctx)
		}
	}
	return nil
}

// UpdateQuantity sets the matching line's quantity. Quantities below one
// remove the line; a negative quantity never persists.
func (s *Store) UpdateQuantity(ctx context.Context, key LineKey, quantity int) error {
	if quantity < 1 {
		return s.RemoveLine(ctx, key)
	}
	for i := range s.lines {
		if s.lines[i].Key() == key {
			s.lines[i].Quantity = quantity
			return s.flush(ctx)
		}
	}
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.lines = nil
	return s.flush(ctx)
}

// Lines returns a copy of the current line list in insertion order.
func (s *Store) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) Empty() bool {
	return len(s.lines) == 0
}

// Subtotal is recomputed from the lines on every call, never cached.
func (s *Store) Subtotal() int64 {
	var sum int64
	for _, l := range s.lines {
		sum += l.Total()
	}
	return sum
}

func (s *Store) Tax() int64 {
	return s.Subtotal() * TaxRatePercent / 100
}

func (s *Store) Total() int64 {
	return s.Subtotal() + s.Tax()
}

// flush synchronously serializes the full line list after every mutation.
func (s *Store) flush(ctx context.Context) error {
	raw, err := json.Marshal(s.lines)
	if err != nil {
		return fmt.Errorf("cart: marshal lines: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("cart: persist lines: %w", err)
	}
	return nil
}

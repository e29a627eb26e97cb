// Package pricing computes effective unit prices for customized menu items.
// Everything here is pure: the same snapshot and choices always produce the
// same quote.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mezehub/ordering/internal/catalog"
)

var (
	// ErrInvalidSelection means a chosen variation or add-on id does not
	// belong to the item. Local and non-retryable.
	ErrInvalidSelection = errors.New("pricing: selection does not belong to item")

	// ErrPriceBelowBase means a variation's negative delta would price the
	// item below its base price. This is a catalog data error and is
	// surfaced, never clamped.
	ErrPriceBelowBase = errors.New("pricing: variation delta prices item below base")
)

// Customization is the chosen variation plus chosen add-on set for one line.
// Add-ons are unique by id; selection order is preserved.
type Customization struct {
	Variation *catalog.Variation `json:"variation,omitempty"`
	Addons    []catalog.Addon    `json:"addons,omitempty"`
}

// Describe renders the customization for user-facing confirmations,
// e.g. "Large, +Extra Cheese, +Olives".
func (c Customization) Describe() string {
	var parts []string
	if c.Variation != nil {
		parts = append(parts, c.Variation.Name)
	}
	for _, a := range c.Addons {
		parts = append(parts, "+"+a.Name)
	}
	return strings.Join(parts, ", ")
}

// Quote is the result of resolving a customization against a snapshot.
type Quote struct {
	UnitPrice     int64
	Customization Customization
}

// Resolve computes the effective unit price for an item with the chosen
// variation and add-ons. variationID may be empty when the item is ordered
// uncustomized. Duplicate add-on ids are a no-op, not a duplicate charge.
func Resolve(snap *catalog.Snapshot, variationID string, addonIDs []string) (Quote, error) {
	price := snap.Item.BasePrice
	var cust Customization

	if variationID != "" {
		v, ok := snap.Variation(variationID)
		if !ok {
			return Quote{}, fmt.Errorf("%w: variation %q on item %q", ErrInvalidSelection, variationID, snap.Item.ID)
		}
		if v.PriceDelta < 0 {
			return Quote{}, fmt.Errorf("%w: variation %q delta %d", ErrPriceBelowBase, v.ID, v.PriceDelta)
		}
		price += v.PriceDelta
		cust.Variation = &v
	}

	seen := make(map[string]bool, len(addonIDs))
	for _, id := range addonIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		a, ok := snap.Addon(id)
		if !ok {
			return Quote{}, fmt.Errorf("%w: addon %q on item %q", ErrInvalidSelection, id, snap.Item.ID)
		}
		price += a.Price
		cust.Addons = append(cust.Addons, a)
	}

	return Quote{UnitPrice: price, Customization: cust}, nil
}

// PriceRange returns the display range for a not-yet-customized item:
// [base, base + max variation delta]. With no variations the range collapses
// to a single value.
func PriceRange(snap *catalog.Snapshot) (lo, hi int64) {
	lo = snap.Item.BasePrice
	var maxDelta int64
	for _, v := range snap.Variations {
		if v.PriceDelta > maxDelta {
			maxDelta = v.PriceDelta
		}
	}
	return lo, lo + maxDelta
}

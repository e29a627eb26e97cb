// Package catalog holds the read-only menu data the ordering pipeline prices
// against. Items, variations and add-ons are managed elsewhere; this package
// only ever reads them.
package catalog

// All prices are in minor currency units (cents).

type MenuItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BasePrice   int64  `json:"base_price"`
	ImageURL    string `json:"image_url,omitempty"`
	CategoryID  string `json:"category_id"`
}

// Variation is a size/type option belonging to exactly one item.
// PriceDelta is added to the item's base price when chosen.
type Variation struct {
	ID         string `json:"id"`
	ItemID     string `json:"item_id"`
	Name       string `json:"name"`
	PriceDelta int64  `json:"price_delta"`
}

// Addon is a flat-priced extra, associated to items many-to-many.
type Addon struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Snapshot is one item plus the variations and add-ons fetched for it at a
// point in time. Pricing is only ever computed against a snapshot, never
// against live catalog reads.
type Snapshot struct {
	Item       MenuItem    `json:"item"`
	Variations []Variation `json:"variations"`
	Addons     []Addon     `json:"addons"`
}

// Variation returns the snapshot's variation with the given id, if any.
func (s *Snapshot) Variation(id string) (Variation, bool) {
	for _, v := range s.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return Variation{}, false
}

// Addon returns the snapshot's add-on with the given id, if any.
func (s *Snapshot) Addon(id string) (Addon, bool) {
	for _, a := range s.Addons {
		if a.ID == id {
			return a, true
		}
	}
	return Addon{}, false
}

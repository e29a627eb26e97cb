// Package order owns the durable order model and the submission pipeline
// that turns a validated cart into order rows.
package order

import "time"

// Status values an order moves through. The forward order below is the
// expected kitchen flow, but it is deliberately not enforced: staff may set
// any status as an operator override.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// Order is the header record, created exactly once per checkout submission
// and mutated only via status updates. Amounts are minor currency units.
type Order struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Number    string    `json:"number"`
	Status    Status    `json:"status"`
	Total     int64     `json:"total"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Lines     []Line    `json:"lines,omitempty"`
}

// Line captures one cart line at submission time. UnitPrice is the price
// resolved when the cart line was built; later catalog changes never alter
// it.
type Line struct {
	ID            string      `json:"id"`
	OrderID       string      `json:"order_id"`
	ItemID        string      `json:"item_id"`
	ItemName      string      `json:"item_name"`
	VariationID   string      `json:"variation_id,omitempty"`
	VariationName string      `json:"variation_name,omitempty"`
	Quantity      int         `json:"quantity"`
	UnitPrice     int64       `json:"unit_price"`
	Addons        []LineAddon `json:"addons,omitempty"`
}

// LineAddon captures one chosen add-on and its price at submission time.
type LineAddon struct {
	AddonID string `json:"addon_id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
}

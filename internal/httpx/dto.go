package httpx

import "github.com/mezehub/ordering/internal/catalog"

type MenuItemResponse struct {
	Item     catalog.MenuItem `json:"item"`
	PriceMin int64            `json:"price_min"`
	PriceMax int64            `json:"price_max"`
}

type MenuItemDetailResponse struct {
	Item       catalog.MenuItem    `json:"item"`
	Variations []catalog.Variation `json:"variations"`
	Addons     []catalog.Addon     `json:"addons"`
	PriceMin   int64               `json:"price_min"`
	PriceMax   int64               `json:"price_max"`
}

type AddCartItemRequest struct {
	ItemID      string   `json:"item_id"`
	VariationID string   `json:"variation_id,omitempty"`
	AddonIDs    []string `json:"addon_ids,omitempty"`
	Quantity    int      `json:"quantity"`
}

type UpdateCartItemRequest struct {
	ItemID      string   `json:"item_id"`
	VariationID string   `json:"variation_id,omitempty"`
	AddonIDs    []string `json:"addon_ids,omitempty"`
	Quantity    int      `json:"quantity"`
}

type CartLineDTO struct {
	ItemID        string   `json:"item_id"`
	ItemName      string   `json:"item_name"`
	VariationID   string   `json:"variation_id,omitempty"`
	VariationName string   `json:"variation_name,omitempty"`
	AddonNames    []string `json:"addon_names,omitempty"`
	UnitPrice     int64    `json:"unit_price"`
	Quantity      int      `json:"quantity"`
	LineTotal     int64    `json:"line_total"`
}

type CartResponse struct {
	Lines    []CartLineDTO `json:"lines"`
	Subtotal int64         `json:"subtotal"`
	Tax      int64         `json:"tax"`
	Total    int64         `json:"total"`
}

type CheckoutRequest struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes,omitempty"`
}

type ReceiptResponse struct {
	OrderID string `json:"order_id"`
	Number  string `json:"number"`
	Total   int64  `json:"total"`
	Status  string `json:"status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

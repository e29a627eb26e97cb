package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mezehub/ordering/internal/auth"
	"github.com/mezehub/ordering/internal/cart"
	"github.com/mezehub/ordering/internal/catalog"
	"github.com/mezehub/ordering/internal/checkout"
	"github.com/mezehub/ordering/internal/notify"
	"github.com/mezehub/ordering/internal/order"
	"github.com/mezehub/ordering/internal/pricing"
	"github.com/mezehub/ordering/internal/realtime"
)

// Snapshotter serves catalog snapshots for pricing.
type Snapshotter interface {
	Snapshot(ctx context.Context, itemID string) (*catalog.Snapshot, error)
}

// Handler handles the storefront and staff HTTP surface of the ordering
// pipeline.
type Handler struct {
	catalogRepo catalog.Repository
	snapshots   Snapshotter
	storage     cart.Storage
	notifier    notify.Notifier
	submitter   *order.Submitter
	status      *order.StatusService
	orders      order.Repository
	hub         *realtime.Hub
}

func NewHandler(
	catalogRepo catalog.Repository,
	snapshots Snapshotter,
	storage cart.Storage,
	notifier notify.Notifier,
	submitter *order.Submitter,
	status *order.StatusService,
	orders order.Repository,
	hub *realtime.Hub,
) *Handler {
	return &Handler{
		catalogRepo: catalogRepo,
		snapshots:   snapshots,
		storage:     storage,
		notifier:    notifier,
		submitter:   submitter,
		status:      status,
		orders:      orders,
		hub:         hub,
	}
}

// cartFor rehydrates the session's cart. Each request gets a fresh view of
// the stored state; the storage key is the single source between requests.
func (h *Handler) cartFor(ctx context.Context, userID string) *cart.Store {
	return cart.NewStore(ctx, userID, h.storage, h.notifier)
}

// ListMenu returns all items with their display price ranges.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogRepo.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog_error", err.Error())
		return
	}

	out := make([]MenuItemResponse, 0, len(items))
	for _, it := range items {
		variations, err := h.catalogRepo.VariationsByItem(r.Context(), it.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog_error", err.Error())
			return
		}
		lo, hi := pricing.PriceRange(&catalog.Snapshot{Item: it, Variations: variations})
		out = append(out, MenuItemResponse{Item: it, PriceMin: lo, PriceMax: hi})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetMenuItem returns one item's snapshot: the data a customization form
// prices against.
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	snap, err := h.snapshots.Snapshot(r.Context(), itemID)
	if errors.Is(err, catalog.ErrItemNotFound) {
		writeError(w, http.StatusNotFound, "item_not_found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog_error", err.Error())
		return
	}

	lo, hi := pricing.PriceRange(snap)
	writeJSON(w, http.StatusOK, MenuItemDetailResponse{
		Item:       snap.Item,
		Variations: snap.Variations,
		Addons:     snap.Addons,
		PriceMin:   lo,
		PriceMax:   hi,
	})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, cartResponse(h.cartFor(r.Context(), claims.UserID)))
}

// AddCartItem resolves the customization against a catalog snapshot and adds
// the quoted line to the cart.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "item_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	snap, err := h.snapshots.Snapshot(r.Context(), req.ItemID)
	if errors.Is(err, catalog.ErrItemNotFound) {
		writeError(w, http.StatusNotFound, "item_not_found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog_error", err.Error())
		return
	}

	quote, err := pricing.Resolve(snap, req.VariationID, req.AddonIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_selection", err.Error())
		return
	}

	store := h.cartFor(r.Context(), claims.UserID)
	if err := store.AddLine(r.Context(), snap.Item, quote, req.Quantity); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(store))
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	store := h.cartFor(r.Context(), claims.UserID)
	key := cart.KeyFor(req.ItemID, req.VariationID, req.AddonIDs)
	if err := store.UpdateQuantity(r.Context(), key, req.Quantity); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(store))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	itemID := chi.URLParam(r, "itemID")
	variationID := r.URL.Query().Get("variation_id")
	addonIDs := r.URL.Query()["addon_id"]

	store := h.cartFor(r.Context(), claims.UserID)
	if err := store.RemoveLine(r.Context(), cart.KeyFor(itemID, variationID, addonIDs)); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(store))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	store := h.cartFor(r.Context(), claims.UserID)
	if err := store.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(store))
}

// Checkout drives the sequencer end to end for an API client: entry gate,
// delivery info, validation, then submission.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	store := h.cartFor(r.Context(), claims.UserID)

	seq, err := checkout.Begin(store.Empty(), claims.UserID != "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "checkout_rejected", err.Error())
		return
	}

	info := checkout.DeliveryInfo{Address: req.Address, Phone: req.Phone, Notes: req.Notes}
	if info.Address == "" {
		info.Address = claims.Address
	}
	if info.Phone == "" {
		info.Phone = claims.Phone
	}

	seq = seq.WithInfo(info).Next().Next()
	if err := seq.Validate(); err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "validation_error", verr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	o, err := h.submitter.Submit(r.Context(), store, seq.Info, claims.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "order submission failed", "user_id", claims.UserID, "error", err)
		writeError(w, http.StatusBadGateway, "order_submission_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ReceiptResponse{
		OrderID: o.ID,
		Number:  o.Number,
		Total:   o.Total,
		Status:  o.Status.String(),
	})
}

// ListOrders returns the caller's orders; staff see every order.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var (
		orders []*order.Order
		err    error
	)
	if claims.Role == auth.RoleStaff {
		orders, err = h.orders.ListAll(r.Context())
	} else {
		orders, err = h.orders.ListByUser(r.Context(), claims.UserID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "orders_error", err.Error())
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "orders_error", err.Error())
		return
	}
	if claims.Role != auth.RoleStaff && o.UserID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden", "")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// UpdateOrderStatus is the staff action behind the kitchen dashboard.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	o, err := h.status.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status))
	if errors.Is(err, order.ErrInvalidStatus) {
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}
	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "orders_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ServeWS attaches the session to the status channel.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	realtime.ServeWS(h.hub, w, r, claims.UserID, claims.Role == auth.RoleStaff)
}

func cartResponse(store *cart.Store) CartResponse {
	lines := store.Lines()
	out := CartResponse{
		Lines:    make([]CartLineDTO, 0, len(lines)),
		Subtotal: store.Subtotal(),
		Tax:      store.Tax(),
		Total:    store.Total(),
	}
	for _, l := range lines {
		dto := CartLineDTO{
			ItemID:    l.Item.ID,
			ItemName:  l.Item.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.Total(),
		}
		if v := l.Customization.Variation; v != nil {
			dto.VariationID = v.ID
			dto.VariationName = v.Name
		}
		for _, a := range l.Customization.Addons {
			dto.AddonNames = append(dto.AddonNames, a.Name)
		}
		out.Lines = append(out.Lines, dto)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}

package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezehub/ordering/internal/auth"
	"github.com/mezehub/ordering/internal/cart"
	"github.com/mezehub/ordering/internal/catalog"
	"github.com/mezehub/ordering/internal/notify"
	"github.com/mezehub/ordering/internal/order"
	"github.com/mezehub/ordering/internal/realtime"
)

var testKey = []byte("test-secret")

type fakeCatalogRepo struct {
	items      []catalog.MenuItem
	variations map[string][]catalog.Variation
	addons     map[string][]catalog.Addon
}

func (f *fakeCatalogRepo) ListItems(ctx context.Context) ([]catalog.MenuItem, error) {
	return f.items, nil
}

func (f *fakeCatalogRepo) ItemByID(ctx context.Context, id string) (*catalog.MenuItem, error) {
	for _, it := range f.items {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, catalog.ErrItemNotFound
}

func (f *fakeCatalogRepo) VariationsByItem(ctx context.Context, itemID string) ([]catalog.Variation, error) {
	return f.variations[itemID], nil
}

func (f *fakeCatalogRepo) AddonsByItem(ctx context.Context, itemID string) ([]catalog.Addon, error) {
	return f.addons[itemID], nil
}

// fakeSnapshotter builds snapshots straight off the repo, no cache.
type fakeSnapshotter struct {
	repo *fakeCatalogRepo
}

func (f *fakeSnapshotter) Snapshot(ctx context.Context, itemID string) (*catalog.Snapshot, error) {
	item, err := f.repo.ItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &catalog.Snapshot{
		Item:       *item,
		Variations: f.repo.variations[itemID],
		Addons:     f.repo.addons[itemID],
	}, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*order.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*order.Order)}
}

func (f *fakeOrderRepo) InsertOrder(ctx context.Context, o *order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) InsertLine(ctx context.Context, l *order.Line) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[l.OrderID]; ok {
		o.Lines = append(o.Lines, *l)
	}
	return nil
}

func (f *fakeOrderRepo) InsertLineAddons(ctx context.Context, lineID string, addons []order.LineAddon) error {
	return nil
}

func (f *fakeOrderRepo) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*order.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListAll(ctx context.Context) ([]*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*order.Order
	for _, o := range f.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

type env struct {
	router    http.Handler
	orderRepo *fakeOrderRepo
	storage   *cart.MemoryStorage
}

func newEnv(t *testing.T) *env {
	t.Helper()

	catalogRepo := &fakeCatalogRepo{
		items: []catalog.MenuItem{
			{ID: "pizza", Name: "Margherita", BasePrice: 1000, CategoryID: "mains"},
			{ID: "soda", Name: "Cola", BasePrice: 300, CategoryID: "drinks"},
		},
		variations: map[string][]catalog.Variation{
			"pizza": {
				{ID: "small", ItemID: "pizza", Name: "Small", PriceDelta: 0},
				{ID: "large", ItemID: "pizza", Name: "Large", PriceDelta: 200},
			},
		},
		addons: map[string][]catalog.Addon{
			"pizza": {
				{ID: "cheese", Name: "Extra Cheese", Price: 150},
			},
		},
	}

	storage := cart.NewMemoryStorage()
	orderRepo := newFakeOrderRepo()
	hub := realtime.NewHub()
	submitter := order.NewSubmitter(orderRepo, nil, hub, notify.Nop{})
	status := order.NewStatusService(orderRepo, hub)

	h := NewHandler(
		catalogRepo,
		&fakeSnapshotter{repo: catalogRepo},
		storage,
		notify.Nop{},
		submitter,
		status,
		orderRepo,
		hub,
	)
	return &env{router: NewRouter(h, testKey), orderRepo: orderRepo, storage: storage}
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testKey, auth.Claims{
		UserID:  userID,
		Role:    role,
		Address: "1 Main St",
		Phone:   "555-0100",
	}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *env) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestListMenu_PublicWithPriceRanges(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/menu", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []MenuItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, int64(1000), items[0].PriceMin)
	assert.Equal(t, int64(1200), items[0].PriceMax)
	assert.Equal(t, int64(300), items[1].PriceMin)
	assert.Equal(t, int64(300), items[1].PriceMax)
}

func TestGetMenuItem_NotFound(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/menu/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_RequiresAuth(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddCartItem_QuotesCustomization(t *testing.T) {
	e := newEnv(t)
	tok := token(t, "user-1", auth.RoleCustomer)

	rec := e.do(t, http.MethodPost, "/cart/items", tok, AddCartItemRequest{
		ItemID:      "pizza",
		VariationID: "large",
		AddonIDs:    []string{"cheese"},
		Quantity:    2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, int64(1350), resp.Lines[0].UnitPrice)
	assert.Equal(t, 2, resp.Lines[0].Quantity)
	assert.Equal(t, int64(2700), resp.Subtotal)
	assert.Equal(t, int64(216), resp.Tax)
	assert.Equal(t, int64(2916), resp.Total)
}

func TestAddCartItem_InvalidSelection(t *testing.T) {
	e := newEnv(t)
	tok := token(t, "user-1", auth.RoleCustomer)

	rec := e.do(t, http.MethodPost, "/cart/items", tok, AddCartItemRequest{
		ItemID:      "pizza",
		VariationID: "xl",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_selection", resp.Error)
}

func TestAddCartItem_UnknownItem(t *testing.T) {
	e := newEnv(t)
	tok := token(t, "user-1", auth.RoleCustomer)

	rec := e.do(t, http.MethodPost, "/cart/items", tok, AddCartItemRequest{ItemID: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	e := newEnv(t)
	tok := token(t, "user-1", auth.RoleCustomer)

	rec := e.do(t, http.MethodPost, "/checkout", tok, CheckoutRequest{Address: "1 Main St", Phone: "555-0100"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "checkout_rejected", resp.Error)
}

func TestCheckout_MissingAddressFailsValidation(t *testing.T) {
	e := newEnv(t)
	// Claims without delivery data, so nothing to fall back on.
	tok, err := auth.GenerateToken(testKey, auth.Claims{UserID: "user-1", Role: auth.RoleCustomer}, time.Hour)
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, "/cart/items", tok, AddCartItemRequest{ItemID: "soda"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/checkout", tok, CheckoutRequest{Phone: "555-0100"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error)
}

func TestCheckout_SubmitsAndClearsCart(t *testing.T) {
	e := newEnv(t)
	tok := token(t, "user-1", auth.RoleCustomer)

	rec := e.do(t, http.MethodPost, "/cart/items", tok, AddCartItemRequest{
		ItemID:      "pizza",
		VariationID: "large",
		AddonIDs:    []string{"cheese"},
		Quantity:    2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/checkout", tok, CheckoutRequest{})
	require.Equal(t, http.StatusCreated, rec.Code)

	var receipt ReceiptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.NotEmpty(t, receipt.OrderID)
	assert.Regexp(t, `^ORD-\d{6}-\d{3}$`, receipt.Number)
	assert.Equal(t, int64(2916), receipt.Total)
	assert.Equal(t, "pending", receipt.Status)

	stored, err := e.orderRepo.GetOrder(context.Background(), receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", stored.Address)

	rec = e.do(t, http.MethodGet, "/cart", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cartResp CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cartResp))
	assert.Empty(t, cartResp.Lines)
}

func TestGetOrder_OwnershipEnforced(t *testing.T) {
	e := newEnv(t)
	owner := token(t, "user-1", auth.RoleCustomer)
	other := token(t, "user-2", auth.RoleCustomer)
	staff := token(t, "staff-1", auth.RoleStaff)

	rec := e.do(t, http.MethodPost, "/cart/items", owner, AddCartItemRequest{ItemID: "soda"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPost, "/checkout", owner, CheckoutRequest{})
	require.Equal(t, http.StatusCreated, rec.Code)

	var receipt ReceiptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))

	rec = e.do(t, http.MethodGet, "/orders/"+receipt.OrderID, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodGet, "/orders/"+receipt.OrderID, owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/orders/"+receipt.OrderID, staff, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateOrderStatus_StaffOnly(t *testing.T) {
	e := newEnv(t)
	customer := token(t, "user-1", auth.RoleCustomer)
	staff := token(t, "staff-1", auth.RoleStaff)

	rec := e.do(t, http.MethodPost, "/cart/items", customer, AddCartItemRequest{ItemID: "soda"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPost, "/checkout", customer, CheckoutRequest{})
	require.Equal(t, http.StatusCreated, rec.Code)

	var receipt ReceiptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))

	rec = e.do(t, http.MethodPatch, "/orders/"+receipt.OrderID+"/status", customer, UpdateStatusRequest{Status: "ready"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPatch, "/orders/"+receipt.OrderID+"/status", staff, UpdateStatusRequest{Status: "ready"})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, order.StatusReady, updated.Status)

	rec = e.do(t, http.MethodPatch, "/orders/"+receipt.OrderID+"/status", staff, UpdateStatusRequest{Status: "burnt"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_ScopedByRole(t *testing.T) {
	e := newEnv(t)
	u1 := token(t, "user-1", auth.RoleCustomer)
	u2 := token(t, "user-2", auth.RoleCustomer)
	staff := token(t, "staff-1", auth.RoleStaff)

	for _, tok := range []string{u1, u2} {
		rec := e.do(t, http.MethodPost, "/cart/items", tok, AddCartItemRequest{ItemID: "soda"})
		require.Equal(t, http.StatusOK, rec.Code)
		rec = e.do(t, http.MethodPost, "/checkout", tok, CheckoutRequest{})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := e.do(t, http.MethodGet, "/orders", u1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []*order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	rec = e.do(t, http.MethodGet, "/orders", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []*order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)
}

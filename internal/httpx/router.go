package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mezehub/ordering/internal/auth"
)

// NewRouter mounts the storefront and staff surface. The menu is public;
// everything touching a cart, order or the status channel requires a
// session.
func NewRouter(handler *Handler, jwtKey []byte) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/menu", handler.ListMenu)
	r.Get("/menu/{id}", handler.GetMenuItem)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(jwtKey))

		r.Get("/cart", handler.GetCart)
		r.Post("/cart/items", handler.AddCartItem)
		r.Patch("/cart/items", handler.UpdateCartItem)
		r.Delete("/cart/items/{itemID}", handler.RemoveCartItem)
		r.Delete("/cart", handler.ClearCart)

		r.Post("/checkout", handler.Checkout)

		r.Get("/orders", handler.ListOrders)
		r.Get("/orders/{id}", handler.GetOrder)
		r.With(auth.RequireStaff).Patch("/orders/{id}/status", handler.UpdateOrderStatus)

		r.Get("/ws", handler.ServeWS)
	})

	return r
}

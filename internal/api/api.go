// Package api serves the storefront HTTP JSON API and the cart event stream.
package api

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Options configures a Handler.
type Options struct {
	// EventBuffer is the per-stream queue of cart events. Events that do not
	// fit are dropped for that stream.
	EventBuffer int
	// Checkout wraps the checkout route, typically with a throttle.
	Checkout httpmiddleware.Middleware
}

// Handler routes API requests to the catalog, the cart and checkout.
type Handler struct {
	catalog *catalog.Service
	factory catalog.Factory
	cart    *cart.Cart
	orders  *order.Service

	eventBuffer int
	checkoutMW  httpmiddleware.Middleware
}

// New creates a Handler.
func New(products *catalog.Service, c *cart.Cart, orders *order.Service, opts Options) *Handler {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 16
	}
	if opts.Checkout == nil {
		opts.Checkout = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		catalog:     products,
		cart:        c,
		orders:      orders,
		eventBuffer: opts.EventBuffer,
		checkoutMW:  opts.Checkout,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("GET /api/cart/events", h.cartEvents)

	mux.Handle("POST /api/checkout", h.checkoutMW(http.HandlerFunc(h.checkout)))
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
}

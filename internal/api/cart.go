package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/product"
)

func (h *Handler) writeCart(w http.ResponseWriter, status int) {
	items := h.cart.Items()
	total := h.cart.Total()
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeCart(e, items, total)
	})
}

func (h *Handler) getCart(w http.ResponseWriter, _ *http.Request) {
	h.writeCart(w, http.StatusOK)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAddItem(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		internalError(w, r, err)
		return
	}
	if req.DiscountPercent != nil {
		p = h.factory.CreateDiscountedItem(p, *req.DiscountPercent)
	}

	h.cart.Add(r.Context(), p)
	h.writeCart(w, http.StatusCreated)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.cart.RemoveByID(r.Context(), r.PathValue("id")); !ok {
		writeError(w, http.StatusNotFound, "product not in cart")
		return
	}
	h.writeCart(w, http.StatusOK)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear(r.Context())
	h.writeCart(w, http.StatusOK)
}

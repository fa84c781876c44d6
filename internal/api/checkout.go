package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/payment"
)

var couponErrors = []error{
	coupon.ErrInvalidCoupon,
	coupon.ErrCouponExpired,
	coupon.ErrCouponUsageLimitReached,
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckout(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.Checkout(r.Context(), req)
	if err != nil {
		h.checkoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func (h *Handler) checkoutError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *payment.ValidationError
	switch {
	case errors.As(err, &ve):
		writeValidationError(w, ve)
		return
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, order.ErrEmptyCart.Error())
		return
	case errors.Is(err, order.ErrPaymentDeclined):
		writeError(w, http.StatusPaymentRequired, order.ErrPaymentDeclined.Error())
		return
	}
	for _, target := range couponErrors {
		if errors.Is(err, target) {
			writeError(w, http.StatusUnprocessableEntity, target.Error())
			return
		}
	}
	internalError(w, r, err)
}

// writeValidationError responds 422 with one message per failing field.
func writeValidationError(w http.ResponseWriter, ve *payment.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(http.StatusUnprocessableEntity)
		e.FieldStart("message")
		e.Str(ve.Error())
		e.FieldStart("fields")
		e.ObjStart()
		for _, f := range ve.Fields {
			e.FieldStart(string(f.Field))
			e.Str(f.Message)
		}
		e.ObjEnd()
		e.ObjEnd()
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

package api

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
)

const maxBodySize = 64 << 10

type addItemRequest struct {
	ProductID string
	// DiscountPercent adds a discounted copy of the product when set.
	DiscountPercent *decimal.Decimal
}

// decodeObject reads the request body as one JSON object and hands every
// field to fn.
func decodeObject(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if err := jx.DecodeBytes(body).Obj(fn); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}

func decodeAddItem(r *http.Request) (addItemRequest, error) {
	var req addItemRequest
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			v, err := d.Str()
			req.ProductID = v
			return err
		case "discountPercent":
			n, err := d.Num()
			if err != nil {
				return err
			}
			v, err := decimal.NewFromString(n.String())
			if err != nil {
				return errors.Wrap(err, "discountPercent")
			}
			req.DiscountPercent = &v
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return req, err
	}
	if req.ProductID == "" {
		return req, errors.New("productId is required")
	}
	return req, nil
}

func decodeCheckout(r *http.Request) (order.CheckoutRequest, error) {
	var req order.CheckoutRequest
	err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "cardNumber":
			dst = &req.CardNumber
		case "cvv":
			dst = &req.CVV
		case "expiryDate":
			dst = &req.ExpiryDate
		case "email":
			dst = &req.Email
		case "couponCode":
			dst = &req.CouponCode
		default:
			return d.Skip()
		}
		v, err := d.Str()
		*dst = v
		return err
	})
	return req, err
}

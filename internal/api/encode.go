package api

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

func money(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("kind")
	e.Str(string(p.Kind))
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	money(e, p.Price())
	e.FieldStart("basePrice")
	money(e, p.BasePrice)
	e.FieldStart("description")
	e.Str(p.Describe())
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("discounted")
	e.Bool(p.Discounted())
	e.FieldStart("display")
	e.Str(p.String())
	e.ObjEnd()
}

func encodeProducts(e *jx.Encoder, products []*product.Product) {
	e.ArrStart()
	for _, p := range products {
		encodeProduct(e, p)
	}
	e.ArrEnd()
}

func encodeCart(e *jx.Encoder, items []*product.Product, total decimal.Decimal) {
	e.ObjStart()
	e.FieldStart("items")
	encodeProducts(e, items)
	e.FieldStart("total")
	money(e, total)
	e.FieldStart("count")
	e.Int(len(items))
	e.ObjEnd()
}

func encodeEvent(e *jx.Encoder, ev cart.Event) {
	e.ObjStart()
	e.FieldStart("kind")
	e.Str(string(ev.Kind))
	e.FieldStart("message")
	e.Str(ev.Message)
	if ev.Product != nil {
		e.FieldStart("product")
		encodeProduct(e, ev.Product)
	}
	e.FieldStart("total")
	money(e, ev.Total)
	e.FieldStart("count")
	e.Int(ev.Count)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range o.Lines {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("description")
		e.Str(l.Description)
		e.FieldStart("price")
		money(e, l.Price)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	money(e, o.Subtotal)
	e.FieldStart("discounts")
	money(e, o.Discounts)
	e.FieldStart("total")
	money(e, o.Total)
	if o.CouponCode != "" {
		e.FieldStart("couponCode")
		e.Str(o.CouponCode)
	}
	e.FieldStart("paymentMethod")
	e.Str(o.PaymentMethod)
	if o.Email != "" {
		e.FieldStart("email")
		e.Str(o.Email)
	}
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}

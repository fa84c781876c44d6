package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/payment"
)

// Sentinel errors for checkout.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrPaymentDeclined = errors.New("payment declined")
	ErrNotFound        = errors.New("order not found")
)

// CheckoutRequest holds the raw checkout form.
type CheckoutRequest struct {
	CardNumber string
	CVV        string
	ExpiryDate string
	// Email and CouponCode are optional.
	Email      string
	CouponCode string
}

// Service runs checkout against the session cart.
type Service struct {
	// checkout serializes Pay from the cart snapshot to its removal.
	checkout sync.Mutex

	cart      *cart.Cart
	validator *payment.Validator
	coupons   coupon.Validator
	orders    Repository
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates a checkout Service with the required domain dependencies.
func NewService(
	c *cart.Cart,
	validator *payment.Validator,
	coupons coupon.Validator,
	orders Repository,
	tp trace.TracerProvider,
) *Service {
	return &Service{
		cart:      c,
		validator: validator,
		coupons:   coupons,
		orders:    orders,
		tracer:    tp.Tracer("github.com/xenking/storefront/internal/domain/order"),
		now:       time.Now,
	}
}

// Checkout validates the payment form, builds a credit card instrument and
// pays for the current cart contents with it.
//
// Every invalid field is reported at once in a *payment.ValidationError;
// in that case the cart is left untouched.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	if s.cart.Len() == 0 {
		return nil, ErrEmptyCart
	}

	report := s.validator.Report(req.CardNumber, req.CVV, req.ExpiryDate)
	if req.Email != "" {
		var fe *payment.FieldError
		if errors.As(s.validator.CheckField(payment.FieldEmail, req.Email), &fe) {
			report = append(report, *fe)
		}
	}
	if err := report.Err(); err != nil {
		return nil, err
	}

	in, err := payment.NewCreditCard(s.validator, req.CardNumber, req.CVV, req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	return s.Pay(ctx, in, req.Email, req.CouponCode)
}

// Pay charges in for the cart contents, less any coupon discount, persists
// the order and removes the charged entries from the cart. A zero total is
// not sent for authorization.
//
// Calls run one at a time, so a cart is never charged twice. Products added
// while a payment is in flight stay in the cart for the next checkout.
func (s *Service) Pay(ctx context.Context, in *payment.Instrument, email, couponCode string) (_ *Order, rerr error) {
	s.checkout.Lock()
	defer s.checkout.Unlock()

	ctx, span := s.tracer.Start(ctx, "checkout",
		trace.WithAttributes(attribute.String("payment.kind", string(in.Kind()))),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	items := s.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]Line, len(items))
	couponItems := make([]coupon.Item, len(items))
	subtotal := decimal.Zero
	for i, p := range items {
		price := p.Price()
		lines[i] = Line{
			ProductID:   p.ID,
			Name:        p.Name,
			Description: p.Describe(),
			Price:       price,
		}
		couponItems[i] = coupon.Item{ProductID: p.ID, Price: price}
		subtotal = subtotal.Add(price)
	}

	// Apply coupon discount when a code is provided.
	discountAmount := decimal.Zero
	if couponCode != "" {
		couponCode = coupon.NormalizeCode(couponCode)
		discount, err := s.coupons.Validate(ctx, couponCode, couponItems)
		if err != nil {
			return nil, fmt.Errorf("validate coupon: %w", err)
		}
		discountAmount = discount.Amount
	}

	// Total = subtotal - discount, floored at zero and rounded to 2 decimal places.
	total := subtotal.Sub(discountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	total = total.Round(2)
	discountAmount = discountAmount.Round(2)

	span.SetAttributes(
		attribute.Int("cart.items", len(items)),
		attribute.String("order.total", total.StringFixed(2)),
	)

	if total.IsPositive() {
		ok, err := in.Authorize(ctx, total)
		if err != nil {
			return nil, fmt.Errorf("authorize: %w", err)
		}
		if !ok {
			return nil, ErrPaymentDeclined
		}
	}

	o := &Order{
		ID:            uuid.New().String(),
		Lines:         lines,
		Subtotal:      subtotal.Round(2),
		Discounts:     discountAmount,
		Total:         total,
		CouponCode:    couponCode,
		PaymentMethod: in.MaskedNumber(),
		Email:         email,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	lg := zctx.From(ctx)
	if couponCode != "" {
		if err := s.coupons.Redeem(ctx, couponCode); err != nil {
			lg.Warn("Coupon redemption not recorded", zap.String("coupon", couponCode), zap.Error(err))
		}
	}

	s.cart.RemoveAll(ctx, items)

	lg.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("lines", len(o.Lines)),
	)
	return o, nil
}

// Get returns a stored order or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

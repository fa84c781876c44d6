package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the checkout subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount off, capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest makes the cheapest cart entry free.
	DiscountFreeLowest DiscountType = "free_lowest"
)

var (
	// ErrInvalidCoupon is returned when a coupon code is not found or
	// the cart holds fewer entries than the coupon requires.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponExpired is returned when a coupon is outside its valid time window.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrCouponUsageLimitReached is returned when a coupon has exhausted its allowed uses.
	ErrCouponUsageLimitReached = errors.New("coupon usage limit reached")
)

// Rule defines a coupon's discount and eligibility constraints.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
	Description  string
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	// MaxUses of zero means unlimited.
	MaxUses int
	Uses    int
	// MaxDiscount caps a percentage discount when positive.
	MaxDiscount decimal.Decimal
}

// Discount holds the computed discount amount and a human-readable description.
type Discount struct {
	Code        string
	Amount      decimal.Decimal
	Description string
}

// Item is one cart entry as seen by discount calculation. Duplicate
// products appear as separate items.
type Item struct {
	ProductID string
	Price     decimal.Decimal
}

// Repository provides lookup and mutation of coupon rules.
type Repository interface {
	// FindByCode returns ErrInvalidCoupon for an unknown code.
	FindByCode(ctx context.Context, code string) (*Rule, error)
	IncrementUses(ctx context.Context, code string) error
	// Save inserts or replaces the rule with r.Code.
	Save(ctx context.Context, r *Rule) error
}

// Defaults are the coupons a fresh store starts with.
var Defaults = []Rule{
	{
		Code:         "WELCOME10",
		DiscountType: DiscountPercentage,
		Value:        decimal.NewFromInt(10),
		Description:  "10% off your order",
		MaxDiscount:  decimal.NewFromInt(100),
	},
	{
		Code:         "SAVE50",
		DiscountType: DiscountFixed,
		Value:        decimal.NewFromInt(50),
		MinItems:     2,
		Description:  "$50 off two or more items",
	},
	{
		Code:         "BUNDLE3",
		DiscountType: DiscountFreeLowest,
		MinItems:     3,
		Description:  "Cheapest item free with three or more items",
	},
}

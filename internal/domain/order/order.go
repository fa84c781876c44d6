package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a paid checkout with pricing and discount details.
type Order struct {
	ID        string
	Lines     []Line
	Subtotal  decimal.Decimal
	Discounts decimal.Decimal
	Total     decimal.Decimal
	// CouponCode is empty when no coupon was applied.
	CouponCode    string
	PaymentMethod string
	Email         string
	CreatedAt     time.Time
}

// Line is one cart entry captured at checkout. Duplicate cart entries
// become separate lines.
type Line struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
}

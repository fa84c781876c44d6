package product

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ModifierKind enumerates the supported price transforms.
type ModifierKind string

const (
	// ModifierDiscount multiplies the price by (1 - Value/100).
	ModifierDiscount ModifierKind = "discount"
	// ModifierMarkdown subtracts Value from the price.
	ModifierMarkdown ModifierKind = "markdown"
)

// Modifier is a single step of a product's pricing chain.
//
// Values are not bounds-checked: a discount above 100 percent or a markdown
// larger than the price produces a negative price.
type Modifier struct {
	Kind  ModifierKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Discount returns a percentage-off modifier.
func Discount(percent decimal.Decimal) Modifier {
	return Modifier{Kind: ModifierDiscount, Value: percent}
}

// Markdown returns a fixed-amount-off modifier.
func Markdown(amount decimal.Decimal) Modifier {
	return Modifier{Kind: ModifierMarkdown, Value: amount}
}

// Apply transforms price. Unknown kinds leave the price unchanged.
func (m Modifier) Apply(price decimal.Decimal) decimal.Decimal {
	switch m.Kind {
	case ModifierDiscount:
		factor := decimal.NewFromInt(1).Sub(m.Value.Div(hundred))
		return price.Mul(factor)
	case ModifierMarkdown:
		return price.Sub(m.Value)
	default:
		return price
	}
}

// Label is the suffix appended to the product description.
func (m Modifier) Label() string {
	switch m.Kind {
	case ModifierDiscount:
		return fmt.Sprintf(" (%s%% off)", m.Value.String())
	case ModifierMarkdown:
		return fmt.Sprintf(" ($%s off)", m.Value.StringFixed(2))
	default:
		return ""
	}
}

package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Kind classifies a catalog product.
type Kind string

const (
	// KindGeneral is the fallback for unrecognized kind tags.
	KindGeneral     Kind = "general"
	KindElectronics Kind = "electronics"
	KindClothing    Kind = "clothing"
)

// Product represents a catalog item available for purchase.
//
// Price and Describe are derived from BasePrice and Description by applying
// Modifiers in order. A Product with modifiers is a copy of the product it
// was derived from and shares its ID.
type Product struct {
	ID          string
	Kind        Kind
	Name        string
	BasePrice   decimal.Decimal
	Description string
	Stock       int
	Modifiers   []Modifier
}

// Price returns the base price transformed by every modifier, each one
// seeing the result of the previous. The result may be zero or negative.
func (p *Product) Price() decimal.Decimal {
	price := p.BasePrice
	for _, m := range p.Modifiers {
		price = m.Apply(price)
	}
	return price
}

// Describe returns the description followed by one label per modifier.
func (p *Product) Describe() string {
	desc := p.Description
	for _, m := range p.Modifiers {
		desc += m.Label()
	}
	return desc
}

// WithModifier returns a copy of p with m appended to its modifier chain.
// p itself is left untouched.
func (p *Product) WithModifier(m Modifier) *Product {
	cp := *p
	cp.Modifiers = make([]Modifier, 0, len(p.Modifiers)+1)
	cp.Modifiers = append(cp.Modifiers, p.Modifiers...)
	cp.Modifiers = append(cp.Modifiers, m)
	return &cp
}

// WithDiscount is shorthand for WithModifier(Discount(percent)).
func (p *Product) WithDiscount(percent decimal.Decimal) *Product {
	return p.WithModifier(Discount(percent))
}

// Discounted reports whether any modifier is applied.
func (p *Product) Discounted() bool {
	return len(p.Modifiers) > 0
}

func (p *Product) String() string {
	return p.Name + " - $" + p.Price().StringFixed(2)
}

// Repository is the persistence collaborator for the catalog.
type Repository interface {
	// Save stores p and assigns p.ID when it is empty.
	Save(ctx context.Context, p *Product) error
	LoadAll(ctx context.Context) ([]*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	// ExistsByName reports whether a product with the given name
	// (case-insensitive) is stored.
	ExistsByName(ctx context.Context, name string) (bool, error)
}

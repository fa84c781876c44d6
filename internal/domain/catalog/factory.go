// Package catalog creates catalog products and keeps them in a
// product.Repository.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// InvalidProductError reports a product that violates a catalog invariant.
type InvalidProductError struct {
	Name   string
	Reason string
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product %q: %s", e.Name, e.Reason)
}

// ParseKind maps a kind tag to a Kind. Matching is case-insensitive and
// unrecognized tags map to product.KindGeneral.
func ParseKind(tag string) product.Kind {
	switch product.Kind(strings.ToLower(strings.TrimSpace(tag))) {
	case product.KindElectronics:
		return product.KindElectronics
	case product.KindClothing:
		return product.KindClothing
	default:
		return product.KindGeneral
	}
}

// Factory is the construction entry point for catalog products.
type Factory struct{}

// CreateItem builds an unsaved product of the given kind.
func (Factory) CreateItem(kind, name string, basePrice decimal.Decimal, description string, stock int) (*product.Product, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, &InvalidProductError{Name: name, Reason: "name is required"}
	case basePrice.IsNegative():
		return nil, &InvalidProductError{Name: name, Reason: "base price must not be negative"}
	case stock < 0:
		return nil, &InvalidProductError{Name: name, Reason: "stock must not be negative"}
	}

	return &product.Product{
		Kind:        ParseKind(kind),
		Name:        name,
		BasePrice:   basePrice,
		Description: description,
		Stock:       stock,
	}, nil
}

// CreateDiscountedItem wraps p in a percentage discount. The percentage is
// not bounded.
func (Factory) CreateDiscountedItem(p *product.Product, percent decimal.Decimal) *product.Product {
	return p.WithDiscount(percent)
}

package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/product"
)

// Spec describes a product to create.
type Spec struct {
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
}

// Defaults is the catalog a fresh store starts with.
var Defaults = []Spec{
	{Kind: "electronics", Name: "Laptop", BasePrice: decimal.RequireFromString("999.99"), Description: "High-performance laptop", Stock: 10},
	{Kind: "electronics", Name: "Smartphone", BasePrice: decimal.RequireFromString("499.99"), Description: "Latest model smartphone", Stock: 20},
	{Kind: "electronics", Name: "Headphones", BasePrice: decimal.RequireFromString("199.99"), Description: "Noise-cancelling headphones", Stock: 15},
	{Kind: "electronics", Name: "Smartwatch", BasePrice: decimal.RequireFromString("299.99"), Description: "Feature-rich smartwatch", Stock: 25},
}

// Service creates products through the Factory and persists them.
type Service struct {
	factory Factory
	repo    product.Repository
}

// NewService returns a Service backed by repo.
func NewService(repo product.Repository) *Service {
	return &Service{repo: repo}
}

// Create validates s and saves the resulting product.
func (s *Service) Create(ctx context.Context, spec Spec) (*product.Product, error) {
	p, err := s.factory.CreateItem(spec.Kind, spec.Name, spec.BasePrice, spec.Description, spec.Stock)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	return p, nil
}

// CreateDiscounted validates s, wraps it in a percent discount and saves
// the discounted product.
func (s *Service) CreateDiscounted(ctx context.Context, spec Spec, percent decimal.Decimal) (*product.Product, error) {
	p, err := s.factory.CreateItem(spec.Kind, spec.Name, spec.BasePrice, spec.Description, spec.Stock)
	if err != nil {
		return nil, err
	}
	p = s.factory.CreateDiscountedItem(p, percent)
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	return p, nil
}

// List returns every stored product.
func (s *Service) List(ctx context.Context) ([]*product.Product, error) {
	products, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products, nil
}

// Get returns the product with the given ID or product.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*product.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Seed creates every default product whose name is not stored yet and
// returns how many were created.
func (s *Service) Seed(ctx context.Context) (int, error) {
	lg := zctx.From(ctx)

	created := 0
	for _, spec := range Defaults {
		exists, err := s.repo.ExistsByName(ctx, spec.Name)
		if err != nil {
			return created, fmt.Errorf("check %q: %w", spec.Name, err)
		}
		if exists {
			continue
		}
		p, err := s.Create(ctx, spec)
		if err != nil {
			return created, err
		}
		lg.Debug("Seeded product", zap.String("id", p.ID), zap.String("name", p.Name))
		created++
	}
	return created, nil
}

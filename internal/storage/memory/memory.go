// Package memory implements the storage contracts in process memory. It
// backs tests and runs without a configured database.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ order.Repository   = (*OrderRepository)(nil)
	_ coupon.Repository  = (*CouponRepository)(nil)
)

// ProductRepository keeps products in insertion order. Reads return
// copies.
type ProductRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*product.Product
}

// NewProductRepository returns an empty repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{byID: make(map[string]*product.Product)}
}

// Save inserts p, or replaces the stored product with the same ID.
func (r *ProductRepository) Save(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := r.byID[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.byID[p.ID] = cloneProduct(p)
	return nil
}

func (r *ProductRepository) LoadAll(_ context.Context) ([]*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*product.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneProduct(r.byID[id]))
	}
	return out, nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.byID {
		if strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Ping always succeeds.
func (r *ProductRepository) Ping(context.Context) error {
	return nil
}

func cloneProduct(p *product.Product) *product.Product {
	cp := *p
	cp.Modifiers = slices.Clone(p.Modifiers)
	return &cp
}

// OrderRepository stores orders by ID.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]order.Order
}

// NewOrderRepository returns an empty repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]order.Order)}
}

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *o
	cp.Lines = slices.Clone(o.Lines)
	r.orders[o.ID] = cp
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Lines = slices.Clone(o.Lines)
	return &o, nil
}

// Len returns the number of stored orders.
func (r *OrderRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// CouponRepository stores coupon rules keyed by upper-cased code.
type CouponRepository struct {
	mu    sync.Mutex
	rules map[string]coupon.Rule
}

// NewCouponRepository returns a repository holding rules.
func NewCouponRepository(rules ...coupon.Rule) *CouponRepository {
	r := &CouponRepository{rules: make(map[string]coupon.Rule, len(rules))}
	for _, rule := range rules {
		r.rules[strings.ToUpper(rule.Code)] = rule
	}
	return r
}

func (r *CouponRepository) FindByCode(_ context.Context, code string) (*coupon.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[strings.ToUpper(code)]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return &rule, nil
}

func (r *CouponRepository) IncrementUses(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToUpper(code)
	rule, ok := r.rules[key]
	if !ok {
		return coupon.ErrInvalidCoupon
	}
	rule.Uses++
	r.rules[key] = rule
	return nil
}

func (r *CouponRepository) Save(_ context.Context, rule *coupon.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules[strings.ToUpper(rule.Code)] = *rule
	return nil
}

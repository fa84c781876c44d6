package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	productColumns = `id, kind, name, base_price, description, stock, modifiers`

	saveProductSQL = `INSERT INTO products (id, kind, name, base_price, description, stock, modifiers)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			name = EXCLUDED.name,
			base_price = EXCLUDED.base_price,
			description = EXCLUDED.description,
			stock = EXCLUDED.stock,
			modifiers = EXCLUDED.modifiers`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	productExistsByNameSQL = `SELECT EXISTS (SELECT 1 FROM products WHERE LOWER(name) = LOWER($1))`

	countProductsSQL = `SELECT count(*) FROM products`

	listProductNamesSQL = `SELECT name FROM products`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Save upserts p by ID, assigning a new UUID when p.ID is empty. The
// modifier chain is stored as JSONB.
func (r *ProductRepository) Save(ctx context.Context, p *product.Product) error {
	modifiers, err := json.Marshal(nonNil(p.Modifiers))
	if err != nil {
		return fmt.Errorf("marshaling modifiers: %w", err)
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = r.pool.Exec(ctx, saveProductSQL,
		id, string(p.Kind), p.Name, p.BasePrice, p.Description, p.Stock, modifiers,
	)
	if err != nil {
		return fmt.Errorf("saving product %q: %w", p.Name, err)
	}
	p.ID = id
	return nil
}

// LoadAll returns every product in insertion order.
func (r *ProductRepository) LoadAll(ctx context.Context) ([]*product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return p, nil
}

// ExistsByName reports whether a product with the given name exists,
// ignoring case.
func (r *ProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, productExistsByNameSQL, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking product %q: %w", name, err)
	}
	return exists, nil
}

// Count returns the number of stored products.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countProductsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}

// EachName calls fn with every stored product name. Rows are streamed, so
// only one name is held at a time.
func (r *ProductRepository) EachName(ctx context.Context, fn func(name string)) error {
	rows, err := r.pool.Query(ctx, listProductNamesSQL)
	if err != nil {
		return fmt.Errorf("listing product names: %w", err)
	}
	var name string
	if _, err := pgx.ForEachRow(rows, []any{&name}, func() error {
		fn(name)
		return nil
	}); err != nil {
		return fmt.Errorf("listing product names: %w", err)
	}
	return nil
}

// Ping checks connectivity to the database.
func (r *ProductRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanProduct(row pgx.CollectableRow) (*product.Product, error) {
	var (
		p         product.Product
		kind      string
		modifiers []byte
	)
	if err := row.Scan(
		&p.ID, &kind, &p.Name, &p.BasePrice, &p.Description, &p.Stock, &modifiers,
	); err != nil {
		return nil, err
	}
	p.Kind = product.Kind(kind)
	if err := json.Unmarshal(modifiers, &p.Modifiers); err != nil {
		return nil, fmt.Errorf("unmarshaling modifiers of %q: %w", p.ID, err)
	}
	if len(p.Modifiers) == 0 {
		p.Modifiers = nil
	}
	return &p, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

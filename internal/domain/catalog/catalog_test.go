package catalog

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	saved   []*product.Product
	saveErr error
	existsE error
}

func (m *mockProductRepo) Save(_ context.Context, p *product.Product) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if p.ID == "" {
		p.ID = "id-" + strconv.Itoa(len(m.saved)+1)
	}
	m.saved = append(m.saved, p)
	return nil
}

func (m *mockProductRepo) LoadAll(_ context.Context) ([]*product.Product, error) {
	return m.saved, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	for _, p := range m.saved {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	if m.existsE != nil {
		return false, m.existsE
	}
	for _, p := range m.saved {
		if strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// --- Tests ---

func TestParseKind(t *testing.T) {
	tests := []struct {
		tag  string
		want product.Kind
	}{
		{"electronics", product.KindElectronics},
		{"Electronics", product.KindElectronics},
		{" CLOTHING ", product.KindClothing},
		{"general", product.KindGeneral},
		{"furniture", product.KindGeneral},
		{"", product.KindGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKind(tt.tag))
		})
	}
}

func TestFactory_CreateItem(t *testing.T) {
	var f Factory

	tests := []struct {
		name       string
		kind       string
		pname      string
		price      string
		stock      int
		wantReason string
	}{
		{name: "valid", kind: "electronics", pname: "Laptop", price: "999.99", stock: 10},
		{name: "zero price is allowed", kind: "general", pname: "Sticker", price: "0", stock: 0},
		{name: "empty name", kind: "general", pname: "  ", price: "1", stock: 1, wantReason: "name is required"},
		{name: "negative price", kind: "general", pname: "Bad", price: "-0.01", stock: 1, wantReason: "base price must not be negative"},
		{name: "negative stock", kind: "general", pname: "Bad", price: "1", stock: -1, wantReason: "stock must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.CreateItem(tt.kind, tt.pname, decimal.RequireFromString(tt.price), "desc", tt.stock)
			if tt.wantReason != "" {
				var ipErr *InvalidProductError
				require.ErrorAs(t, err, &ipErr)
				assert.Equal(t, tt.wantReason, ipErr.Reason)
				assert.Nil(t, p)
				return
			}

			require.NoError(t, err)
			assert.Empty(t, p.ID, "ID is assigned by persistence")
			assert.Equal(t, ParseKind(tt.kind), p.Kind)
			assert.Equal(t, tt.pname, p.Name)
			assert.Equal(t, tt.stock, p.Stock)
			assert.False(t, p.Discounted())
		})
	}
}

func TestFactory_CreateDiscountedItem(t *testing.T) {
	var f Factory
	base, err := f.CreateItem("electronics", "Laptop", decimal.NewFromInt(100), "High-performance laptop", 10)
	require.NoError(t, err)
	base.ID = "p1"

	d := f.CreateDiscountedItem(base, decimal.NewFromInt(10))
	dd := f.CreateDiscountedItem(d, decimal.NewFromInt(10))

	assert.True(t, decimal.NewFromInt(90).Equal(d.Price()))
	assert.True(t, decimal.NewFromInt(81).Equal(dd.Price()))
	assert.Equal(t, "p1", dd.ID)
	assert.Equal(t, "High-performance laptop (10% off) (10% off)", dd.Describe())
	assert.False(t, base.Discounted())

	over := f.CreateDiscountedItem(base, decimal.NewFromInt(120))
	assert.True(t, decimal.NewFromInt(-20).Equal(over.Price()))
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	repo := &mockProductRepo{}
	svc := NewService(repo)

	p, err := svc.Create(ctx, Spec{Kind: "clothing", Name: "Shirt", BasePrice: decimal.NewFromInt(20), Stock: 3})
	require.NoError(t, err)
	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, product.KindClothing, p.Kind)

	_, err = svc.Create(ctx, Spec{Name: ""})
	var ipErr *InvalidProductError
	require.ErrorAs(t, err, &ipErr)
	assert.Len(t, repo.saved, 1, "invalid product is not saved")
}

func TestService_CreateSaveError(t *testing.T) {
	repoErr := errors.New("db down")
	svc := NewService(&mockProductRepo{saveErr: repoErr})

	_, err := svc.Create(context.Background(), Spec{Name: "X", BasePrice: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, repoErr)
}

func TestService_CreateDiscounted(t *testing.T) {
	ctx := context.Background()
	repo := &mockProductRepo{}
	svc := NewService(repo)

	p, err := svc.CreateDiscounted(ctx, Spec{Kind: "electronics", Name: "Phone", BasePrice: decimal.NewFromInt(500), Stock: 2}, decimal.NewFromInt(20))
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
	assert.Same(t, p, repo.saved[0])
	assert.True(t, decimal.NewFromInt(400).Equal(p.Price()))
}

func TestService_GetAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockProductRepo{})

	created, err := svc.Create(ctx, Spec{Name: "A", BasePrice: decimal.NewFromInt(1)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Same(t, created, got)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, product.ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_Seed(t *testing.T) {
	ctx := context.Background()
	repo := &mockProductRepo{}
	svc := NewService(repo)

	n, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(Defaults), n)

	names := make([]string, len(repo.saved))
	for i, p := range repo.saved {
		names[i] = p.String()
	}
	assert.Equal(t, []string{
		"Laptop - $999.99",
		"Smartphone - $499.99",
		"Headphones - $199.99",
		"Smartwatch - $299.99",
	}, names)

	n, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding twice creates nothing")
	assert.Len(t, repo.saved, len(Defaults))
}

func TestService_SeedExistsError(t *testing.T) {
	repoErr := errors.New("timeout")
	svc := NewService(&mockProductRepo{existsE: repoErr})

	_, err := svc.Seed(context.Background())
	require.ErrorIs(t, err, repoErr)
}

// Command seed-catalog stores a product catalog and the default coupons in
// PostgreSQL. Products whose name already exists are skipped; the default
// coupons are rewritten, usage counters included.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/storage/postgres"
)

// seedEntry is one element of the products file.
type seedEntry struct {
	catalog.Spec
	// DiscountPercent stores a discounted product instead.
	DiscountPercent *decimal.Decimal `json:"discountPercent,omitempty"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		skipCoupons  bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file; the built-in catalog when empty")
	flag.BoolVar(&skipCoupons, "skip-coupons", false, "do not store the default coupons")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, skipCoupons); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string, skipCoupons bool) error {
	entries, err := loadEntries(productsFile)
	if err != nil {
		return err
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products := postgres.NewProductRepository(pool)
	if err := seedProducts(ctx, catalog.NewService(products), products, entries); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if skipCoupons {
		return nil
	}
	if err := seedCoupons(ctx, postgres.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func loadEntries(path string) ([]seedEntry, error) {
	if path == "" {
		entries := make([]seedEntry, len(catalog.Defaults))
		for i, spec := range catalog.Defaults {
			entries[i] = seedEntry{Spec: spec}
		}
		return entries, nil
	}

	slog.Info("reading products file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read products file")
	}

	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}
	return entries, nil
}

func seedProducts(ctx context.Context, svc *catalog.Service, products *postgres.ProductRepository, entries []seedEntry) error {
	slog.Info("storing products", slog.Int("count", len(entries)))

	for _, e := range entries {
		exists, err := products.ExistsByName(ctx, e.Name)
		if err != nil {
			return errors.Wrapf(err, "check product %q", e.Name)
		}
		if exists {
			slog.Info("product exists, skipped", slog.String("name", e.Name))
			continue
		}

		if e.DiscountPercent != nil {
			p, err := svc.CreateDiscounted(ctx, e.Spec, *e.DiscountPercent)
			if err != nil {
				return errors.Wrapf(err, "create product %q", e.Name)
			}
			slog.Info("stored product", slog.String("id", p.ID), slog.String("product", p.String()))
			continue
		}

		p, err := svc.Create(ctx, e.Spec)
		if err != nil {
			return errors.Wrapf(err, "create product %q", e.Name)
		}
		slog.Info("stored product", slog.String("id", p.ID), slog.String("product", p.String()))
	}

	return nil
}

func seedCoupons(ctx context.Context, coupons *postgres.CouponRepository) error {
	slog.Info("seeding default coupons")

	for _, c := range coupon.Defaults {
		if err := coupons.Save(ctx, &c); err != nil {
			return errors.Wrapf(err, "save coupon %s", c.Code)
		}

		slog.Info("saved coupon", slog.String("code", c.Code), slog.String("description", c.Description))
	}

	return nil
}

// Command catalog-import loads products from gzip-compressed JSON-lines
// feeds into PostgreSQL.
//
// Every line is one product object:
//
//	{"kind":"electronics","name":"Laptop","basePrice":"999.99","description":"...","stock":10}
//
// basePrice may be a string or a number; discountPercent is optional. Files
// are decoded concurrently. Names already in the catalog, or repeated across
// the feeds, are skipped. A bloom filter of existing names keeps the
// per-product existence query off the hot path: only names the filter
// reports as possibly present are checked against the database. The filter
// is filled from a name-only query, so the stored catalog is never loaded.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/postgres"
)

const (
	bloomFPR      = 0.001
	minBloomSize  = 10_000
	progressEvery = 1_000
	maxLineSize   = 1 << 20
)

func main() {
	var (
		pattern     string
		databaseURL string
		dryRun      bool
	)

	flag.StringVar(&pattern, "files", "data/*.jsonl.gz", "glob of gzip JSON-lines product feeds")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "decode and deduplicate without storing")
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

	if err := run(ctx, pattern, databaseURL, dryRun); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, pattern, databaseURL string, dryRun bool) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return errors.Wrap(err, "match feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no feed files match %q", pattern)
	}

	slog.Info("decoding feeds", slog.Int("files", len(files)))

	feeds, err := decodeFeeds(ctx, files)
	if err != nil {
		return errors.Wrap(err, "decode feeds")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewProductRepository(pool)
	stored, err := repo.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "count catalog")
	}

	total := 0
	for _, specs := range feeds {
		total += len(specs)
	}
	imp := newImporter(repo, stored, total)
	imp.dryRun = dryRun
	if err := repo.EachName(ctx, imp.addKnown); err != nil {
		return errors.Wrap(err, "load catalog names")
	}

	for i, specs := range feeds {
		if err := imp.importAll(ctx, specs); err != nil {
			return errors.Wrapf(err, "import %s", files[i])
		}
	}

	slog.Info("import summary",
		slog.Int("created", imp.created),
		slog.Int("skipped", imp.skipped),
		slog.Int("db_checks", imp.dbChecks),
	)
	return nil
}

// decodeFeeds decodes every file concurrently. The result keeps file order.
func decodeFeeds(ctx context.Context, files []string) ([][]importSpec, error) {
	feeds := make([][]importSpec, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			specs, err := decodeFile(ctx, path)
			if err != nil {
				return err
			}
			feeds[i] = specs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return feeds, nil
}

// decodeFile reads one gzip JSON-lines feed. Malformed lines are logged and
// skipped.
func decodeFile(ctx context.Context, path string) ([]importSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	var (
		specs   []importSpec
		line    int
		invalid int
	)
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		spec, err := parseSpec(raw)
		if err != nil {
			invalid++
			slog.Warn("skipping line",
				slog.String("file", path),
				slog.Int("line", line),
				slog.String("error", err.Error()),
			)
			continue
		}
		specs = append(specs, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan %s", path)
	}

	slog.Info("decoded feed",
		slog.String("file", path),
		slog.Int("products", len(specs)),
		slog.Int("invalid", invalid),
	)
	return specs, nil
}

// productStore is the subset of the product repository the importer uses.
type productStore interface {
	Save(ctx context.Context, p *product.Product) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type importer struct {
	repo    productStore
	factory catalog.Factory
	known   *bloom.BloomFilter
	seen    map[string]struct{}
	dryRun  bool

	created  int
	skipped  int
	dbChecks int
}

// newImporter sizes the filter for stored names plus incoming rows. Stored
// names are added with addKnown.
func newImporter(repo productStore, stored, incoming int) *importer {
	size := uint(max(stored+incoming, minBloomSize))
	return &importer{
		repo:  repo,
		known: bloom.NewWithEstimates(size, bloomFPR),
		seen:  make(map[string]struct{}, incoming),
	}
}

func (imp *importer) addKnown(name string) {
	imp.known.AddString(nameKey(name))
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (imp *importer) importAll(ctx context.Context, specs []importSpec) error {
	for _, spec := range specs {
		if err := imp.importOne(ctx, spec); err != nil {
			return err
		}
		if n := imp.created + imp.skipped; n%progressEvery == 0 {
			slog.Info("import progress", slog.Int("processed", n))
		}
	}
	return nil
}

func (imp *importer) importOne(ctx context.Context, spec importSpec) error {
	key := nameKey(spec.Name)
	if _, dup := imp.seen[key]; dup {
		imp.skipped++
		return nil
	}

	// An invalid row does not claim its name for later rows.
	p, err := imp.factory.CreateItem(spec.Kind, spec.Name, spec.BasePrice, spec.Description, spec.Stock)
	if err != nil {
		slog.Warn("skipping product", slog.String("error", err.Error()))
		imp.skipped++
		return nil
	}
	imp.seen[key] = struct{}{}

	if imp.known.TestString(key) {
		imp.dbChecks++
		exists, err := imp.repo.ExistsByName(ctx, spec.Name)
		if err != nil {
			return errors.Wrapf(err, "check product %q", spec.Name)
		}
		if exists {
			imp.skipped++
			return nil
		}
	}

	if spec.DiscountPercent != nil {
		p = imp.factory.CreateDiscountedItem(p, *spec.DiscountPercent)
	}

	if !imp.dryRun {
		if err := imp.repo.Save(ctx, p); err != nil {
			return errors.Wrapf(err, "save product %q", spec.Name)
		}
	}
	imp.known.AddString(key)
	imp.created++
	return nil
}

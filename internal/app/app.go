package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/api"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// storage bundles the repositories of one backend.
type storage struct {
	name     string
	products product.Repository
	orders   order.Repository
	coupons  coupon.Repository
	pinger   health.Pinger
	close    func()
}

// openStorage connects to PostgreSQL and migrates it, or falls back to
// in-memory repositories when no database URL is configured.
func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config) (*storage, error) {
	if cfg.DatabaseURL == "" {
		lg.Warn("No database configured, using in-memory storage")
		products := memory.NewProductRepository()
		return &storage{
			name:     "memory",
			products: products,
			orders:   memory.NewOrderRepository(),
			coupons:  memory.NewCouponRepository(),
			pinger:   products,
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	products := postgres.NewProductRepository(pool)
	return &storage{
		name:     "postgres",
		products: products,
		orders:   postgres.NewOrderRepository(pool),
		coupons:  postgres.NewCouponRepository(pool),
		pinger:   products,
		close:    pool.Close,
	}, nil
}

// seed stores the default catalog and coupons that are missing.
func seed(ctx context.Context, lg *zap.Logger, products *catalog.Service, coupons coupon.Repository) error {
	created, err := products.Seed(ctx)
	if err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	added := 0
	for _, rule := range coupon.Defaults {
		_, err := coupons.FindByCode(ctx, rule.Code)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, coupon.ErrInvalidCoupon):
			return errors.Wrapf(err, "find coupon %q", rule.Code)
		}
		if err := coupons.Save(ctx, &rule); err != nil {
			return errors.Wrapf(err, "save coupon %q", rule.Code)
		}
		added++
	}

	lg.Info("Seeded store", zap.Int("products", created), zap.Int("coupons", added))
	return nil
}

// newHandler builds the session cart and domain services and returns the
// fully wrapped HTTP handler.
func newHandler(
	ctx context.Context,
	lg *zap.Logger,
	cfg *Config,
	st *storage,
	hs *health.Health,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (http.Handler, error) {
	products := catalog.NewService(st.products)
	if cfg.SeedCatalog {
		if err := seed(ctx, lg, products, st.coupons); err != nil {
			return nil, err
		}
	}

	c := cart.New()
	cm, err := newCartMetrics(mp)
	if err != nil {
		return nil, errors.Wrap(err, "cart metrics")
	}
	c.Subscribe(cm.Listen)

	orders := order.NewService(c,
		payment.NewValidator(time.Now),
		coupon.NewRepoValidator(st.coupons),
		st.orders,
		tp,
	)

	throttle := httpmiddleware.NewThrottler(httpmiddleware.ThrottleConfig{
		Limit:  cfg.Checkout.Limit,
		Window: cfg.Checkout.Window,
	})
	go throttle.RunSweeper(ctx)

	mux := http.NewServeMux()
	mux.Handle("GET /livez", hs.Handler(health.Liveness))
	mux.Handle("GET /readyz", hs.Handler(health.Readiness))
	api.New(products, c, orders, api.Options{
		EventBuffer: cfg.Events.Buffer,
		Checkout:    throttle.Middleware(),
	}).Register(mux)

	instrument := func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "storefront",
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
		)
	}
	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.RequestID(),
		instrument,
		httpmiddleware.LogRequests(),
	), nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	st, err := openStorage(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	healthSvc := health.New()
	healthSvc.Add(health.Readiness, st.name, health.PingCheck(st.pinger), health.WithTimeout(5*time.Second))
	healthSvc.Add(health.Liveness, "goroutines", health.GoroutineCountCheck(cfg.Health.MaxGoroutines))
	healthSvc.Add(health.Liveness, "gc_pause", health.GCMaxPauseCheck(cfg.Health.MaxGCPause))

	handler, err := newHandler(ctx, lg, cfg, st, healthSvc, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}

	healthSvc.Start(ctx, cfg.Health.Interval)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// No WriteTimeout: the cart event stream stays open.
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           handler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr), zap.String("storage", st.name))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

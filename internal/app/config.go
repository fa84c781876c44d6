package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL; in-memory storage when empty" flag:"database-url"`
	SeedCatalog bool   `default:"true" usage:"Create the default catalog and coupons on start" flag:"seed-catalog"`
	Checkout    CheckoutConfig
	Events      EventsConfig
	Health      HealthConfig
	Graceful    GracefulConfig
}

// CheckoutConfig throttles checkout attempts per client.
type CheckoutConfig struct {
	Limit  int           `default:"10" usage:"Checkout attempts per window and client, 0 disables"`
	Window time.Duration `default:"1m" usage:"Checkout throttle window"`
}

// EventsConfig controls the cart event stream.
type EventsConfig struct {
	Buffer int `default:"16" usage:"Queued cart events per stream before events are dropped"`
}

// HealthConfig controls probe scheduling and thresholds.
type HealthConfig struct {
	Interval      time.Duration `default:"10s" usage:"Probe interval"`
	MaxGoroutines int           `default:"10000" usage:"Liveness fails above this goroutine count" flag:"max-goroutines"`
	MaxGCPause    time.Duration `default:"1s" usage:"Liveness fails when a GC pause exceeds this" flag:"max-gc-pause"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from command-line flags, environment
// variables and YAML config files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Args:      args,
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.Events.Buffer <= 0 {
		return nil, errors.Errorf("events buffer must be positive, got %d", cfg.Events.Buffer)
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) such as DATABASE_URL and PORT onto the
// STOREFRONT_ configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

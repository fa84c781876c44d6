package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearPlatformEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearPlatformEnv(t)

	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.True(t, cfg.SeedCatalog)
	assert.Equal(t, 10, cfg.Checkout.Limit)
	assert.Equal(t, time.Minute, cfg.Checkout.Window)
	assert.Equal(t, 16, cfg.Events.Buffer)
	assert.Equal(t, 10*time.Second, cfg.Health.Interval)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_Env(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("STOREFRONT_ADDR", "127.0.0.1:9000")
	t.Setenv("STOREFRONT_DATABASE_URL", "postgres://localhost/storefront")
	t.Setenv("STOREFRONT_SEED_CATALOG", "false")
	t.Setenv("STOREFRONT_CHECKOUT_LIMIT", "3")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "postgres://localhost/storefront", cfg.DatabaseURL)
	assert.False(t, cfg.SeedCatalog)
	assert.Equal(t, 3, cfg.Checkout.Limit)
}

func TestLoadConfig_Flags(t *testing.T) {
	clearPlatformEnv(t)

	cfg, err := loadConfig([]string{"-database-url=postgres://flag/storefront"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag/storefront", cfg.DatabaseURL)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "3000")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr)
}

func TestLoadConfig_ExplicitWinsOverPlatform(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "3000")
	t.Setenv("STOREFRONT_ADDR", "127.0.0.1:9000")
	t.Setenv("STOREFRONT_DATABASE_URL", "postgres://explicit/db")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestLoadConfig_InvalidEventBuffer(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("STOREFRONT_EVENTS_BUFFER", "0")

	_, err := loadConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events buffer")
}

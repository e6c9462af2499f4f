package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsWithEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", DriverMemory)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, PricingServer, cfg.Pricing.Mode)
	assert.Equal(t, 0.10, cfg.Pricing.TaxRate)
	assert.Equal(t, 500.0, cfg.Pricing.ShippingPrice)
	assert.Equal(t, "orders.events", cfg.Kafka.Topic)
	assert.Equal(t, 15*time.Minute, cfg.Redis.CartTTL)
}

func TestLoadCartTTL(t *testing.T) {
	path := writeFile(t, "storefront.yaml", `
store:
  driver: memory
auth:
  jwt_secret: x
redis:
  addr: cache:6379
  cart_ttl: 30m
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Redis.CartTTL)

	t.Setenv("REDIS_CART_TTL", "90s")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Redis.CartTTL)
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	path := writeFile(t, "storefront.yaml", `
port: "9000"
request_timeout: 2s
store:
  driver: mongo
  mongo_uri: mongodb://db:27017
  database: shop
auth:
  jwt_secret: from-file
  token_ttl: 1h
kafka:
  brokers: [k1:9092]
pricing:
  mode: client
  tax_rate: 0.2
  shipping_price: 0
`)
	t.Setenv("PORT", "9100")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("TAX_RATE", "0.15")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.MongoURI)
	assert.Equal(t, "shop", cfg.Store.Database)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, PricingClient, cfg.Pricing.Mode)
	assert.Equal(t, 0.15, cfg.Pricing.TaxRate)
	assert.Equal(t, 0.0, cfg.Pricing.ShippingPrice)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"STORE_DRIVER": DriverMemory}},
		{"mongo without uri", map[string]string{"JWT_SECRET": "x"}},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "sqlite"}},
		{"unknown pricing", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": DriverMemory, "PRICING_MODE": "free"}},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": DriverMemory, "JWT_TTL": "soon"}},
		{"zero cart ttl", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": DriverMemory, "REDIS_CART_TTL": "0s"}},
		{"bad float", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": DriverMemory, "TAX_RATE": "ten"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("MONGO_URI", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "STOREFRONT_TEST_VALUE=hello\n")
	t.Setenv("STOREFRONT_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("STOREFRONT_TEST_VALUE"))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "hello", GetEnv("STOREFRONT_TEST_VALUE", "fallback"))
}

func TestLoadEnvMissingFileIsFine(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("STOREFRONT_UNSET_VALUE", "")
	assert.Equal(t, "fallback", GetEnv("STOREFRONT_UNSET_VALUE", "fallback"))
}

func TestLoadAdminSeed(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORE_DRIVER", DriverMemory)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Admin.Enabled())
	assert.Equal(t, "Admin", cfg.Admin.Name)

	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_PASSWORD", "rootpass")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Admin.Enabled())
	assert.Equal(t, "root@example.com", cfg.Admin.Email)
}

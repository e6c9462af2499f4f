// Package config loads the storefront configuration from built-in defaults,
// an optional YAML file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"storefront/pricing"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"

	PricingServer = "server"
	PricingClient = "client"
)

type Config struct {
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	GinMode        string        `yaml:"gin_mode"`

	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Pricing PricingConfig `yaml:"pricing"`
	Log     LogConfig     `yaml:"log"`
	Admin   AdminConfig   `yaml:"admin"`
}

type StoreConfig struct {
	Driver   string `yaml:"driver"`
	MongoURI string `yaml:"mongo_uri"`
	Database string `yaml:"database"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// RedisConfig enables the cart cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CartTTL  time.Duration `yaml:"cart_ttl"`
}

// KafkaConfig enables order events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type PricingConfig struct {
	Mode          string `yaml:"mode"`
	pricing.Rules `yaml:",inline"`
}

// AdminConfig seeds an admin account at startup when Email and Password
// are set.
type AdminConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Port:           "8080",
		RequestTimeout: 5 * time.Second,
		GinMode:        "release",
		Store: StoreConfig{
			Driver:   DriverMongo,
			Database: "storefront",
		},
		Auth:  AuthConfig{TokenTTL: 24 * time.Hour},
		Redis: RedisConfig{CartTTL: 15 * time.Minute},
		Kafka: KafkaConfig{
			Topic: "orders.events",
		},
		Pricing: PricingConfig{
			Mode:  PricingServer,
			Rules: pricing.DefaultRules(),
		},
		Log:   LogConfig{Level: "info", Format: "text"},
		Admin: AdminConfig{Name: "Admin"},
	}
}

// LoadEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// GetEnv returns the value of key, or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = GetEnv("PORT", c.Port)
	c.GinMode = GetEnv("GIN_MODE", c.GinMode)
	c.Store.Driver = GetEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.MongoURI = GetEnv("MONGO_URI", c.Store.MongoURI)
	c.Store.Database = GetEnv("DB_NAME", c.Store.Database)
	c.Auth.JWTSecret = GetEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Redis.Addr = GetEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = GetEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Kafka.Topic = GetEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Pricing.Mode = GetEnv("PRICING_MODE", c.Pricing.Mode)
	c.Log.Level = GetEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = GetEnv("LOG_FORMAT", c.Log.Format)
	c.Admin.Name = GetEnv("ADMIN_NAME", c.Admin.Name)
	c.Admin.Email = GetEnv("ADMIN_EMAIL", c.Admin.Email)
	c.Admin.Password = GetEnv("ADMIN_PASSWORD", c.Admin.Password)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}

	var err error
	if c.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.Auth.TokenTTL, err = envDuration("JWT_TTL", c.Auth.TokenTTL); err != nil {
		return err
	}
	if c.Redis.DB, err = envInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.Redis.CartTTL, err = envDuration("REDIS_CART_TTL", c.Redis.CartTTL); err != nil {
		return err
	}
	if c.Pricing.TaxRate, err = envFloat("TAX_RATE", c.Pricing.TaxRate); err != nil {
		return err
	}
	if c.Pricing.ShippingPrice, err = envFloat("SHIPPING_PRICE", c.Pricing.ShippingPrice); err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.Database == "" {
			return errors.New("mongo driver requires a URI and a database name")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Pricing.Mode {
	case PricingServer, PricingClient:
	default:
		return fmt.Errorf("unknown pricing mode %q", c.Pricing.Mode)
	}
	if c.Pricing.TaxRate < 0 || c.Pricing.ShippingPrice < 0 {
		return errors.New("tax rate and shipping price must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.Redis.CartTTL <= 0 {
		return errors.New("cart cache TTL must be positive")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"storefront/auth"
	"storefront/cache"
	"storefront/config"
	"storefront/controllers"
	"storefront/database"
	"storefront/events"
	"storefront/repository"
	"storefront/repository/memstore"
	"storefront/routes"
	"storefront/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "storefront:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		envFile    string
		port       string
	)
	pflag.StringVar(&configPath, "config", "", "path to a YAML config file (default $STOREFRONT_CONFIG)")
	pflag.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pflag.StringVar(&port, "port", "", "listen port (overrides PORT)")
	pflag.Parse()

	cfg, err := loadConfig(configPath, envFile)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Port = port
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("closing store", "error", err)
		}
	}()

	cartCache, closeCache, err := openCache(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher := openPublisher(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("closing event publisher", "error", err)
		}
	}()

	ctl := controllers.New(controllers.Deps{
		Store:     store,
		Cache:     cartCache,
		Publisher: publisher,
		Tokens:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, nil),
		Rules:     cfg.Pricing.Rules,
		Mode:      services.PricingMode(cfg.Pricing.Mode),
		Logger:    logger,
	})

	if cfg.Admin.Enabled() {
		admin, err := ctl.Auth.EnsureAdmin(ctx, services.RegisterInput{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
		logger.Info("admin account ready", "email", admin.Email)
	}

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(ctl, logger, cfg.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("storefront listening", "addr", srv.Addr, "store", cfg.Store.Driver, "pricing", cfg.Pricing.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("storefront stopped")
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*repository.Store, error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using the in-memory store; data is lost on exit")
		return memstore.New(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	db, err := database.ConnectMongo(connectCtx, cfg.MongoURI, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.InitCollections(db).CreateIndexes(connectCtx); err != nil {
		_ = db.Client().Disconnect(context.Background())
		return nil, err
	}
	logger.Info("connected to MongoDB", "database", cfg.Database)
	return repository.NewMongoStore(db), nil
}

// loadConfig reads the dotenv file first so it can also name the YAML file
// through STOREFRONT_CONFIG. An explicit path wins.
func loadConfig(path, envFile string) (config.Config, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return config.Config{}, err
	}
	if path == "" {
		path = config.GetEnv("STOREFRONT_CONFIG", "")
	}
	return config.Load(path)
}

func openCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (cache.CartCache, func(), error) {
	if cfg.Addr == "" {
		return cache.NopCache{}, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	logger.Info("cart cache enabled", "addr", cfg.Addr, "ttl", cfg.CartTTL)
	return cache.NewRedisCache(client, cfg.CartTTL), func() { _ = client.Close() }, nil
}

func openPublisher(cfg config.KafkaConfig, logger *slog.Logger) events.Publisher {
	if len(cfg.Brokers) == 0 {
		return events.NopPublisher{}
	}
	logger.Info("publishing order events", "topic", cfg.Topic, "brokers", cfg.Brokers)
	return events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Topic, cfg.Brokers...))
}

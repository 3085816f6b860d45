// Storefront - cart and checkout backend-for-frontend over the commerce
// GraphQL API. Serves REST and MCP to browser and agent clients.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/backend"
	"storefront/internal/config"
	"storefront/internal/graphql"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/negotiation"
	"storefront/internal/storage"
	"storefront/internal/storefront"
	"storefront/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := initLogger(cfg)
	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("backend_type", cfg.BackendType),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.Bool("chrome_tls", cfg.API.ChromeTLS),
	)

	b, err := createBackend(cfg)
	if err != nil {
		return fmt.Errorf("creating backend: %w", err)
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	gate, err := negotiation.NewGate(cfg.MinClientVersion)
	if err != nil {
		return fmt.Errorf("creating client gate: %w", err)
	}

	registry := storefront.NewRegistry(storefront.Deps{
		Backend:        b,
		Store:          store,
		Logger:         logger,
		ReturnURL:      cfg.ReturnURL,
		RecentLimit:    cfg.RecentlyViewedLimit,
		PaymentTimeout: cfg.PaymentTimeout(),
	}, storefront.RegistryOptions{
		MaxProfiles: cfg.MaxProfiles,
		IdleTimeout: cfg.ProfileIdle(),
	})

	h := handler.New(registry, gate, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → logging → negotiation → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		negotiation.Middleware(gate, logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// createBackend creates the commerce API client based on configuration.
func createBackend(cfg *config.Config) (backend.Backend, error) {
	switch cfg.BackendType {
	case config.BackendGraphQL:
		httpClient := transport.NewHTTPClient(transport.Options{
			Timeout:   cfg.API.Timeout(),
			ChromeTLS: cfg.API.ChromeTLS,
		})
		return graphql.NewClient(httpClient, cfg.API.Endpoint, cfg.API.Key), nil
	case config.BackendMemory:
		return backend.NewMemory([]byte(cfg.MemoryJWTSecret)), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.BackendType)
	}
}

// createStore opens the profile store based on configuration.
func createStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		return storage.OpenSQLite(cfg.Storage.DSN)
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return storage.NewRedis(client, cfg.Storage.TTL()), nil
	case config.StorageMemory:
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

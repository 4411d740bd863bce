// Package main implements the storefront service: product catalog, shopping
// cart and checkout behind a REST API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"golang.org/x/sync/errgroup"

	"github.com/sleepoutside/storefront/internal/app"
	"github.com/sleepoutside/storefront/internal/catalog"
	"github.com/sleepoutside/storefront/internal/config"
	"github.com/sleepoutside/storefront/internal/kvstore"
	"github.com/sleepoutside/storefront/internal/platform/bootstrap"
	"github.com/sleepoutside/storefront/internal/platform/configloader"
)

const serviceName = "storefront"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application and starts the HTTP and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	kv, cleanup, err := newKVStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up storage: %w", err)
	}
	defer cleanup()

	provider, err := newCatalogProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up catalog provider: %w", err)
	}

	deps := app.SetupDependencies(ctx, kv, provider, cfg, logger)
	httpServer := app.SetupHttpServer(deps, cfg)

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		pprofServer := &http.Server{Addr: cfg.PProf.Addr}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// newKVStore constructs the persistent key/value store for the configured
// driver, returning a cleanup func for drivers that hold connections.
func newKVStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (kvstore.Store, func(), error) {
	noop := func() {}
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return kvstore.NewMemoryStore(), noop, nil

	case config.DriverFile:
		kv, err := kvstore.NewFileStore(cfg.Storage.File.Path)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil

	case config.DriverPostgres:
		if err := kvstore.Migrate(cfg.Storage.Postgres.URL); err != nil {
			return nil, noop, err
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Storage.Postgres.URL, cfg.Storage.Postgres.Timeout)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Successfully connected to the database!")
		return kvstore.NewPgStore(dbPool), dbPool.Close, nil

	case config.DriverRedis:
		client, err := bootstrap.NewRedisClient(ctx, cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Successfully connected to redis!")
		return kvstore.NewRedisStore(client, cfg.Storage.Redis.Prefix), func() { _ = client.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}
}

// newCatalogProvider constructs the catalog provider for the configured source.
func newCatalogProvider(cfg *config.Config, logger *slog.Logger) (catalog.Provider, error) {
	switch cfg.Catalog.Source {
	case config.CatalogHTTP:
		return catalog.NewHTTPProvider(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, logger), nil
	case config.CatalogDir:
		if _, err := os.Stat(cfg.Catalog.Dir); err != nil {
			return nil, fmt.Errorf("catalog directory %s is not readable: %w", cfg.Catalog.Dir, err)
		}
		return catalog.NewDirProvider(os.DirFS(cfg.Catalog.Dir), logger), nil
	default:
		return nil, fmt.Errorf("unknown catalog source: %q", cfg.Catalog.Source)
	}
}

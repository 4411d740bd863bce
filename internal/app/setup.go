// Package app contains the application setup for the storefront service.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sleepoutside/storefront/internal/account"
	"github.com/sleepoutside/storefront/internal/cart"
	"github.com/sleepoutside/storefront/internal/catalog"
	"github.com/sleepoutside/storefront/internal/checkout"
	"github.com/sleepoutside/storefront/internal/config"
	"github.com/sleepoutside/storefront/internal/kvstore"
	"github.com/sleepoutside/storefront/internal/platform/server"
	"github.com/sleepoutside/storefront/internal/transport/rest"
)

type Dependencies struct {
	Cart     *cart.Store
	Checkout *checkout.Service
	Catalog  catalog.Provider
	Accounts *account.Service
	Logger   *slog.Logger
}

// SetupDependencies wires the core services over the given key/value store
// and catalog provider.
func SetupDependencies(ctx context.Context, kv kvstore.Store, provider catalog.Provider, cfg *config.Config, logger *slog.Logger) *Dependencies {
	cartStore := cart.NewStore(ctx, kv, cfg.Cart.StorageKey, logger)
	submitter := checkout.NewHTTPSubmitter(cfg.Order.EndpointURL, cfg.Order.Timeout, logger)

	return &Dependencies{
		Cart:     cartStore,
		Checkout: checkout.NewService(cartStore, submitter, cfg.Pricing, logger),
		Catalog:  provider,
		Accounts: account.NewService(kv, cfg.Accounts.StorageKey, logger),
		Logger:   logger,
	}
}

// SetupHttpHandler initializes the router and routes for the storefront.
// Used by handler tests to exercise the full HTTP surface.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewCartHandler(deps.Cart, deps.Catalog, deps.Logger).RegisterRoutes(mux)
	rest.NewCheckoutHandler(deps.Checkout, deps.Cart, deps.Logger).RegisterRoutes(mux)
	rest.NewCatalogHandler(deps.Catalog, deps.Logger).RegisterRoutes(mux)
	rest.NewAccountHandler(deps.Accounts, deps.Logger).RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the storefront application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

package rest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sleepoutside/storefront/internal/catalog"
	"github.com/sleepoutside/storefront/internal/platform/web"
)

// CatalogHandler exposes product listings and product detail lookups.
type CatalogHandler struct {
	catalog catalog.Provider
	logger  *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(provider catalog.Provider, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: provider,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog.
func (h *CatalogHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{category}/{id}", h.FindByID)
	})
}

// List returns the catalog for the requested category. A broken upstream
// feed yields an empty list, never an error.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	category := r.URL.Query().Get("category")
	if category == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, "category url parameter is required")
		return
	}
	products := h.catalog.FetchCatalog(r.Context(), category)
	mLogger.DebugContext(r.Context(), "Catalog fetched", "category", category, "count", len(products))
	web.RespondJSON(w, mLogger, http.StatusOK, products)
}

// FindByID returns a single product from a category.
func (h *CatalogHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	category := chi.URLParam(r, "category")
	id := chi.URLParam(r, "id")

	products := h.catalog.FetchCatalog(r.Context(), category)
	product := catalog.FindByID(products, id)
	if product == nil {
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product %s not found in category %s", id, category))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, product)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *CatalogHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}

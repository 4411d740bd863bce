package rest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/sleepoutside/storefront/internal/cart"
	"github.com/sleepoutside/storefront/internal/catalog"
	"github.com/sleepoutside/storefront/internal/platform/web"
)

// CartHandler exposes the cart store over HTTP. Products are resolved
// through the catalog provider at add time; the cart itself never talks to
// the catalog again.
type CartHandler struct {
	cart     *cart.Store
	catalog  catalog.Provider
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartStore *cart.Store, provider catalog.Provider, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		cart:     cartStore,
		catalog:  provider,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// addItemDto represents the request body for adding a product to the cart.
type addItemDto struct {
	Category  string `json:"category"   validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"omitempty,min=1"`
}

// setQuantityDto represents the request body for replacing a line quantity.
type setQuantityDto struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// RegisterRoutes registers the HTTP routes for the cart.
func (h *CartHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)

		r.Route("/items/{id}", func(r chi.Router) {
			r.Put("/", h.SetQuantity)
			r.Delete("/", h.RemoveItem)
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// GetCart returns the current cart snapshot.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.cart.Snapshot())
}

// AddItem resolves a product from the catalog and adds it to the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	var dto addItemDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateStruct(w, mLogger, h.validate, dto) {
		return
	}
	if dto.Quantity == 0 {
		dto.Quantity = 1
	}

	products := h.catalog.FetchCatalog(r.Context(), dto.Category)
	product := catalog.FindByID(products, dto.ProductID)
	if product == nil {
		mLogger.WarnContext(r.Context(), "Product not found in catalog", "category", dto.Category, "product_id", dto.ProductID)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product %s not found in category %s", dto.ProductID, dto.Category))
		return
	}

	if !h.cart.AddItem(r.Context(), *product, dto.Quantity) {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Product cannot be added to the cart")
		return
	}
	mLogger.InfoContext(r.Context(), "Item added to cart", "product_id", dto.ProductID, "quantity", dto.Quantity)
	web.RespondJSON(w, mLogger, http.StatusCreated, h.cart.Snapshot())
}

// SetQuantity replaces the quantity of a line item.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID := chi.URLParam(r, "id")

	var dto setQuantityDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateStruct(w, mLogger, h.validate, dto) {
		return
	}

	if !h.cart.SetQuantity(r.Context(), productID, dto.Quantity) {
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("No cart item for product %s", productID))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.cart.Snapshot())
}

// RemoveItem removes one unit of a line item, or the whole row with ?all=true.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID := chi.URLParam(r, "id")
	removeAll := r.URL.Query().Get("all") == "true"

	if !h.cart.RemoveOneOrAll(r.Context(), productID, removeAll) {
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("No cart item for product %s", productID))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.cart.Snapshot())
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	h.cart.Clear(r.Context())
	web.RespondJSON(w, mLogger, http.StatusOK, h.cart.Snapshot())
}

// HealthCheck is a simple health check endpoint.
func (h *CartHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *CartHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}

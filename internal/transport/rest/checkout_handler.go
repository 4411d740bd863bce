package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/sleepoutside/storefront/internal/cart"
	"github.com/sleepoutside/storefront/internal/checkout"
	"github.com/sleepoutside/storefront/internal/platform/web"
)

// CheckoutHandler drives the checkout flow over HTTP. On a confirmed
// submission success it clears the cart; on any failure the cart is left
// untouched so the user can retry.
type CheckoutHandler struct {
	checkout *checkout.Service
	cart     *cart.Store
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutSvc *checkout.Service, cartStore *cart.Store, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkoutSvc,
		cart:     cartStore,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// summaryDto is the response shape for the order summary, including the
// active pricing configuration so the UI can explain the numbers.
type summaryDto struct {
	Totals         checkout.Totals         `json:"totals"`
	TaxRate        float64                 `json:"taxRate"`
	ShippingPolicy checkout.ShippingPolicy `json:"shippingPolicy"`
}

// receiptDto is the response shape for a successful checkout.
type receiptDto struct {
	OrderID int64           `json:"orderId,omitempty"`
	Message string          `json:"message,omitempty"`
	Totals  checkout.Totals `json:"totals"`
}

// RegisterRoutes registers the HTTP routes for checkout.
func (h *CheckoutHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Get("/summary", h.Summary)
		r.Post("/", h.Submit)
	})
}

// Summary returns the derived order totals for the current cart.
func (h *CheckoutHandler) Summary(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	pricing := h.checkout.Pricing()
	web.RespondJSON(w, mLogger, http.StatusOK, summaryDto{
		Totals:         h.checkout.Totals(),
		TaxRate:        pricing.TaxRate,
		ShippingPolicy: pricing.Shipping.Policy,
	})
}

// Submit runs a checkout attempt with the posted customer form.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	var customer checkout.CustomerInfo
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validateStruct(w, mLogger, h.validate, customer) {
		return
	}

	// Capture totals before submission; a success clears the cart below.
	totals := h.checkout.Totals()

	resp, err := h.checkout.Submit(r.Context(), customer)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			mLogger.WarnContext(r.Context(), "Checkout attempted with empty cart")
			web.RespondError(w, mLogger, http.StatusBadRequest, "Your cart is empty")
		case errors.Is(err, checkout.ErrSubmissionInFlight):
			mLogger.WarnContext(r.Context(), "Checkout attempted while another is in flight")
			web.RespondError(w, mLogger, http.StatusConflict, "An order submission is already in progress")
		case errors.Is(err, checkout.ErrSubmissionRejected):
			web.RespondError(w, mLogger, http.StatusBadGateway, err.Error())
		default:
			mLogger.ErrorContext(r.Context(), "Checkout failed", "error", err)
			web.RespondError(w, mLogger, http.StatusBadGateway, "Order could not be submitted, please try again")
		}
		return
	}

	// Success: the checkout flow owns clearing the cart, not the calculator.
	h.cart.Clear(r.Context())

	mLogger.InfoContext(r.Context(), "Order placed", "order_id", resp.OrderID)
	web.RespondJSON(w, mLogger, http.StatusCreated, receiptDto{
		OrderID: resp.OrderID,
		Message: resp.Message,
		Totals:  totals,
	})
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *CheckoutHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}

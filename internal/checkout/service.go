package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sleepoutside/storefront/internal/cart"
)

// Service drives a checkout attempt: it derives order totals from the
// current cart, packages the line items and submits them to the order
// endpoint. At most one submission is in flight at a time; a second attempt
// while one is running is rejected with ErrSubmissionInFlight rather than
// double-posted. The service never clears the cart itself; the caller does
// that after a confirmed success.
type Service struct {
	cart      *cart.Store
	submitter Submitter
	pricing   PricingConfig
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	submitting bool
}

// NewService creates a checkout Service over the given cart store.
func NewService(cartStore *cart.Store, submitter Submitter, pricing PricingConfig, logger *slog.Logger) *Service {
	return &Service{
		cart:      cartStore,
		submitter: submitter,
		pricing:   pricing,
		logger:    logger.With("component", "checkout"),
		now:       time.Now,
	}
}

// Pricing returns the active pricing configuration.
func (s *Service) Pricing() PricingConfig {
	return s.pricing
}

// Totals derives the current order summary from the cart contents.
func (s *Service) Totals() Totals {
	return Compute(s.cart.Items(), s.pricing)
}

// Submit runs one checkout attempt. An empty cart is a validation failure
// reported without any network call. On rejection or network failure the
// cart is left untouched so the user can retry; on context cancellation the
// attempt ends with ctx's error and no success or failure is recorded.
func (s *Service) Submit(ctx context.Context, customer CustomerInfo) (*SubmitResponse, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	s.submitting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	items := s.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	totals := Compute(items, s.pricing)
	payload := OrderPayload{
		OrderDate:    s.now().UTC().Format(time.RFC3339),
		OrderTotal:   totals.OrderTotal,
		Tax:          totals.Tax,
		Shipping:     totals.Shipping,
		Items:        PackageItems(items),
		CustomerInfo: customer,
	}

	s.logger.Info("Submitting order",
		"items", totals.ItemCount,
		"order_total", totals.OrderTotal,
	)
	resp, err := s.submitter.Submit(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error("Order submission failed", "error", err)
		return nil, err
	}

	s.logger.Info("Order submitted", "order_id", resp.OrderID)
	return resp, nil
}

// Package checkout derives order totals from cart contents and drives order
// submission to the external order endpoint.
package checkout

import (
	"fmt"
	"math"

	"github.com/sleepoutside/storefront/internal/cart"
)

// ShippingPolicy selects how shipping cost is derived.
type ShippingPolicy string

const (
	// ShippingTiered charges a base fee plus a step per additional line item.
	ShippingTiered ShippingPolicy = "tiered"
	// ShippingThreshold charges a flat fee, waived above a subtotal threshold.
	ShippingThreshold ShippingPolicy = "threshold"
)

// ShippingConfig carries the active policy and its amounts. Storefront
// revisions have disagreed on both, so none of them are constants here.
type ShippingConfig struct {
	Policy        ShippingPolicy `koanf:"policy"`
	Base          float64        `koanf:"base"`
	Step          float64        `koanf:"step"`
	FlatFee       float64        `koanf:"flatFee"`
	FreeThreshold float64        `koanf:"freeThreshold"`
}

func (c *ShippingConfig) Validate() error {
	switch c.Policy {
	case ShippingTiered, ShippingThreshold:
	default:
		return fmt.Errorf("unknown shipping policy: %q", c.Policy)
	}
	if c.Base < 0 || c.Step < 0 || c.FlatFee < 0 || c.FreeThreshold < 0 {
		return fmt.Errorf("shipping amounts must not be negative")
	}
	return nil
}

// PricingConfig carries the tax rate and shipping policy used for totals.
type PricingConfig struct {
	TaxRate  float64        `koanf:"taxRate"`
	Shipping ShippingConfig `koanf:"shipping"`
}

func (c *PricingConfig) Validate() error {
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("tax rate must be a fraction in [0, 1): %v", c.TaxRate)
	}
	return c.Shipping.Validate()
}

// Totals is the derived order summary. All fields are recomputed together;
// OrderTotal always equals Subtotal + Tax + Shipping.
type Totals struct {
	ItemCount  int     `json:"itemCount"`
	Subtotal   float64 `json:"subtotal"`
	Tax        float64 `json:"tax"`
	Shipping   float64 `json:"shipping"`
	OrderTotal float64 `json:"orderTotal"`
}

// Subtotal sums unit price times quantity over items. A missing or invalid
// unit price counts as zero rather than failing the computation.
func Subtotal(items []cart.LineItem) float64 {
	var sum float64
	for _, item := range items {
		price := item.UnitPrice
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			price = 0
		}
		sum += price * float64(item.Quantity)
	}
	return sum
}

// Tax applies a flat percentage rate to the subtotal.
func Tax(subtotal, rate float64) float64 {
	return subtotal * rate
}

// Shipping derives the shipping cost for the given number of distinct line
// items and subtotal. Shipping scales with line rows, not unit quantities.
func Shipping(cfg ShippingConfig, lineCount int, subtotal float64) float64 {
	if lineCount == 0 {
		return 0
	}
	switch cfg.Policy {
	case ShippingThreshold:
		if subtotal > cfg.FreeThreshold {
			return 0
		}
		return cfg.FlatFee
	default:
		return cfg.Base + cfg.Step*float64(lineCount-1)
	}
}

// Compute derives the full order summary from the given item sequence.
func Compute(items []cart.LineItem, pricing PricingConfig) Totals {
	subtotal := round2(Subtotal(items))
	tax := round2(Tax(subtotal, pricing.TaxRate))
	shipping := round2(Shipping(pricing.Shipping, len(items), subtotal))
	return Totals{
		ItemCount:  len(items),
		Subtotal:   subtotal,
		Tax:        tax,
		Shipping:   shipping,
		OrderTotal: round2(subtotal + tax + shipping),
	}
}

// SubmittedItem is the minimal line-item shape sent to the order endpoint.
// Internal-only fields such as timestamps do not cross the wire.
type SubmittedItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// PackageItems converts cart line items into the submission shape,
// preserving order.
func PackageItems(items []cart.LineItem) []SubmittedItem {
	packaged := make([]SubmittedItem, len(items))
	for i, item := range items {
		packaged[i] = SubmittedItem{
			ID:        item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}
	return packaged
}

// round2 rounds to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package checkout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleepoutside/storefront/internal/cart"
)

func tieredPricing() PricingConfig {
	return PricingConfig{
		TaxRate: 0.06,
		Shipping: ShippingConfig{
			Policy: ShippingTiered,
			Base:   10,
			Step:   2,
		},
	}
}

func line(id string, price float64, qty int) cart.LineItem {
	return cart.LineItem{ProductID: id, Name: "Item " + id, UnitPrice: price, Quantity: qty}
}

func Test_Compute_EmptyCart(t *testing.T) {
	// when
	totals := Compute(nil, tieredPricing())

	// then
	assert.Equal(t, Totals{}, totals, "an empty cart incurs no tax or shipping")
}

func Test_Compute_TotalIdentity(t *testing.T) {
	testCases := []struct {
		name  string
		items []cart.LineItem
	}{
		{
			name:  "single line",
			items: []cart.LineItem{line("A", 199.99, 1)},
		},
		{
			name:  "multiple lines and quantities",
			items: []cart.LineItem{line("A", 100, 2), line("B", 80, 2), line("C", 33.33, 3)},
		},
		{
			name:  "fractional prices",
			items: []cart.LineItem{line("A", 0.10, 3), line("B", 0.01, 7)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			totals := Compute(tc.items, tieredPricing())

			// then
			assert.InDelta(t, totals.Subtotal+totals.Tax+totals.Shipping, totals.OrderTotal, 0.001,
				"order total must equal subtotal plus tax plus shipping")
			assert.Equal(t, len(tc.items), totals.ItemCount)
		})
	}
}

func Test_Compute_TieredShippingScalesWithLines(t *testing.T) {
	// given two line rows, quantities deliberately unequal
	items := []cart.LineItem{line("A", 100, 5), line("B", 80, 1)}

	// when
	totals := Compute(items, tieredPricing())

	// then shipping is 10 + 2 per additional row, quantities do not matter
	assert.Equal(t, 12.0, totals.Shipping)

	// and a single row pays only the base
	one := Compute(items[:1], tieredPricing())
	assert.Equal(t, 10.0, one.Shipping)
}

func Test_Compute_KnownScenario(t *testing.T) {
	// given 2x$100 + 2x$80 at 6% tax with tiered shipping
	items := []cart.LineItem{line("A", 100, 2), line("B", 80, 2)}

	// when
	totals := Compute(items, tieredPricing())

	// then
	assert.Equal(t, 360.0, totals.Subtotal)
	assert.Equal(t, 21.6, totals.Tax)
	assert.Equal(t, 12.0, totals.Shipping)
	assert.Equal(t, 393.6, totals.OrderTotal)
}

func Test_Shipping_ThresholdPolicy(t *testing.T) {
	cfg := ShippingConfig{
		Policy:        ShippingThreshold,
		FlatFee:       5.99,
		FreeThreshold: 50,
	}

	testCases := []struct {
		name      string
		lineCount int
		subtotal  float64
		expected  float64
	}{
		{name: "empty cart ships free", lineCount: 0, subtotal: 0, expected: 0},
		{name: "below threshold pays flat fee", lineCount: 2, subtotal: 49.99, expected: 5.99},
		{name: "exactly at threshold pays flat fee", lineCount: 1, subtotal: 50, expected: 5.99},
		{name: "above threshold ships free", lineCount: 3, subtotal: 50.01, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Shipping(cfg, tc.lineCount, tc.subtotal))
		})
	}
}

func Test_Subtotal_IgnoresInvalidPrices(t *testing.T) {
	// given lines with NaN, infinite and negative prices mixed in
	items := []cart.LineItem{
		line("A", 10, 2),
		line("B", math.NaN(), 1),
		line("C", math.Inf(1), 1),
		line("D", -5, 3),
	}

	// when / then
	assert.Equal(t, 20.0, Subtotal(items), "unusable prices count as zero")
}

func Test_Compute_RoundsToCents(t *testing.T) {
	// given a subtotal whose tax has more than two decimal places
	items := []cart.LineItem{line("A", 33.33, 1)}

	// when
	totals := Compute(items, tieredPricing())

	// then 33.33 * 0.06 = 1.9998 rounds to 2.00
	assert.Equal(t, 2.0, totals.Tax)
	assert.Equal(t, 45.33, totals.OrderTotal)
}

func Test_PackageItems(t *testing.T) {
	// given
	items := []cart.LineItem{
		{ProductID: "880RR", Name: "Ajax Tent - 3-Person", UnitPrice: 199.99, Quantity: 2, Brand: "Marmot", Image: "/img/880RR.jpg"},
		{ProductID: "985RF", Name: "Talus Tent - 4-Person", UnitPrice: 199.99, Quantity: 1},
	}

	// when
	packaged := PackageItems(items)

	// then order is preserved and only the submission fields survive
	require.Len(t, packaged, 2)
	assert.Equal(t, SubmittedItem{ID: "880RR", Name: "Ajax Tent - 3-Person", UnitPrice: 199.99, Quantity: 2}, packaged[0])
	assert.Equal(t, SubmittedItem{ID: "985RF", Name: "Talus Tent - 4-Person", UnitPrice: 199.99, Quantity: 1}, packaged[1])
}

func Test_PricingConfig_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       PricingConfig
		expectErr bool
	}{
		{
			name: "valid tiered",
			cfg:  tieredPricing(),
		},
		{
			name: "valid threshold",
			cfg: PricingConfig{
				TaxRate:  0.08,
				Shipping: ShippingConfig{Policy: ShippingThreshold, FlatFee: 5.99, FreeThreshold: 50},
			},
		},
		{
			name:      "negative tax rate",
			cfg:       PricingConfig{TaxRate: -0.01, Shipping: ShippingConfig{Policy: ShippingTiered}},
			expectErr: true,
		},
		{
			name:      "tax rate at one",
			cfg:       PricingConfig{TaxRate: 1, Shipping: ShippingConfig{Policy: ShippingTiered}},
			expectErr: true,
		},
		{
			name:      "unknown shipping policy",
			cfg:       PricingConfig{TaxRate: 0.06, Shipping: ShippingConfig{Policy: "carrier-pigeon"}},
			expectErr: true,
		},
		{
			name:      "negative shipping amount",
			cfg:       PricingConfig{TaxRate: 0.06, Shipping: ShippingConfig{Policy: ShippingTiered, Base: -1}},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

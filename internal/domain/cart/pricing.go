// internal/domain/cart/pricing.go
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/ves-sport/commerce-backend/internal/config"
)

// Pricing holds the rules used to compute cart totals
type Pricing struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingCost          decimal.Decimal
}

// DefaultPricing is 21% IVA with free shipping from 50.00 and 5.99 otherwise
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.RequireFromString("0.21"),
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingCost:          decimal.RequireFromString("5.99"),
	}
}

// PricingFromConfig builds pricing rules from configuration
func PricingFromConfig(cfg config.PricingConfig) Pricing {
	return Pricing{
		TaxRate:               cfg.TaxRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingCost:          cfg.ShippingCost,
	}
}

// Calculate computes the totals for lines. Every figure comes from the unrounded
// intermediate sums and is rounded once, half away from zero.
func (p Pricing) Calculate(lines []CartLine) CartTotals {
	subtotal := decimal.Zero
	designFees := decimal.Zero
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		subtotal = subtotal.Add(line.Price.Mul(qty))
		designFees = designFees.Add(line.DesignFee.Mul(qty))
	}

	shipping := p.ShippingCost
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	taxable := subtotal.Add(designFees).Add(shipping)
	tax := taxable.Mul(p.TaxRate)
	total := taxable.Add(tax)

	return CartTotals{
		Subtotal:   subtotal.Round(2),
		DesignFees: designFees.Round(2),
		Shipping:   shipping.Round(2),
		Tax:        tax.Round(2),
		Total:      total.Round(2),
	}
}

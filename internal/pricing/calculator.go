// Package pricing computes the payable amount for a set of cart lines.
package pricing

import (
	"caffinity/internal/model"
	"caffinity/internal/promotion"

	"github.com/shopspring/decimal"
)

// Fees holds the fee constants applied on top of the subtotal.
type Fees struct {
	// TaxRate is the tax percentage applied to the subtotal.
	TaxRate     decimal.Decimal
	DeliveryFee decimal.Decimal
	PlatformFee decimal.Decimal
}

// CheckoutFees returns the fees charged when an order is placed.
func CheckoutFees() Fees {
	return Fees{
		TaxRate:     decimal.NewFromInt(11),
		DeliveryFee: decimal.NewFromInt(10000),
		PlatformFee: decimal.NewFromInt(3000),
	}
}

// SummaryFees returns the fees shown on the cart summary, which carries no platform fee.
func SummaryFees() Fees {
	f := CheckoutFees()
	f.PlatformFee = decimal.Zero
	return f
}

// Calculator is a pure pricing function over a fixed set of fees.
type Calculator struct {
	fees Fees
}

// NewCalculator creates a calculator for fees.
func NewCalculator(fees Fees) *Calculator {
	return &Calculator{fees: fees}
}

// Fees returns the calculator's fee constants.
func (c *Calculator) Fees() Fees {
	return c.fees
}

// Compute returns the breakdown for lines with an optional promotion and tip.
// Each component is rounded to whole units when produced and the total is
// their plain sum, so it is never re-rounded. The total is not clamped at zero.
func (c *Calculator) Compute(lines []model.CartLine, promo *promotion.Descriptor, tip decimal.Decimal) model.PricingBreakdown {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	subtotal = subtotal.Round(0)

	tax := subtotal.Mul(c.fees.TaxRate).Div(decimal.NewFromInt(100)).Round(0)
	delivery := c.fees.DeliveryFee.Round(0)
	platform := c.fees.PlatformFee.Round(0)

	discount := decimal.Zero
	if promo != nil {
		discount = promo.Discount(subtotal)
	}

	tip = tip.Round(0)

	total := subtotal.
		Add(tax).
		Add(delivery).
		Add(platform).
		Add(tip).
		Sub(discount)

	return model.PricingBreakdown{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: delivery,
		PlatformFee: platform,
		Discount:    discount,
		Tip:         tip,
		Total:       total,
	}
}

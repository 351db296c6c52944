package cart

import "github.com/shopspring/decimal"

// Pricing holds the tax and shipping rules applied to every cart.
type Pricing struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// DefaultPricing is 10% tax, free shipping from 50.00, otherwise a flat 10.00.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.NewFromFloat(0.10),
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFee:           decimal.NewFromInt(10),
	}
}

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Compute is a pure function of the lines and the discount. An empty cart has
// all-zero totals.
func (p Pricing) Compute(items []Item, discount decimal.Decimal) Totals {
	t := Totals{Discount: discount}
	if len(items) == 0 {
		return t
	}

	for _, item := range items {
		t.Subtotal = t.Subtotal.Add(item.LineTotal())
	}
	t.Subtotal = t.Subtotal.Round(2)
	t.Tax = t.Subtotal.Mul(p.TaxRate).Round(2)
	if t.Subtotal.LessThan(p.FreeShippingThreshold) {
		t.Shipping = p.ShippingFee
	}

	t.Total = t.Subtotal.Add(t.Tax).Add(t.Shipping).Sub(discount)
	if t.Total.IsNegative() {
		t.Total = decimal.Zero
	}
	t.Total = t.Total.Round(2)
	return t
}

package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceTolerance is the absolute tolerance used when comparing a supplied
// pricing breakdown against an independent recomputation.
var PriceTolerance = decimal.New(1, -2) // 0.01

// Pricing is the breakdown of an order total. The invariant
// Total = Subtotal - Discount + ShippingFee + Tax holds within PriceTolerance.
type Pricing struct {
	Subtotal    Money
	Discount    Money
	ShippingFee Money
	Tax         Money
	Total       Money
}

func (p Pricing) Validate() error {
	for _, part := range []struct {
		name  string
		money Money
	}{
		{"subtotal", p.Subtotal},
		{"discount", p.Discount},
		{"shipping fee", p.ShippingFee},
		{"tax", p.Tax},
		{"total", p.Total},
	} {
		if err := part.money.Validate(); err != nil {
			return fmt.Errorf("%s: %w", part.name, err)
		}

		if part.money.Currency.String() != p.Subtotal.Currency.String() {
			return fmt.Errorf("%s: %w: %s vs %s", part.name, ErrCurrencyMismatch, part.money.Currency, p.Subtotal.Currency)
		}
	}

	if p.Discount.Amount.GreaterThan(p.Subtotal.Amount) {
		return fmt.Errorf("discount[%s] exceeds subtotal[%s]", p.Discount.Amount, p.Subtotal.Amount)
	}

	expected := p.Subtotal.Amount.
		Sub(p.Discount.Amount).
		Add(p.ShippingFee.Amount).
		Add(p.Tax.Amount)

	if p.Total.Amount.Sub(expected).Abs().GreaterThan(PriceTolerance) {
		return fmt.Errorf("total[%s] does not match subtotal - discount + shipping + tax[%s]", p.Total.Amount, expected)
	}

	return nil
}

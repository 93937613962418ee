package pricing

import (
	"fmt"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Engine computes order pricing breakdowns. It is a pure function of the
// items, the shipping address and an optional coupon code; the only state
// it reads is the injected rule source.
type Engine struct {
	rules RuleSource
}

func NewEngine(rules RuleSource) (*Engine, error) {
	if rules == nil {
		return nil, fmt.Errorf("rules is nil")
	}

	return &Engine{rules: rules}, nil
}

// CalculateOrderPricing resolves the breakdown:
//
//	subtotal    = sum of item totals
//	discount    = coupon rule applied to subtotal, clamped to subtotal
//	shippingFee = region base + weight rate * quantity, waived above threshold
//	tax         = region rate * (subtotal - discount)
//	total       = subtotal - discount + shippingFee + tax
func (e *Engine) CalculateOrderPricing(items []domain.OrderItem, address domain.Address, couponCode string) (domain.Pricing, error) {
	var p domain.Pricing

	unit, err := itemsCurrency(items)
	if err != nil {
		return p, err
	}

	subtotal := decimal.Zero
	totalQuantity := int64(0)
	for _, item := range items {
		subtotal = subtotal.Add(item.Total().Amount)
		totalQuantity += int64(item.Quantity)
	}

	discount, freeShipping, err := e.resolveDiscount(subtotal, couponCode)
	if err != nil {
		return p, err
	}

	discounted := subtotal.Sub(discount)

	shippingFee := decimal.Zero
	if !freeShipping {
		shippingFee = e.resolveShippingFee(address, discounted, totalQuantity)
	}

	tax := e.resolveTax(address, discounted)

	total := discounted.Add(shippingFee).Add(tax)

	return domain.Pricing{
		Subtotal:    domain.Money{Amount: subtotal, Currency: unit},
		Discount:    domain.Money{Amount: discount, Currency: unit},
		ShippingFee: domain.Money{Amount: shippingFee, Currency: unit},
		Tax:         domain.Money{Amount: tax, Currency: unit},
		Total:       domain.Money{Amount: total, Currency: unit},
	}, nil
}

// ValidateOrderPricing recomputes subtotal and total independently and
// compares against the supplied breakdown within domain.PriceTolerance.
// It reports a validity flag plus human-readable discrepancy messages.
func (e *Engine) ValidateOrderPricing(items []domain.OrderItem, pricing domain.Pricing) (bool, []string) {
	var problems []string

	for _, part := range []struct {
		name  string
		money domain.Money
	}{
		{"subtotal", pricing.Subtotal},
		{"discount", pricing.Discount},
		{"shipping fee", pricing.ShippingFee},
		{"tax", pricing.Tax},
		{"total", pricing.Total},
	} {
		if part.money.Amount.IsNegative() {
			problems = append(problems, fmt.Sprintf("%s[%s] is negative", part.name, part.money.Amount))
		}
	}

	if pricing.Discount.Amount.GreaterThan(pricing.Subtotal.Amount) {
		problems = append(problems, fmt.Sprintf("discount[%s] exceeds subtotal[%s]", pricing.Discount.Amount, pricing.Subtotal.Amount))
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total().Amount)
	}

	if subtotal.Sub(pricing.Subtotal.Amount).Abs().GreaterThan(domain.PriceTolerance) {
		problems = append(problems, fmt.Sprintf("subtotal[%s] does not match sum of item totals[%s]", pricing.Subtotal.Amount, subtotal))
	}

	expectedTotal := pricing.Subtotal.Amount.
		Sub(pricing.Discount.Amount).
		Add(pricing.ShippingFee.Amount).
		Add(pricing.Tax.Amount)

	if expectedTotal.Sub(pricing.Total.Amount).Abs().GreaterThan(domain.PriceTolerance) {
		problems = append(problems, fmt.Sprintf("total[%s] does not match subtotal - discount + shipping + tax[%s]", pricing.Total.Amount, expectedTotal))
	}

	return len(problems) == 0, problems
}

type OptimalPricing struct {
	// CouponCode is empty when no candidate beats the no-coupon pricing.
	CouponCode string
	Pricing    domain.Pricing
	Savings    domain.Money
}

// CalculateOptimalPricing evaluates every candidate coupon and keeps the one
// minimizing the total. Candidates which do not apply (unknown rule outcome,
// below minimum order amount) are skipped.
func (e *Engine) CalculateOptimalPricing(items []domain.OrderItem, address domain.Address, couponCodes []string) (OptimalPricing, error) {
	baseline, err := e.CalculateOrderPricing(items, address, "")
	if err != nil {
		return OptimalPricing{}, fmt.Errorf("baseline: %w", err)
	}

	best := OptimalPricing{
		Pricing: baseline,
		Savings: domain.ZeroMoney(baseline.Total.Currency),
	}

	for _, code := range couponCodes {
		candidate, err := e.CalculateOrderPricing(items, address, code)
		if err != nil {
			continue
		}

		if candidate.Total.Amount.LessThan(best.Pricing.Total.Amount) {
			best.CouponCode = code
			best.Pricing = candidate
		}
	}

	savings := baseline.Total.Amount.Sub(best.Pricing.Total.Amount)
	best.Savings = domain.Money{Amount: savings, Currency: baseline.Total.Currency}

	return best, nil
}

func (e *Engine) resolveDiscount(subtotal decimal.Decimal, couponCode string) (discount decimal.Decimal, freeShipping bool, _ error) {
	discount = decimal.Zero

	if couponCode == "" {
		return discount, false, nil
	}

	rule, ok := e.rules.Coupon(couponCode)
	if !ok {
		// an unknown code contributes no discount
		return discount, false, nil
	}

	if subtotal.LessThan(rule.MinOrderAmount) {
		return discount, false, domain.BusinessError{
			Message: fmt.Sprintf("优惠券%s未满足最低消费金额%s", rule.Code, rule.MinOrderAmount),
		}
	}

	switch rule.Type {
	case CouponTypePercentage:
		discount = subtotal.Mul(rule.Rate).Round(2)
		if rule.MaxDiscount.IsPositive() && discount.GreaterThan(rule.MaxDiscount) {
			discount = rule.MaxDiscount
		}
	case CouponTypeFixedAmount:
		discount = rule.Amount
	case CouponTypeFreeShipping:
		freeShipping = true
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	return discount, freeShipping, nil
}

func (e *Engine) resolveShippingFee(address domain.Address, discounted decimal.Decimal, totalQuantity int64) decimal.Decimal {
	region := e.rules.Region(address)

	rule, ok := e.rules.Shipping(region)
	if !ok {
		return decimal.Zero
	}

	if rule.FreeThreshold.IsPositive() && discounted.GreaterThanOrEqual(rule.FreeThreshold) {
		return decimal.Zero
	}

	// weight approximated as one unit per item quantity
	return rule.BaseFee.Add(rule.WeightRate.Mul(decimal.NewFromInt(totalQuantity)))
}

func (e *Engine) resolveTax(address domain.Address, discounted decimal.Decimal) decimal.Decimal {
	region := e.rules.Region(address)

	rule, ok := e.rules.Tax(region)
	if !ok {
		return decimal.Zero
	}

	return rule.Rate.Mul(discounted).Round(2)
}

func itemsCurrency(items []domain.OrderItem) (currency.Unit, error) {
	if len(items) == 0 {
		return currency.Unit{}, domain.ValidationError{Field: "items", Message: "are empty"}
	}

	unit := items[0].UnitPrice.Currency
	for i, item := range items {
		if item.UnitPrice.Currency.String() != unit.String() {
			return currency.Unit{}, fmt.Errorf("items[%d]: %w: %s vs %s", i, domain.ErrCurrencyMismatch, item.UnitPrice.Currency, unit)
		}
	}

	return unit, nil
}

package pricing_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func cny(amount float64) domain.Money {
	return domain.Money{Amount: decimal.NewFromFloat(amount), Currency: currency.CNY}
}

func item(quantity int, unitPrice float64) domain.OrderItem {
	return domain.OrderItem{
		ProductID:   uuid.New(),
		ProductName: "商品",
		Quantity:    quantity,
		UnitPrice:   cny(unitPrice),
		Discount:    cny(0),
	}
}

func addressIn(city string) domain.Address {
	return domain.Address{
		Province:     "某省",
		City:         city,
		District:     "某区",
		Street:       "某街道1号",
		ContactName:  "张三",
		ContactPhone: "13800138000",
	}
}

// the standard cart of the pricing scenarios: 2x 50 + 1x 100 = 200, quantity 3
func standardItems() []domain.OrderItem {
	return []domain.OrderItem{item(2, 50), item(1, 100)}
}

func newEngine(t *testing.T) *pricing.Engine {
	t.Helper()

	engine, err := pricing.NewEngine(pricing.NewStaticRules())
	require.NoError(t, err)

	return engine
}

func TestCalculateOrderPricing(t *testing.T) {
	tests := []struct {
		name       string
		items      []domain.OrderItem
		city       string
		couponCode string

		wantSubtotal float64
		wantDiscount float64
		wantShipping float64
		wantTax      float64
		wantTotal    float64
		wantError    string
	}{
		{
			name:       "tier-1 city with SAVE10",
			items:      standardItems(),
			city:       "北京",
			couponCode: "SAVE10",
			// 180 after discount is below the 199 free-shipping threshold
			wantSubtotal: 200, wantDiscount: 20, wantShipping: 8, wantTax: 0, wantTotal: 188,
		},
		{
			name:       "remote region charges per unit of weight",
			items:      standardItems(),
			city:       "拉萨",
			couponCode: "SAVE10",
			// base 12 + 2 per unit x 3 units
			wantSubtotal: 200, wantDiscount: 20, wantShipping: 18, wantTax: 0, wantTotal: 198,
		},
		{
			name:  "tier-1 city above free-shipping threshold",
			items: []domain.OrderItem{item(2, 100)},
			city:  "上海",
			// no coupon, 200 >= 199
			wantSubtotal: 200, wantDiscount: 0, wantShipping: 0, wantTax: 0, wantTotal: 200,
		},
		{
			name:       "tier-2 city",
			items:      standardItems(),
			city:       "杭州",
			couponCode: "SAVE10",
			// base 10 + 1 per unit x 3 units
			wantSubtotal: 200, wantDiscount: 20, wantShipping: 13, wantTax: 0, wantTotal: 193,
		},
		{
			name:       "city suffix is tolerated",
			items:      standardItems(),
			city:       "北京市",
			couponCode: "SAVE10",
			wantSubtotal: 200, wantDiscount: 20, wantShipping: 8, wantTax: 0, wantTotal: 188,
		},
		{
			name:       "percentage discount capped by max",
			items:      []domain.OrderItem{item(10, 100)},
			city:       "北京",
			couponCode: "SAVE10",
			// 10% of 1000 is 100, capped at 50; 950 >= 199 so shipping is free
			wantSubtotal: 1000, wantDiscount: 50, wantShipping: 0, wantTax: 0, wantTotal: 950,
		},
		{
			name:       "fixed amount coupon",
			items:      standardItems(),
			city:       "北京",
			couponCode: "MINUS20",
			wantSubtotal: 200, wantDiscount: 20, wantShipping: 8, wantTax: 0, wantTotal: 188,
		},
		{
			name:       "free shipping coupon waives the fee, no discount",
			items:      standardItems(),
			city:       "拉萨",
			couponCode: "FREESHIP",
			wantSubtotal: 200, wantDiscount: 0, wantShipping: 0, wantTax: 0, wantTotal: 200,
		},
		{
			name:         "unknown coupon contributes no discount",
			items:        standardItems(),
			city:         "北京",
			couponCode:   "NOPE",
			wantSubtotal: 200, wantDiscount: 0, wantShipping: 0, wantTax: 0, wantTotal: 200,
		},
		{
			name:       "coupon below minimum order amount: fail",
			items:      []domain.OrderItem{item(1, 50)},
			city:       "北京",
			couponCode: "SAVE10",
			wantError:  "优惠券SAVE10未满足最低消费金额100",
		},
		{
			name:      "no items: fail",
			items:     nil,
			city:      "北京",
			wantError: "items: are empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(t)

			got, err := engine.CalculateOrderPricing(tt.items, addressIn(tt.city), tt.couponCode)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assert.True(t, got.Subtotal.Equal(cny(tt.wantSubtotal)), "subtotal: %s", got.Subtotal)
			assert.True(t, got.Discount.Equal(cny(tt.wantDiscount)), "discount: %s", got.Discount)
			assert.True(t, got.ShippingFee.Equal(cny(tt.wantShipping)), "shipping: %s", got.ShippingFee)
			assert.True(t, got.Tax.Equal(cny(tt.wantTax)), "tax: %s", got.Tax)
			assert.True(t, got.Total.Equal(cny(tt.wantTotal)), "total: %s", got.Total)

			// the breakdown always satisfies the order aggregate's invariant
			require.NoError(t, got.Validate())

			valid, problems := engine.ValidateOrderPricing(tt.items, got)
			assert.True(t, valid, "problems: %v", problems)
		})
	}
}

func TestValidateOrderPricing(t *testing.T) {
	engine := newEngine(t)
	items := standardItems()

	valid := domain.Pricing{
		Subtotal:    cny(200),
		Discount:    cny(20),
		ShippingFee: cny(8),
		Tax:         cny(0),
		Total:       cny(188),
	}

	tests := []struct {
		name         string
		mutate       func(p domain.Pricing) domain.Pricing
		wantProblems []string
	}{
		{
			name:   "consistent breakdown: valid",
			mutate: func(p domain.Pricing) domain.Pricing { return p },
		},
		{
			name: "within tolerance: valid",
			mutate: func(p domain.Pricing) domain.Pricing {
				p.Total = cny(188.01)
				return p
			},
		},
		{
			name: "subtotal mismatch",
			mutate: func(p domain.Pricing) domain.Pricing {
				p.Subtotal = cny(150)
				p.Total = cny(138)
				return p
			},
			wantProblems: []string{"subtotal[150] does not match sum of item totals[200]"},
		},
		{
			name: "total mismatch",
			mutate: func(p domain.Pricing) domain.Pricing {
				p.Total = cny(190)
				return p
			},
			wantProblems: []string{"total[190] does not match subtotal - discount + shipping + tax[188]"},
		},
		{
			name: "discount above subtotal",
			mutate: func(p domain.Pricing) domain.Pricing {
				p.Discount = cny(250)
				p.Total = cny(-42)
				return p
			},
			wantProblems: []string{
				"total[-42] is negative",
				"discount[250] exceeds subtotal[200]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown := tt.mutate(valid)

			gotValid, problems := engine.ValidateOrderPricing(items, breakdown)
			if len(tt.wantProblems) == 0 {
				assert.True(t, gotValid, "problems: %v", problems)
				return
			}

			assert.False(t, gotValid)
			assert.Equal(t, tt.wantProblems, problems)
		})
	}
}

func TestCalculateOptimalPricing(t *testing.T) {
	engine := newEngine(t)
	items := standardItems()
	address := addressIn("拉萨")

	t.Run("keeps the cheapest coupon", func(t *testing.T) {
		// baseline total 218; SAVE10 -> 198, MINUS20 -> 198, FREESHIP -> 200
		got, err := engine.CalculateOptimalPricing(items, address, []string{"FREESHIP", "SAVE10", "MINUS20"})
		require.NoError(t, err)

		assert.Equal(t, "SAVE10", got.CouponCode)
		assert.True(t, got.Pricing.Total.Equal(cny(198)), "total: %s", got.Pricing.Total)
		assert.True(t, got.Savings.Equal(cny(20)), "savings: %s", got.Savings)
	})

	t.Run("inapplicable candidates are skipped", func(t *testing.T) {
		small := []domain.OrderItem{item(1, 60)}

		// SAVE10 requires 100 minimum, FREESHIP applies from 50
		got, err := engine.CalculateOptimalPricing(small, address, []string{"SAVE10", "FREESHIP"})
		require.NoError(t, err)

		assert.Equal(t, "FREESHIP", got.CouponCode)
	})

	t.Run("no candidate beats baseline", func(t *testing.T) {
		got, err := engine.CalculateOptimalPricing(items, address, []string{"NOPE"})
		require.NoError(t, err)

		assert.Empty(t, got.CouponCode)
		assert.True(t, got.Savings.IsZero())
	})
}

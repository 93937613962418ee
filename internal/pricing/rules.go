package pricing

import (
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponTypePercentage   CouponType = "percentage"
	CouponTypeFixedAmount  CouponType = "fixed_amount"
	CouponTypeFreeShipping CouponType = "free_shipping"
)

type CouponRule struct {
	Code string
	Type CouponType

	// Rate applies to percentage coupons, e.g. 0.10 for 10% off.
	Rate decimal.Decimal
	// Amount applies to fixed-amount coupons.
	Amount decimal.Decimal

	// MinOrderAmount is the subtotal required before the coupon applies.
	MinOrderAmount decimal.Decimal
	// MaxDiscount caps a percentage discount; zero means no cap.
	MaxDiscount decimal.Decimal
}

type ShippingRule struct {
	Region string

	BaseFee decimal.Decimal
	// FreeThreshold waives the fee when subtotal-discount reaches it; zero means never.
	FreeThreshold decimal.Decimal
	// WeightRate is charged per unit of quantity on top of the base fee.
	WeightRate decimal.Decimal
}

type TaxRule struct {
	Region string
	Rate   decimal.Decimal
}

// RuleSource resolves the rule tables the engine computes against.
type RuleSource interface {
	Coupon(code string) (CouponRule, bool)
	Shipping(region string) (ShippingRule, bool)
	Tax(region string) (TaxRule, bool)
	Region(address domain.Address) string
}

const (
	RegionTier1 = "一线城市"
	RegionTier2 = "二三线城市"
	RegionOther = "其他地区"
)

// StaticRules is the default in-memory rule source.
type StaticRules struct {
	coupons  map[string]CouponRule
	shipping map[string]ShippingRule
	tax      map[string]TaxRule

	tier1Cities map[string]struct{}
	tier2Cities map[string]struct{}
}

func NewStaticRules() *StaticRules {
	return &StaticRules{
		coupons: map[string]CouponRule{
			"SAVE10": {
				Code:           "SAVE10",
				Type:           CouponTypePercentage,
				Rate:           decimal.NewFromFloat(0.10),
				MinOrderAmount: decimal.NewFromInt(100),
				MaxDiscount:    decimal.NewFromInt(50),
			},
			"MINUS20": {
				Code:           "MINUS20",
				Type:           CouponTypeFixedAmount,
				Amount:         decimal.NewFromInt(20),
				MinOrderAmount: decimal.NewFromInt(150),
			},
			"FREESHIP": {
				Code:           "FREESHIP",
				Type:           CouponTypeFreeShipping,
				MinOrderAmount: decimal.NewFromInt(50),
			},
		},
		shipping: map[string]ShippingRule{
			RegionTier1: {
				Region:        RegionTier1,
				BaseFee:       decimal.NewFromInt(8),
				FreeThreshold: decimal.NewFromInt(199),
			},
			RegionTier2: {
				Region:        RegionTier2,
				BaseFee:       decimal.NewFromInt(10),
				FreeThreshold: decimal.NewFromInt(299),
				WeightRate:    decimal.NewFromInt(1),
			},
			RegionOther: {
				Region:        RegionOther,
				BaseFee:       decimal.NewFromInt(12),
				FreeThreshold: decimal.NewFromInt(299),
				WeightRate:    decimal.NewFromInt(2),
			},
		},
		tax: map[string]TaxRule{},
		tier1Cities: map[string]struct{}{
			"北京": {}, "上海": {}, "广州": {}, "深圳": {},
		},
		tier2Cities: map[string]struct{}{
			"杭州": {}, "南京": {}, "武汉": {}, "成都": {},
			"重庆": {}, "西安": {}, "苏州": {}, "天津": {},
		},
	}
}

func (r *StaticRules) Coupon(code string) (CouponRule, bool) {
	rule, ok := r.coupons[code]
	return rule, ok
}

func (r *StaticRules) Shipping(region string) (ShippingRule, bool) {
	rule, ok := r.shipping[region]
	return rule, ok
}

func (r *StaticRules) Tax(region string) (TaxRule, bool) {
	rule, ok := r.tax[region]
	return rule, ok
}

func (r *StaticRules) Region(address domain.Address) string {
	city := trimCitySuffix(address.City)

	if _, ok := r.tier1Cities[city]; ok {
		return RegionTier1
	}

	if _, ok := r.tier2Cities[city]; ok {
		return RegionTier2
	}

	return RegionOther
}

func trimCitySuffix(city string) string {
	runes := []rune(city)
	if len(runes) > 1 && runes[len(runes)-1] == '市' {
		return string(runes[:len(runes)-1])
	}
	return city
}

package service

import (
	"github.com/sketezo-next/internal/models"

	"github.com/shopspring/decimal"
)

// PricingService 计价服务（税率与运费规则来自配置）
type PricingService struct {
	taxRate               decimal.Decimal
	shippingFee           decimal.Decimal
	freeShippingThreshold decimal.Decimal
	currency              string
}

// NewPricingService 创建计价服务
func NewPricingService(taxRate, shippingFee, freeShippingThreshold float64, currency string) *PricingService {
	if currency == "" {
		currency = "INR"
	}
	return &PricingService{
		taxRate:               decimal.NewFromFloat(taxRate),
		shippingFee:           decimal.NewFromFloat(shippingFee),
		freeShippingThreshold: decimal.NewFromFloat(freeShippingThreshold),
		currency:              currency,
	}
}

// PriceQuote 计价结果
type PriceQuote struct {
	Subtotal       models.Money `json:"subtotal"`
	DiscountAmount models.Money `json:"discount_amount"`
	ShippingCost   models.Money `json:"shipping_cost"`
	TaxAmount      models.Money `json:"tax_amount"`
	TotalAmount    models.Money `json:"total_amount"`
	Currency       string       `json:"currency"`
}

// Currency 返回计价币种
func (s *PricingService) Currency() string {
	return s.currency
}

// Quote 计算订单金额。
// 税费按（小计 - 折扣 + 运费）计算，总额 = 小计 - 折扣 + 运费 + 税费。
func (s *PricingService) Quote(subtotal, discount models.Money) PriceQuote {
	sub := subtotal.Decimal.Round(2)
	disc := discount.Decimal.Round(2)
	if disc.GreaterThan(sub) {
		disc = sub
	}
	if disc.LessThan(decimal.Zero) {
		disc = decimal.Zero
	}

	shipping := decimal.Zero
	if sub.LessThan(s.freeShippingThreshold) {
		shipping = s.shippingFee
	}

	taxable := sub.Sub(disc).Add(shipping)
	tax := taxable.Mul(s.taxRate).Round(2)
	total := taxable.Add(tax)

	return PriceQuote{
		Subtotal:       models.NewMoneyFromDecimal(sub),
		DiscountAmount: models.NewMoneyFromDecimal(disc),
		ShippingCost:   models.NewMoneyFromDecimal(shipping),
		TaxAmount:      models.NewMoneyFromDecimal(tax),
		TotalAmount:    models.NewMoneyFromDecimal(total),
		Currency:       s.currency,
	}
}

package service

import (
	"testing"

	"github.com/sketezo-next/internal/models"

	"github.com/shopspring/decimal"
)

func moneyFromFloat(value float64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromFloat(value))
}

func TestPricingQuoteFreeShippingAboveThreshold(t *testing.T) {
	svc := NewPricingService(0.05, 50, 500, "INR")

	quote := svc.Quote(moneyFromFloat(1000), moneyFromFloat(0))

	if !quote.ShippingCost.Decimal.IsZero() {
		t.Fatalf("shipping want 0 got %s", quote.ShippingCost.Decimal)
	}
	if !quote.TaxAmount.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("tax want 50 got %s", quote.TaxAmount.Decimal)
	}
	if !quote.TotalAmount.Decimal.Equal(decimal.NewFromInt(1050)) {
		t.Fatalf("total want 1050 got %s", quote.TotalAmount.Decimal)
	}
	if quote.Currency != "INR" {
		t.Fatalf("currency want INR got %s", quote.Currency)
	}
}

func TestPricingQuoteShippingBelowThreshold(t *testing.T) {
	svc := NewPricingService(0.05, 50, 500, "INR")

	quote := svc.Quote(moneyFromFloat(400), moneyFromFloat(0))

	if !quote.ShippingCost.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("shipping want 50 got %s", quote.ShippingCost.Decimal)
	}
	// (400 + 50) * 0.05 = 22.5
	if !quote.TaxAmount.Decimal.Equal(decimal.NewFromFloat(22.5)) {
		t.Fatalf("tax want 22.5 got %s", quote.TaxAmount.Decimal)
	}
	if !quote.TotalAmount.Decimal.Equal(decimal.NewFromFloat(472.5)) {
		t.Fatalf("total want 472.5 got %s", quote.TotalAmount.Decimal)
	}
}

func TestPricingQuoteDiscountApplied(t *testing.T) {
	svc := NewPricingService(0.05, 50, 500, "INR")

	quote := svc.Quote(moneyFromFloat(1000), moneyFromFloat(150))

	// (1000 - 150) * 0.05 = 42.5
	if !quote.DiscountAmount.Decimal.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("discount want 150 got %s", quote.DiscountAmount.Decimal)
	}
	if !quote.TaxAmount.Decimal.Equal(decimal.NewFromFloat(42.5)) {
		t.Fatalf("tax want 42.5 got %s", quote.TaxAmount.Decimal)
	}
	if !quote.TotalAmount.Decimal.Equal(decimal.NewFromFloat(892.5)) {
		t.Fatalf("total want 892.5 got %s", quote.TotalAmount.Decimal)
	}
}

func TestPricingQuoteDiscountClampedToSubtotal(t *testing.T) {
	svc := NewPricingService(0.05, 50, 500, "INR")

	quote := svc.Quote(moneyFromFloat(100), moneyFromFloat(999))

	if !quote.DiscountAmount.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("discount should clamp to subtotal, got %s", quote.DiscountAmount.Decimal)
	}
	// taxable = 0 + shipping 50, tax = 2.5
	if !quote.TotalAmount.Decimal.Equal(decimal.NewFromFloat(52.5)) {
		t.Fatalf("total want 52.5 got %s", quote.TotalAmount.Decimal)
	}
}

func TestPricingQuoteNegativeDiscountIgnored(t *testing.T) {
	svc := NewPricingService(0.05, 50, 500, "INR")

	quote := svc.Quote(moneyFromFloat(600), moneyFromFloat(-10))

	if !quote.DiscountAmount.Decimal.IsZero() {
		t.Fatalf("negative discount should become 0, got %s", quote.DiscountAmount.Decimal)
	}
}

func TestPricingCurrencyDefault(t *testing.T) {
	svc := NewPricingService(0.05, 50, 500, "")
	if svc.Currency() != "INR" {
		t.Fatalf("default currency want INR got %s", svc.Currency())
	}
}

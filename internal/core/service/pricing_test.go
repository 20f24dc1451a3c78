package service

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

func mustPricing(t *testing.T) *PricingPolicy {
	t.Helper()
	p, err := NewPricingPolicy(PricingConfig{})
	if err != nil {
		t.Fatalf("NewPricingPolicy: %v", err)
	}
	return p
}

func TestPricingPolicy_PriceFor(t *testing.T) {
	p := mustPricing(t)

	cases := []struct {
		tier int
		want string
	}{
		{0, "0"},
		{10, "0"},
		{40, "14.99"},
		{50, "19.99"},
		{60, "29.99"},
		{11, "14.99"},
		{99, "14.99"},
	}
	for _, tc := range cases {
		if got := p.PriceFor(tc.tier); !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("PriceFor(%d) = %s, want %s", tc.tier, got, tc.want)
		}
	}
}

func TestPricingPolicy_IsPaid(t *testing.T) {
	p := mustPricing(t)
	if p.IsPaid(10) {
		t.Fatalf("tier 10 must be free")
	}
	if !p.IsPaid(11) {
		t.Fatalf("tier 11 must be paid")
	}
	if p.BillingPeriod() != 30*24*time.Hour {
		t.Fatalf("unexpected billing period %s", p.BillingPeriod())
	}
}

func TestPricingPolicy_CustomTable(t *testing.T) {
	p, err := NewPricingPolicy(PricingConfig{
		Prices:        map[string]string{"20": "5"},
		DefaultPrice:  "7.5",
		PaidThreshold: 20,
	})
	if err != nil {
		t.Fatalf("NewPricingPolicy: %v", err)
	}
	if !p.PriceFor(20).Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected table price 5, got %s", p.PriceFor(20))
	}
	if !p.PriceFor(15).IsZero() {
		t.Fatalf("tier 15 is below the threshold, got %s", p.PriceFor(15))
	}
	if !p.PriceFor(40).Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("expected default price, got %s", p.PriceFor(40))
	}
}

func TestPricingPolicy_InvalidConfig(t *testing.T) {
	if _, err := NewPricingPolicy(PricingConfig{Prices: map[string]string{"gold": "1"}}); !errors.Is(err, domain.ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
	if _, err := NewPricingPolicy(PricingConfig{Prices: map[string]string{"40": "abc"}}); err == nil {
		t.Fatalf("expected error for unparsable price")
	}
	if _, err := NewPricingPolicy(PricingConfig{DefaultPrice: "-1"}); err == nil {
		t.Fatalf("expected error for negative default price")
	}
}

package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

const (
	DefaultPaidTierThreshold = 11
	DefaultBillingPeriodDays = 30
	DefaultTierPrice         = "14.99"
)

// DefaultTierPrices is the production price table keyed by tier code.
var DefaultTierPrices = map[string]string{
	"40": "14.99",
	"50": "19.99",
	"60": "29.99",
}

// PricingConfig is the raw price table as read from configuration.
type PricingConfig struct {
	Prices            map[string]string
	DefaultPrice      string
	PaidThreshold     int
	BillingPeriodDays int
}

// PricingPolicy maps tier codes to USD prices. Tiers below the paid threshold
// are free; unknown paid tiers resolve to the default price.
type PricingPolicy struct {
	prices        map[int]decimal.Decimal
	defaultPrice  decimal.Decimal
	paidThreshold int
	periodDays    int
}

func NewPricingPolicy(cfg PricingConfig) (*PricingPolicy, error) {
	if cfg.Prices == nil {
		cfg.Prices = DefaultTierPrices
	}
	if cfg.DefaultPrice == "" {
		cfg.DefaultPrice = DefaultTierPrice
	}
	if cfg.PaidThreshold <= 0 {
		cfg.PaidThreshold = DefaultPaidTierThreshold
	}
	if cfg.BillingPeriodDays <= 0 {
		cfg.BillingPeriodDays = DefaultBillingPeriodDays
	}

	def, err := parsePrice(cfg.DefaultPrice)
	if err != nil {
		return nil, fmt.Errorf("default price: %w", err)
	}

	p := &PricingPolicy{
		prices:        make(map[int]decimal.Decimal, len(cfg.Prices)),
		defaultPrice:  def,
		paidThreshold: cfg.PaidThreshold,
		periodDays:    cfg.BillingPeriodDays,
	}
	for k, v := range cfg.Prices {
		tier, err := strconv.Atoi(k)
		if err != nil || tier < 0 {
			return nil, fmt.Errorf("tier %q: %w", k, domain.ErrInvalidTier)
		}
		price, err := parsePrice(v)
		if err != nil {
			return nil, fmt.Errorf("tier %d: %w", tier, err)
		}
		p.prices[tier] = price
	}
	return p, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s", s)
	}
	return domain.RoundCents(d), nil
}

// IsPaid reports whether tier is billed.
func (p *PricingPolicy) IsPaid(tier int) bool {
	return tier >= p.paidThreshold
}

// Threshold is the lowest billed tier.
func (p *PricingPolicy) Threshold() int {
	return p.paidThreshold
}

// PriceFor returns the price of one billing period at tier.
func (p *PricingPolicy) PriceFor(tier int) decimal.Decimal {
	if !p.IsPaid(tier) {
		return decimal.Zero
	}
	if price, ok := p.prices[tier]; ok {
		return price
	}
	return p.defaultPrice
}

func (p *PricingPolicy) BillingPeriod() time.Duration {
	return time.Duration(p.periodDays) * 24 * time.Hour
}

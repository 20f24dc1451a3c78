package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

const maxPointsToConsume = 10000

// validDurations are the accepted JWT duration tiers: 24h, one week, one month.
var validDurations = map[int]bool{10: true, 20: true, 30: true}

// PurchaseRequest is one tier change as seen by the ledger.
type PurchaseRequest struct {
	Tier            int
	PointsToConsume int
	Duration        int
}

// CreditLedger holds the refund and debit rules. It never touches storage.
type CreditLedger struct {
	pricing *PricingPolicy
	codec   *TokenCodec
	logger  zerolog.Logger
	now     func() time.Time
}

func NewCreditLedger(pricing *PricingPolicy, codec *TokenCodec, logger zerolog.Logger) *CreditLedger {
	return &CreditLedger{pricing: pricing, codec: codec, logger: logger, now: time.Now}
}

// RefundFor prorates the unused part of the user's current paid token.
func (l *CreditLedger) RefundFor(u *domain.User) decimal.Decimal {
	if u == nil || !u.HasPaidTier(l.pricing.Threshold()) || u.APIToken == "" {
		return decimal.Zero
	}

	claims, err := l.codec.Peek(u.APIToken)
	if err != nil {
		l.logger.Warn().Err(err).Str("user_id", u.ID).Msg("stored api token unreadable, no refund")
		return decimal.Zero
	}

	remaining := claims.ExpiresAt.Sub(l.now())
	if remaining <= 0 {
		return decimal.Zero
	}

	period := decimal.NewFromFloat(l.pricing.BillingPeriod().Seconds())
	refund := decimal.NewFromFloat(remaining.Seconds()).
		Mul(l.pricing.PriceFor(u.APILevel)).
		Div(period)
	if refund.IsNegative() {
		return decimal.Zero
	}
	return domain.RoundCents(refund)
}

// Purchase applies a tier change to a copy of u and returns the copy with the
// new credit, tier and token set. u itself is never modified.
func (l *CreditLedger) Purchase(u *domain.User, req PurchaseRequest) (*domain.User, error) {
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := normalizePurchase(&req); err != nil {
		return nil, err
	}

	next := u.Clone()

	if next.HasPaidTier(l.pricing.Threshold()) {
		next.Credit = next.Credit.Add(l.RefundFor(u))
	}

	price := l.pricing.PriceFor(req.Tier)
	if next.Credit.LessThan(price) {
		return nil, fmt.Errorf("%w: credit %s, price %s", domain.ErrInsufficientCredit,
			domain.RoundCents(next.Credit).StringFixed(2), price.StringFixed(2))
	}
	if l.pricing.IsPaid(req.Tier) {
		next.Credit = next.Credit.Sub(price)
	}
	next.Credit = domain.RoundCents(next.Credit)

	next.APILevel = req.Tier
	next.PointsToConsume = req.PointsToConsume
	next.Duration = req.Duration
	next.RateLimit = domain.RateLimitFor(req.PointsToConsume)

	token, exp, err := l.codec.Issue(domain.ClaimsFor(next), 0)
	if err != nil {
		return nil, err
	}
	next.APIToken = token
	next.APITokenExp = exp
	next.UpdatedAt = l.now().UTC()
	return next, nil
}

func normalizePurchase(req *PurchaseRequest) error {
	if req.Tier < 0 {
		return domain.ErrInvalidTier
	}
	if req.PointsToConsume == 0 {
		req.PointsToConsume = domain.DefaultPointsToConsume
	}
	if req.PointsToConsume < 1 || req.PointsToConsume > maxPointsToConsume {
		return fmt.Errorf("%w: pointsToConsume must be between 1 and %d", domain.ErrInvalidRequest, maxPointsToConsume)
	}
	if req.Duration == 0 {
		req.Duration = domain.DefaultDuration
	}
	if !validDurations[req.Duration] {
		return fmt.Errorf("%w: duration must be 10, 20 or 30", domain.ErrInvalidRequest)
	}
	return nil
}

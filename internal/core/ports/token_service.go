package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

// PurchaseInput is the "request new token" command. Zero PointsToConsume and
// Duration fall back to the account defaults.
type PurchaseInput struct {
	APILevel        int
	PointsToConsume int
	Duration        int
}

// PurchaseResult is returned after a token purchase is committed.
type PurchaseResult struct {
	APIToken    string
	APITokenExp time.Time
	APILevel    int
	Credit      decimal.Decimal
}

// TokenService issues, replaces and validates API tokens.
type TokenService interface {
	Purchase(ctx context.Context, userID string, input PurchaseInput) (*PurchaseResult, error)
	IsValid(ctx context.Context, token string) domain.TokenStatus
	CurrentToken(ctx context.Context, userID string) (string, error)
	DepositAddress(ctx context.Context, userID string) (string, error)
}

// TopupResult reports the outcome of a credit top-up. Credit is always the
// credit as persisted after the call.
type TopupResult struct {
	Credit decimal.Decimal
	Delta  decimal.Decimal
	TxID   string
	Swept  bool
}

// TopupService converts deposited funds into account credit.
type TopupService interface {
	Topup(ctx context.Context, userID string) (*TopupResult, error)
}

// Sweeper consolidates the funds of one deposit address into the company wallet.
type Sweeper interface {
	Queue(ctx context.Context, hdIndex int) (string, error)
}

// AddressDeriver maps an HD index to its deposit address.
type AddressDeriver interface {
	DeriveAddress(hdIndex int) (*domain.KeyMaterial, error)
}

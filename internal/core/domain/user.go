package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Defaults applied to newly registered accounts and to purchases that omit
// the rate-limit shaping fields.
const (
	DefaultPointsToConsume = 100
	DefaultDuration        = 30
	// rateLimitBudget is divided by PointsToConsume to get requests per minute.
	rateLimitBudget = 10000
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrConflict           = errors.New("user record was modified concurrently")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidRequest     = errors.New("invalid request")
)

// User is the account record shared with the account store. Credit is only
// changed by the ledger and the top-up flow.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Credit      decimal.Decimal `json:"credit"`
	APILevel    int             `json:"api_level"`
	APIToken    string          `json:"api_token,omitempty"`
	APITokenExp time.Time       `json:"api_token_exp,omitempty"`

	HDIndex        int    `json:"hd_index"`
	DepositAddress string `json:"deposit_address,omitempty"`

	PointsToConsume int `json:"points_to_consume"`
	Duration        int `json:"duration"`
	RateLimit       int `json:"rate_limit"`

	// Version guards Save against lost updates.
	Version int64 `json:"-"`
}

// Clone returns a copy that can be mutated without affecting u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// HasPaidTier reports whether the account's current tier is billed.
func (u *User) HasPaidTier(threshold int) bool {
	return u.APILevel >= threshold
}

// RateLimitFor converts the per-request point cost into requests per minute.
func RateLimitFor(pointsToConsume int) int {
	if pointsToConsume <= 0 {
		pointsToConsume = DefaultPointsToConsume
	}
	return rateLimitBudget / pointsToConsume
}

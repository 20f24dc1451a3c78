package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
	ErrSigning        = errors.New("token signing failed")
)

// ExpiredError reports a token whose signature verified but whose exp claim
// is in the past.
type ExpiredError struct {
	ExpiresAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("token expired at %s", e.ExpiresAt.UTC().Format(time.RFC3339))
}

func (e *ExpiredError) Is(target error) bool {
	return target == ErrTokenExpired
}

// TokenClaims is the payload embedded in an issued API token.
type TokenClaims struct {
	ID              string
	Email           string
	APILevel        int
	RateLimit       int
	PointsToConsume int
	Duration        int
	IssuedAt        time.Time
	ExpiresAt       time.Time
}

// ClaimsFor builds the claims for a token issued to u.
func ClaimsFor(u *User) TokenClaims {
	return TokenClaims{
		ID:              u.ID,
		Email:           u.Email,
		APILevel:        u.APILevel,
		RateLimit:       u.RateLimit,
		PointsToConsume: u.PointsToConsume,
		Duration:        u.Duration,
	}
}

// TokenStatus is the answer to a validity check. The zero value means invalid.
type TokenStatus struct {
	IsValid  bool `json:"isValid"`
	APILevel int  `json:"apiLevel"`
}

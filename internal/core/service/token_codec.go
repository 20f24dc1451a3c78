package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

// DefaultTokenTTL is the lifetime of a newly issued API token.
const DefaultTokenTTL = 30 * 24 * time.Hour

// apiTokenClaims is the wire format read by the downstream API server.
type apiTokenClaims struct {
	UserID          string `json:"id"`
	Email           string `json:"email,omitempty"`
	APILevel        int    `json:"apiLevel"`
	RateLimit       int    `json:"rateLimit"`
	PointsToConsume int    `json:"pointsToConsume"`
	Duration        int    `json:"duration"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies API tokens with a process-wide HMAC secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs claims with iat = now and exp = now + ttl. A non-positive ttl
// selects the configured default.
func (c *TokenCodec) Issue(claims domain.TokenClaims, ttl time.Duration) (string, time.Time, error) {
	if len(c.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: secret is not configured", domain.ErrSigning)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	issuedAt := c.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, apiTokenClaims{
		UserID:          claims.ID,
		Email:           claims.Email,
		APILevel:        claims.APILevel,
		RateLimit:       claims.RateLimit,
		PointsToConsume: claims.PointsToConsume,
		Duration:        claims.Duration,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", domain.ErrSigning, err)
	}
	return signed, expiresAt, nil
}

// Decode verifies the signature and expiry of token. It does not consult any
// stored state.
func (c *TokenCodec) Decode(token string) (*domain.TokenClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", domain.ErrTokenMalformed)
	}

	claims := &apiTokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case err == nil:
		return claims.toDomain(), nil
	case errors.Is(err, jwt.ErrTokenExpired):
		var exp time.Time
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		return nil, &domain.ExpiredError{ExpiresAt: exp}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenSignature, err)
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
}

// Peek decodes claims without checking signature or expiry. Only use it on
// tokens read back from our own store, never for access decisions.
func (c *TokenCodec) Peek(token string) (*domain.TokenClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", domain.ErrTokenMalformed)
	}
	claims := &apiTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
	return claims.toDomain(), nil
}

func (c *apiTokenClaims) toDomain() *domain.TokenClaims {
	out := &domain.TokenClaims{
		ID:              c.UserID,
		Email:           c.Email,
		APILevel:        c.APILevel,
		RateLimit:       c.RateLimit,
		PointsToConsume: c.PointsToConsume,
		Duration:        c.Duration,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

// newTokenID makes two tokens minted in the same second for the same claims
// distinguishable.
func newTokenID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%016x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

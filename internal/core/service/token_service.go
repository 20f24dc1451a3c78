package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/99minutos/apitoken-system/internal/core/domain"
	"github.com/99minutos/apitoken-system/internal/core/ports"
	"github.com/99minutos/apitoken-system/internal/metrics"
)

// TokenService implements token purchase and the validity check used by the
// downstream API server.
type TokenService struct {
	repo    ports.AccountRepository
	ledger  *CreditLedger
	codec   *TokenCodec
	deriver ports.AddressDeriver
	logger  zerolog.Logger
}

func NewTokenService(repo ports.AccountRepository, ledger *CreditLedger, codec *TokenCodec, deriver ports.AddressDeriver, logger zerolog.Logger) *TokenService {
	return &TokenService{repo: repo, ledger: ledger, codec: codec, deriver: deriver, logger: logger}
}

// Purchase replaces the user's token with one for input.APILevel. The old
// token stops validating as soon as the new record is saved.
func (s *TokenService) Purchase(ctx context.Context, userID string, input ports.PurchaseInput) (*ports.PurchaseResult, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, err := s.ledger.Purchase(user, PurchaseRequest{
		Tier:            input.APILevel,
		PointsToConsume: input.PointsToConsume,
		Duration:        input.Duration,
	})
	if err != nil {
		metrics.PurchaseRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	if err := s.repo.Save(ctx, next); err != nil {
		metrics.PurchaseRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to persist token purchase")
		return nil, err
	}

	metrics.TokensIssuedTotal.WithLabelValues(strconv.Itoa(next.APILevel)).Inc()
	s.logger.Info().
		Str("user_id", userID).
		Int("api_level", next.APILevel).
		Str("credit", next.Credit.StringFixed(2)).
		Str("token", tokenSuffix(next.APIToken)).
		Msg("api token issued")

	return &ports.PurchaseResult{
		APIToken:    next.APIToken,
		APITokenExp: next.APITokenExp,
		APILevel:    next.APILevel,
		Credit:      next.Credit,
	}, nil
}

// IsValid never fails: every problem collapses to the zero TokenStatus.
func (s *TokenService) IsValid(ctx context.Context, token string) domain.TokenStatus {
	claims, err := s.codec.Decode(token)
	if err != nil {
		metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
		s.logger.Debug().Err(err).Msg("api token rejected")
		return domain.TokenStatus{}
	}

	user, err := s.repo.FindByID(ctx, claims.ID)
	if err != nil {
		metrics.TokenValidationsTotal.WithLabelValues("unknown_user").Inc()
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn().Err(err).Str("user_id", claims.ID).Msg("account lookup failed during token check")
		}
		return domain.TokenStatus{}
	}

	if user.APIToken != token {
		metrics.TokenValidationsTotal.WithLabelValues("revoked").Inc()
		return domain.TokenStatus{}
	}

	metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
	return domain.TokenStatus{IsValid: true, APILevel: user.APILevel}
}

func (s *TokenService) CurrentToken(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.APIToken, nil
}

// DepositAddress returns the cached address or derives it from the HD index.
// A freshly derived address is written back on a best-effort basis.
func (s *TokenService) DepositAddress(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.DepositAddress != "" {
		return user.DepositAddress, nil
	}

	key, err := s.deriver.DeriveAddress(user.HDIndex)
	if err != nil {
		return "", err
	}

	user.DepositAddress = key.Address
	if err := s.repo.Save(ctx, user); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("could not cache deposit address")
	}
	return key.Address, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientCredit):
		return "insufficient_credit"
	case errors.Is(err, domain.ErrInvalidTier), errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

// tokenSuffix is the only part of a token that may appear in logs.
func tokenSuffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return "..." + token[len(token)-6:]
}

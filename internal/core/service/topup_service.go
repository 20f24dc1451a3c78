package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/core/domain"
	"github.com/99minutos/apitoken-system/internal/core/ports"
	"github.com/99minutos/apitoken-system/internal/metrics"
)

// DefaultPersistTimeout bounds the writes that follow a broadcast sweep.
const DefaultPersistTimeout = 10 * time.Second

// TopupConfig holds the oracle asset symbol and notification settings.
type TopupConfig struct {
	Asset         string
	ExplorerTxURL string
	NotifyFrom    string
	NotifyTo      []string
}

// TopupDeps groups the collaborators of TopupService.
type TopupDeps struct {
	Accounts ports.AccountRepository
	Audit    ports.SweepAuditRepository
	Indexer  ports.Indexer
	Oracle   ports.PriceOracle
	Deriver  ports.AddressDeriver
	Sweeper  ports.Sweeper
	Notifier ports.Notifier
}

// TopupService converts a deposit balance into USD credit. Credit is only
// committed once the deposit has been swept.
type TopupService struct {
	deps   TopupDeps
	cfg    TopupConfig
	logger zerolog.Logger
	now    func() time.Time
}

func NewTopupService(deps TopupDeps, cfg TopupConfig, logger zerolog.Logger) *TopupService {
	if cfg.Asset == "" {
		cfg.Asset = "bch"
	}
	return &TopupService{deps: deps, cfg: cfg, logger: logger, now: time.Now}
}

func (s *TopupService) Topup(ctx context.Context, userID string) (*ports.TopupResult, error) {
	user, err := s.deps.Accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	address, err := s.depositAddress(user)
	if err != nil {
		return nil, err
	}

	balance, err := s.deps.Indexer.Balance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", address, err)
	}
	sats := balance.Total()
	if sats <= 0 {
		return &ports.TopupResult{Credit: user.Credit, Delta: decimal.Zero}, nil
	}

	price, err := s.deps.Oracle.FiatPrice(ctx, s.cfg.Asset)
	if err != nil {
		return nil, fmt.Errorf("%s price: %w", s.cfg.Asset, err)
	}

	rawDelta := domain.MinorToMajor(sats).Mul(price)
	next := user.Clone()
	next.DepositAddress = address
	next.Credit = domain.RoundCents(next.Credit.Add(rawDelta))
	next.UpdatedAt = s.now().UTC()
	delta := domain.RoundCents(rawDelta)

	txid, err := s.deps.Sweeper.Queue(ctx, user.HDIndex)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Int("hd_index", user.HDIndex).Msg("sweep failed, credit not updated")
		return &ports.TopupResult{Credit: user.Credit, Delta: decimal.Zero}, fmt.Errorf("sweep deposit of user %s: %w", userID, err)
	}

	// The funds are on chain now. Client disconnects must not skip the credit.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultPersistTimeout)
	defer cancel()

	if err := s.deps.Accounts.Save(persistCtx, next); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID).
			Str("txid", txid).
			Str("credit_delta", delta.StringFixed(2)).
			Msg("funds swept but credit not persisted, manual reconciliation required")
		return nil, fmt.Errorf("persist credit after sweep %s: %w", txid, err)
	}

	metrics.TopupCreditTotal.Add(delta.InexactFloat64())
	s.logger.Info().
		Str("user_id", userID).
		Str("txid", txid).
		Str("credit_delta", delta.StringFixed(2)).
		Str("credit", next.Credit.StringFixed(2)).
		Msg("credit topped up")

	s.audit(persistCtx, next, txid, sats, delta)
	s.notify(persistCtx, next, txid, delta)

	return &ports.TopupResult{Credit: next.Credit, Delta: delta, TxID: txid, Swept: true}, nil
}

// depositAddress derives the address the sweeper will spend from. A cached
// address that disagrees with it is logged and replaced.
func (s *TopupService) depositAddress(u *domain.User) (string, error) {
	key, err := s.deps.Deriver.DeriveAddress(u.HDIndex)
	if err != nil {
		return "", err
	}
	if u.DepositAddress != "" && u.DepositAddress != key.Address {
		s.logger.Warn().
			Str("user_id", u.ID).
			Int("hd_index", u.HDIndex).
			Str("cached", u.DepositAddress).
			Str("derived", key.Address).
			Msg("cached deposit address does not match hd index")
	}
	return key.Address, nil
}

func (s *TopupService) audit(ctx context.Context, u *domain.User, txid string, sats int64, delta decimal.Decimal) {
	if s.deps.Audit == nil {
		return
	}
	err := s.deps.Audit.InsertSweep(ctx, &domain.SweepRecord{
		UserID:      u.ID,
		HDIndex:     u.HDIndex,
		TxID:        txid,
		Satoshis:    sats,
		CreditDelta: delta.StringFixed(2),
		SweptAt:     s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("txid", txid).Msg("sweep audit record not written")
	}
}

func (s *TopupService) notify(ctx context.Context, u *domain.User, txid string, delta decimal.Decimal) {
	if s.deps.Notifier == nil || len(s.cfg.NotifyTo) == 0 {
		return
	}
	link := s.cfg.ExplorerTxURL + txid
	body := fmt.Sprintf(
		`<p>User <b>%s</b> (%s) topped up <b>$%s</b>.</p><p>New credit: $%s</p><p>Sweep transaction: <a href="%s">%s</a></p>`,
		html.EscapeString(u.Email), html.EscapeString(u.ID), delta.StringFixed(2), u.Credit.StringFixed(2),
		html.EscapeString(link), html.EscapeString(txid),
	)
	err := s.deps.Notifier.Send(ctx, domain.Email{
		From:    s.cfg.NotifyFrom,
		To:      s.cfg.NotifyTo,
		Subject: "Credit top-up for " + u.Email,
		HTML:    body,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("top-up notification not sent")
	}
}

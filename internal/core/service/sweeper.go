package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/core/domain"
	"github.com/99minutos/apitoken-system/internal/core/ports"
	"github.com/99minutos/apitoken-system/internal/metrics"
)

const (
	DefaultSweepAttempts   = 5
	DefaultSweepRetryDelay = time.Second
	DefaultChainTimeout    = 10 * time.Second
)

// SweeperConfig controls fees and the retry driver.
type SweeperConfig struct {
	CompanyAddress string
	MaxAttempts    int
	RetryDelay     time.Duration
	// FeeRate is in satoshis per byte.
	FeeRate       float64
	FeeMultiplier float64
	CallTimeout   time.Duration
}

func (c *SweeperConfig) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultSweepAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultSweepRetryDelay
	}
	if c.FeeRate <= 0 {
		c.FeeRate = 1
	}
	if c.FeeMultiplier <= 1 {
		c.FeeMultiplier = 1.1
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultChainTimeout
	}
}

// FundSweeper moves the balance of a deposit address to the company address.
// It keeps no state between Queue calls; callers serialise per HD index.
type FundSweeper struct {
	wallet      ports.WalletSigner
	indexer     ports.Indexer
	broadcaster ports.Broadcaster
	cfg         SweeperConfig
	logger      zerolog.Logger
	wait        func(ctx context.Context, d time.Duration) error
}

func NewFundSweeper(wallet ports.WalletSigner, indexer ports.Indexer, broadcaster ports.Broadcaster, cfg SweeperConfig, logger zerolog.Logger) *FundSweeper {
	cfg.applyDefaults()
	return &FundSweeper{
		wallet:      wallet,
		indexer:     indexer,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger,
		wait:        sleepCtx,
	}
}

// maxHDIndex is the last non-hardened BIP32 child index.
const maxHDIndex = 1<<31 - 1

// DeriveAddress returns the key material for hdIndex. Zero is a valid index.
func (s *FundSweeper) DeriveAddress(hdIndex int) (*domain.KeyMaterial, error) {
	if hdIndex < 0 || hdIndex > maxHDIndex {
		return nil, fmt.Errorf("%w: got %d", domain.ErrDerivation, hdIndex)
	}
	key, err := s.wallet.Derive(uint32(hdIndex))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDerivation, err)
	}
	return key, nil
}

// Sweep builds and signs a transaction spending every UTXO of fromAddress to
// toAddress, minus the fee. It does not broadcast.
func (s *FundSweeper) Sweep(ctx context.Context, fromAddress string, hdIndex int, toAddress string) (string, error) {
	key, err := s.DeriveAddress(hdIndex)
	if err != nil {
		return "", err
	}
	if key.Address != fromAddress {
		return "", fmt.Errorf("%w: address %s does not belong to hd index %d", domain.ErrDerivation, fromAddress, hdIndex)
	}
	return s.buildSigned(ctx, key, toAddress)
}

func (s *FundSweeper) buildSigned(ctx context.Context, key *domain.KeyMaterial, toAddress string) (string, error) {
	utxos, err := s.fetchUTXOs(ctx, key.Address)
	if err != nil {
		return "", err
	}
	if len(utxos) == 0 {
		return "", fmt.Errorf("%w: address %s", domain.ErrNoUTXOs, key.Address)
	}

	var total int64
	for _, u := range utxos {
		total += u.Value
	}
	if total <= 0 {
		return "", fmt.Errorf("%w: address %s holds zero value", domain.ErrNoUTXOs, key.Address)
	}

	fee := s.fee(len(utxos), 1)
	amount := total - fee
	if amount <= 0 {
		return "", fmt.Errorf("%w: balance %d does not cover fee %d", domain.ErrNoUTXOs, total, fee)
	}

	for _, u := range utxos {
		spent, err := s.isSpent(ctx, u)
		if err != nil {
			return "", fmt.Errorf("validate utxo %s:%d: %w", u.TxHash, u.OutputIndex, err)
		}
		if spent {
			return "", fmt.Errorf("%w: %s:%d", domain.ErrInvalidUTXO, u.TxHash, u.OutputIndex)
		}
	}

	tx := s.wallet.NewTx()
	for _, u := range utxos {
		if err := tx.AddInput(u); err != nil {
			return "", fmt.Errorf("%w: add input %s:%d: %v", domain.ErrTxBuild, u.TxHash, u.OutputIndex, err)
		}
	}
	if err := tx.AddOutput(toAddress, amount); err != nil {
		return "", fmt.Errorf("%w: add output: %v", domain.ErrTxBuild, err)
	}
	for i, u := range utxos {
		if err := tx.Sign(i, key, u.Value); err != nil {
			return "", fmt.Errorf("%w: sign input %d: %v", domain.ErrTxBuild, i, err)
		}
	}
	return tx.Hex()
}

// fee is ceil(size * rate * multiplier) in satoshis.
func (s *FundSweeper) fee(inputs, outputs int) int64 {
	size := decimal.NewFromInt(domain.EstimateTxSize(inputs, outputs))
	return size.
		Mul(decimal.NewFromFloat(s.cfg.FeeRate)).
		Mul(decimal.NewFromFloat(s.cfg.FeeMultiplier)).
		Ceil().
		IntPart()
}

// Broadcast submits hex. Errors are returned as the broadcaster produced them.
func (s *FundSweeper) Broadcast(ctx context.Context, hex string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.broadcaster.Submit(callCtx, hex)
}

// Queue sweeps the deposit address of hdIndex to the company address,
// retrying transient failures with a fixed delay.
func (s *FundSweeper) Queue(ctx context.Context, hdIndex int) (string, error) {
	if hdIndex < 0 || hdIndex > maxHDIndex {
		return "", fmt.Errorf("%w: got %d", domain.ErrDerivation, hdIndex)
	}

	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	job := domain.SweepJob{HDIndex: hdIndex, Target: s.cfg.CompanyAddress}
	var lastErr error
	for job.Attempt = 1; job.Attempt <= s.cfg.MaxAttempts; job.Attempt++ {
		txid, err := s.attempt(ctx, job)
		if err == nil {
			metrics.SweepAttemptsTotal.WithLabelValues("success").Inc()
			s.logger.Info().Int("hd_index", hdIndex).Int("attempt", job.Attempt).Str("txid", txid).Msg("sweep broadcast")
			return txid, nil
		}
		lastErr = err
		metrics.SweepAttemptsTotal.WithLabelValues(sweepOutcome(err)).Inc()

		if !isRetryable(err) {
			return "", err
		}
		if job.Attempt == s.cfg.MaxAttempts {
			break
		}

		s.logger.Warn().Err(err).Int("hd_index", hdIndex).Int("attempt", job.Attempt).Msg("sweep attempt failed, retrying")
		if werr := s.wait(ctx, s.cfg.RetryDelay); werr != nil {
			return "", fmt.Errorf("sweep of hd index %d stopped after attempt %d: %w (last error: %v)", hdIndex, job.Attempt, werr, lastErr)
		}
	}

	s.logger.Error().Err(lastErr).Int("hd_index", hdIndex).Int("attempts", s.cfg.MaxAttempts).Msg("sweep gave up")
	return "", fmt.Errorf("sweep of hd index %d failed after %d attempts: %w", hdIndex, s.cfg.MaxAttempts, lastErr)
}

func (s *FundSweeper) attempt(ctx context.Context, job domain.SweepJob) (string, error) {
	key, err := s.DeriveAddress(job.HDIndex)
	if err != nil {
		return "", err
	}
	hex, err := s.buildSigned(ctx, key, job.Target)
	if err != nil {
		return "", err
	}
	return s.Broadcast(ctx, hex)
}

func (s *FundSweeper) fetchUTXOs(ctx context.Context, address string) ([]domain.UTXO, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.indexer.UTXOs(callCtx, address)
}

func (s *FundSweeper) isSpent(ctx context.Context, u domain.UTXO) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.indexer.IsSpent(callCtx, u.TxHash, u.OutputIndex)
}

// isRetryable reports whether another attempt within the same Queue call can
// succeed.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, domain.ErrNoUTXOs),
		errors.Is(err, domain.ErrDerivation),
		errors.Is(err, domain.ErrTxBuild),
		errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

func sweepOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoUTXOs):
		return "no_utxos"
	case errors.Is(err, domain.ErrInvalidUTXO):
		return "invalid_utxo"
	case errors.Is(err, domain.ErrTxBuild):
		return "build_error"
	default:
		return "error"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

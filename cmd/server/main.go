// @title                       API Token Service
// @version                     1.0
// @description                 Sells rate-limited API tokens paid from per-user deposit addresses.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/99minutos/apitoken-system/docs"
	"github.com/99minutos/apitoken-system/internal/api"
	"github.com/99minutos/apitoken-system/internal/api/handler"
	"github.com/99minutos/apitoken-system/internal/core/service"
	"github.com/99minutos/apitoken-system/internal/infrastructure/chain"
	"github.com/99minutos/apitoken-system/internal/infrastructure/config"
	mongodb "github.com/99minutos/apitoken-system/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/apitoken-system/internal/infrastructure/db/redis"
	"github.com/99minutos/apitoken-system/internal/infrastructure/mail"
	"github.com/99minutos/apitoken-system/internal/infrastructure/queue"
	"github.com/99minutos/apitoken-system/internal/infrastructure/wallet"
	"github.com/99minutos/apitoken-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := config.Load(bootLog)

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "apitoken-system",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	accounts := mongodb.NewAccountRepository(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return err
	}
	sweepAudit := mongodb.NewSweepRepository(db)

	// --- Chain adapters ---
	hd, err := wallet.New(wallet.Config{
		Mnemonic:   cfg.Wallet.Mnemonic,
		Passphrase: cfg.Wallet.Passphrase,
		Network:    cfg.Wallet.Network,
		CoinType:   cfg.Wallet.CoinType,
	})
	if err != nil {
		return err
	}

	indexer, err := chain.NewRESTClient(cfg.Indexer.URL, cfg.Indexer.Token, cfg.Sweeper.CallTimeout)
	if err != nil {
		return err
	}
	oracle := redisdb.NewPriceCache(rdb, indexer, cfg.Price.CacheTTL, log)

	notifier, err := mail.NewNotifier(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
	}, log)
	if err != nil {
		return err
	}

	// --- Core services ---
	pricing, err := service.NewPricingPolicy(service.PricingConfig{
		Prices:            cfg.Pricing.TierPrices,
		DefaultPrice:      cfg.Pricing.DefaultPrice,
		PaidThreshold:     cfg.Pricing.PaidThreshold,
		BillingPeriodDays: cfg.Pricing.BillingPeriodDays,
	})
	if err != nil {
		return err
	}
	codec := service.NewTokenCodec(cfg.Tokens.Secret, cfg.Tokens.TTL)
	ledger := service.NewCreditLedger(pricing, codec, log)

	fundSweeper := service.NewFundSweeper(hd, indexer, indexer, service.SweeperConfig{
		CompanyAddress: cfg.Wallet.CompanyAddress,
		MaxAttempts:    cfg.Sweeper.MaxAttempts,
		RetryDelay:     cfg.Sweeper.RetryDelay,
		FeeRate:        cfg.Sweeper.FeeRate,
		FeeMultiplier:  cfg.Sweeper.FeeMultiplier,
		CallTimeout:    cfg.Sweeper.CallTimeout,
	}, log)
	sweeper := service.NewLockedSweeper(fundSweeper, redisdb.NewSweepLock(rdb, cfg.Sweeper.LockTTL, log))

	authService := service.NewAuthService(accounts, fundSweeper, cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, log)
	tokenService := service.NewTokenService(accounts, ledger, codec, fundSweeper, log)
	topupService := service.NewTopupService(service.TopupDeps{
		Accounts: accounts,
		Audit:    sweepAudit,
		Indexer:  indexer,
		Oracle:   oracle,
		Deriver:  fundSweeper,
		Sweeper:  sweeper,
		Notifier: notifier,
	}, service.TopupConfig{
		Asset:         cfg.Price.Asset,
		ExplorerTxURL: cfg.SMTP.ExplorerTxURL,
		NotifyFrom:    cfg.SMTP.From,
		NotifyTo:      cfg.SMTP.To,
	}, log)

	dispatcher := queue.NewDispatcher(cfg.Dispatcher.Workers, cfg.Dispatcher.Buffer, topupService, log)
	dispatcher.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Auth:    authService,
		Tokens:  tokenService,
		Topups:  dispatcher,
		Sweeper: sweeper,
		Ready: map[string]handler.Pinger{
			"mongodb": handler.MongoPinger(db),
			"redis":   handler.RedisPinger(rdb),
		},
		SessionSecret: cfg.Auth.SessionSecret,
		Logger:        log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

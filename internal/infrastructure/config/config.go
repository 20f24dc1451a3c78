package config

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Auth       AuthConfig
	Tokens     TokenConfig
	Pricing    PricingConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Wallet     WalletConfig
	Sweeper    SweeperConfig
	Indexer    IndexerConfig
	Price      PriceConfig
	SMTP       SMTPConfig
	Dispatcher DispatcherConfig
}

// AuthConfig is for the session JWT returned by /auth/login.
type AuthConfig struct {
	SessionSecret string        `env:"SESSION_SECRET, required"`
	SessionTTL    time.Duration `env:"SESSION_TTL,    default=24h"`
}

// TokenConfig is for the API tokens sold to users.
type TokenConfig struct {
	Secret string        `env:"API_TOKEN_SECRET, required"`
	TTL    time.Duration `env:"API_TOKEN_TTL,    default=720h"`
}

type PricingConfig struct {
	// TierPrices is "tier:price" pairs, e.g. "40:14.99,50:19.99".
	TierPrices        map[string]string `env:"TIER_PRICES"`
	DefaultPrice      string            `env:"DEFAULT_TIER_PRICE,  default=14.99"`
	PaidThreshold     int               `env:"PAID_TIER_THRESHOLD, default=11"`
	BillingPeriodDays int               `env:"BILLING_PERIOD_DAYS, default=30"`
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,       default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,        default=apitoken_system"`
	MaxPoolSize uint64 `env:"MONGO_POOL_SIZE, default=50"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type WalletConfig struct {
	Mnemonic       string `env:"WALLET_MNEMONIC, required"`
	Passphrase     string `env:"WALLET_PASSPHRASE"`
	Network        string `env:"WALLET_NETWORK,   default=mainnet"`
	CoinType       uint32 `env:"WALLET_COIN_TYPE, default=245"`
	CompanyAddress string `env:"COMPANY_ADDRESS,  required"`
}

type SweeperConfig struct {
	MaxAttempts   int           `env:"SWEEP_MAX_ATTEMPTS,   default=5"`
	RetryDelay    time.Duration `env:"SWEEP_RETRY_DELAY,    default=1s"`
	FeeRate       float64       `env:"SWEEP_FEE_RATE,       default=1"`
	FeeMultiplier float64       `env:"SWEEP_FEE_MULTIPLIER, default=1.1"`
	LockTTL       time.Duration `env:"SWEEP_LOCK_TTL,       default=2m"`
	CallTimeout   time.Duration `env:"CHAIN_CALL_TIMEOUT,   default=10s"`
}

type IndexerConfig struct {
	URL   string `env:"INDEXER_URL, default=https://api.fullstack.cash/v5/"`
	Token string `env:"INDEXER_TOKEN"`
}

type PriceConfig struct {
	Asset    string        `env:"PRICE_ASSET,     default=bch"`
	CacheTTL time.Duration `env:"PRICE_CACHE_TTL, default=1m"`
}

// SMTPConfig leaves notifications disabled when Host is empty.
type SMTPConfig struct {
	Host          string   `env:"SMTP_HOST"`
	Port          int      `env:"SMTP_PORT,       default=587"`
	User          string   `env:"SMTP_USER"`
	Password      string   `env:"SMTP_PASSWORD"`
	From          string   `env:"NOTIFY_FROM,     default=noreply@apitoken.local"`
	To            []string `env:"NOTIFY_TO"`
	ExplorerTxURL string   `env:"EXPLORER_TX_URL, default=https://blockchair.com/bitcoin-cash/transaction/"`
}

type DispatcherConfig struct {
	Workers int `env:"TOPUP_WORKERS, default=4"`
	Buffer  int `env:"TOPUP_BUFFER,  default=64"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(logger zerolog.Logger) *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		panic(err)
	}
	return cfg
}

// LoadFrom reads configuration from an arbitrary lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

// Indexer answers balance and UTXO queries. Reads may be stale.
type Indexer interface {
	Balance(ctx context.Context, address string) (domain.Balance, error)
	UTXOs(ctx context.Context, address string) ([]domain.UTXO, error)
	// IsSpent asks the node whether the output has already been consumed.
	IsSpent(ctx context.Context, txHash string, outputIndex uint32) (bool, error)
}

// Broadcaster submits a signed transaction and returns its txid.
type Broadcaster interface {
	Submit(ctx context.Context, signedTxHex string) (string, error)
}

// WalletSigner derives keys from the shared HD seed and builds transactions.
// Implementations are pure functions of the seed and path.
type WalletSigner interface {
	Derive(index uint32) (*domain.KeyMaterial, error)
	NewTx() TxBuilder
}

// TxBuilder assembles and signs a single transaction.
type TxBuilder interface {
	AddInput(utxo domain.UTXO) error
	AddOutput(address string, amount int64) error
	Sign(inputIndex int, key *domain.KeyMaterial, value int64) error
	Hex() (string, error)
}

// PriceOracle returns the current fiat (USD) price of one whole coin.
type PriceOracle interface {
	FiatPrice(ctx context.Context, asset string) (decimal.Decimal, error)
}

// Notifier delivers e-mail. Callers treat failures as best-effort.
type Notifier interface {
	Send(ctx context.Context, email domain.Email) error
}

// SweepLocker serialises sweeps of one HD index across processes.
type SweepLocker interface {
	Acquire(ctx context.Context, hdIndex int) (release func(), err error)
}

package domain

import (
	"errors"
	"time"
)

var (
	// ErrNoUTXOs means the deposit address holds nothing spendable. Retrying
	// within the same call cannot help.
	ErrNoUTXOs = errors.New("no utxos found")
	// ErrInvalidUTXO means an input was spent between fetch and sign, usually
	// because the indexer lags the node.
	ErrInvalidUTXO     = errors.New("invalid utxo detected, wait for indexer to catch up")
	ErrDerivation      = errors.New("hd index must be a non-negative integer below 2^31")
	ErrSweepInProgress = errors.New("sweep already in progress for hd index")
	// ErrTxBuild means the sweep transaction could not be assembled from the
	// indexer's data or the configured target. The same input fails again.
	ErrTxBuild = errors.New("cannot build sweep transaction")
)

// P2PKH size constants used for fee estimation.
const (
	txOverheadBytes = 10
	p2pkhInputBytes = 148
	p2pkhOutputByte = 34
)

// UTXO is a spendable output as reported by the indexer. Never cached
// between sweep attempts.
type UTXO struct {
	TxHash      string
	OutputIndex uint32
	Value       int64
}

// Balance is an address balance in minor units.
type Balance struct {
	Confirmed   int64
	Unconfirmed int64
}

func (b Balance) Total() int64 {
	return b.Confirmed + b.Unconfirmed
}

// KeyMaterial is the derived key for one HD index. PrivateKey is the raw
// secp256k1 scalar and must never be logged.
type KeyMaterial struct {
	Index      uint32
	Path       string
	Address    string
	PrivateKey []byte
}

// SweepJob is the state of one Queue call. It lives only for that call.
type SweepJob struct {
	HDIndex int
	Target  string
	Attempt int
}

// SweepRecord is the audit entry written after a successful top-up sweep.
type SweepRecord struct {
	UserID      string
	HDIndex     int
	TxID        string
	Satoshis    int64
	CreditDelta string
	SweptAt     time.Time
}

// EstimateTxSize returns the serialized size in bytes of a transaction with
// the given number of P2PKH inputs and outputs.
func EstimateTxSize(inputs, outputs int) int64 {
	return int64(txOverheadBytes + p2pkhInputBytes*inputs + p2pkhOutputByte*outputs)
}

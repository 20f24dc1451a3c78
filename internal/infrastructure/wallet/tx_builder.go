package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	btcscript "github.com/btcsuite/btcd/txscript"
	"github.com/gcash/bchd/bchec"
	"github.com/gcash/bchd/chaincfg/chainhash"
	"github.com/gcash/bchd/txscript"
	"github.com/gcash/bchd/wire"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

// sigHashType is what every input is signed with. Bitcoin Cash rejects
// signatures without the fork id bit.
const sigHashType = txscript.SigHashAll | txscript.SigHashForkID

// txBuilder assembles a P2PKH Bitcoin Cash transaction. Inputs must be added
// before any of them is signed.
type txBuilder struct {
	params *chaincfg.Params
	tx     *wire.MsgTx
}

func newTxBuilder(params *chaincfg.Params) *txBuilder {
	return &txBuilder{params: params, tx: wire.NewMsgTx(wire.TxVersion)}
}

// AddInput fails on a malformed tx hash. That is a bad indexer record, not
// a spent output, so it does not wrap domain.ErrInvalidUTXO.
func (b *txBuilder) AddInput(u domain.UTXO) error {
	hash, err := chainhash.NewHashFromStr(u.TxHash)
	if err != nil {
		return fmt.Errorf("tx hash %q: %w", u.TxHash, err)
	}
	b.tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, u.OutputIndex), nil))
	return nil
}

func (b *txBuilder) AddOutput(address string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("output amount must be positive, got %d", amount)
	}
	addr, err := btcutil.DecodeAddress(address, b.params)
	if err != nil {
		return fmt.Errorf("decode address %q: %w", address, err)
	}
	script, err := btcscript.PayToAddrScript(addr)
	if err != nil {
		return fmt.Errorf("output script: %w", err)
	}
	b.tx.AddTxOut(wire.NewTxOut(amount, script))
	return nil
}

// Sign sets the signature script of input i, spending a P2PKH output of
// key's compressed public key worth value satoshis. The digest commits to
// value, so it must be the exact amount of the spent output.
func (b *txBuilder) Sign(i int, key *domain.KeyMaterial, value int64) error {
	if i < 0 || i >= len(b.tx.TxIn) {
		return fmt.Errorf("input %d out of range", i)
	}
	if key == nil || len(key.PrivateKey) == 0 {
		return fmt.Errorf("no key material for input %d", i)
	}
	if value <= 0 {
		return fmt.Errorf("input %d has non-positive value %d", i, value)
	}

	priv, pub := bchec.PrivKeyFromBytes(bchec.S256(), key.PrivateKey)
	prevScript, err := p2pkhScript(pub.SerializeCompressed(), b.params)
	if err != nil {
		return fmt.Errorf("input %d script: %w", i, err)
	}

	sig, err := txscript.SignatureScript(b.tx, i, value, prevScript, sigHashType, priv, true)
	if err != nil {
		return fmt.Errorf("sign input %d: %w", i, err)
	}
	b.tx.TxIn[i].SignatureScript = sig
	return nil
}

func (b *txBuilder) Hex() (string, error) {
	var buf bytes.Buffer
	buf.Grow(b.tx.SerializeSize())
	if err := b.tx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("serialize tx: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func p2pkhScript(pubKey []byte, params *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pubKey), params)
	if err != nil {
		return nil, err
	}
	return btcscript.PayToAddrScript(addr)
}

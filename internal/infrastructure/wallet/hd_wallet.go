// Package wallet derives per-user deposit keys from the shared BIP39 seed and
// builds P2PKH sweep transactions.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"

	"github.com/99minutos/apitoken-system/internal/core/domain"
	"github.com/99minutos/apitoken-system/internal/core/ports"
)

const (
	bip44Purpose uint32 = 44
	// BCHCoinType is the SLIP-0044 coin type of Bitcoin Cash.
	BCHCoinType    uint32 = 245
	defaultAccount uint32 = 0
	externalChain  uint32 = 0
)

var ErrInvalidMnemonic = errors.New("wallet mnemonic is not a valid BIP39 phrase")

type Config struct {
	Mnemonic   string
	Passphrase string
	// Network is mainnet, testnet3 or regtest.
	Network  string
	CoinType uint32
}

// HDWallet implements ports.WalletSigner. The external chain key
// m/44'/coin'/0'/0 is derived once; Derive only walks the last step.
type HDWallet struct {
	params   *chaincfg.Params
	coinType uint32
	external *hdkeychain.ExtendedKey
}

func New(cfg Config) (*HDWallet, error) {
	mnemonic := strings.Join(strings.Fields(cfg.Mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	params, err := NetworkParams(cfg.Network)
	if err != nil {
		return nil, err
	}
	if cfg.CoinType == 0 {
		cfg.CoinType = BCHCoinType
	}

	seed := bip39.NewSeed(mnemonic, cfg.Passphrase)
	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}

	key := master
	for _, step := range []uint32{
		hdkeychain.HardenedKeyStart + bip44Purpose,
		hdkeychain.HardenedKeyStart + cfg.CoinType,
		hdkeychain.HardenedKeyStart + defaultAccount,
		externalChain,
	} {
		key, err = key.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("derive account key: %w", err)
		}
	}

	return &HDWallet{params: params, coinType: cfg.CoinType, external: key}, nil
}

// NetworkParams maps a network name to its chain parameters.
func NetworkParams(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(network) {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown wallet network %q", network)
	}
}

// Derive returns the P2PKH address and private key at m/44'/coin'/0'/0/index.
func (w *HDWallet) Derive(index uint32) (*domain.KeyMaterial, error) {
	if index >= hdkeychain.HardenedKeyStart {
		return nil, fmt.Errorf("index %d is outside the non-hardened range", index)
	}
	child, err := w.external.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	addr, err := child.Address(w.params)
	if err != nil {
		return nil, fmt.Errorf("address of child %d: %w", index, err)
	}
	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("private key of child %d: %w", index, err)
	}
	return &domain.KeyMaterial{
		Index:      index,
		Path:       fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", bip44Purpose, w.coinType, defaultAccount, externalChain, index),
		Address:    addr.EncodeAddress(),
		PrivateKey: priv.Serialize(),
	}, nil
}

func (w *HDWallet) NewTx() ports.TxBuilder {
	return newTxBuilder(w.params)
}

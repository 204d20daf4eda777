// Package keystore derives operator signing keys from a mnemonic or a raw hex key.
package keystore

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/StrathCole/oracle-rounds/pkg/auth"
)

// DefaultHDPath is the standard Ethereum account path.
const DefaultHDPath = "m/44'/60'/0'/0/0"

var (
	// ErrInvalidMnemonic indicates a mnemonic that fails the BIP39 checksum.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	// ErrInvalidKey indicates a private key that cannot be decoded.
	ErrInvalidKey = errors.New("invalid private key")
)

// Key is an operator signing key.
type Key struct {
	private *ecdsa.PrivateKey
	address common.Address
}

// FromMnemonic derives a key from a BIP39 mnemonic along hdPath.
// The path should be in format: m/44'/cointype'/account'/change/index
func FromMnemonic(mnemonic, hdPath string) (*Key, error) {
	if hdPath == "" {
		hdPath = DefaultHDPath
	}
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")
	master, ch := hd.ComputeMastersFromSeed(seed)
	priv, err := hd.DerivePrivateKeyForPath(master, ch, hdPath)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key for path %s: %w", hdPath, err)
	}

	key, err := crypto.ToECDSA(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return newKey(key), nil
}

// FromHex loads a key from its hex encoding, with or without 0x prefix.
func FromHex(hexKey string) (*Key, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return newKey(key), nil
}

func newKey(private *ecdsa.PrivateKey) *Key {
	return &Key{
		private: private,
		address: crypto.PubkeyToAddress(private.PublicKey),
	}
}

// Address returns the operator identity of the key.
func (k *Key) Address() common.Address { return k.address }

// PrivateKey returns the underlying key.
func (k *Key) PrivateKey() *ecdsa.PrivateKey { return k.private }

// Sign signs env under domain.
func (k *Key) Sign(domain auth.Domain, env auth.Envelope) ([]byte, error) {
	return auth.Sign(domain, env, k.private)
}

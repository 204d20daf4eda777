package keystore

import (
	"math/big"
	"testing"
	"time"

	"github.com/cosmos/go-bip39"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/oracle-rounds/pkg/auth"
)

// Well-known development mnemonic (DO NOT use in production).
const testMnemonic = "test test test test test test test test test test test junk"

func TestFromMnemonic_KnownVector(t *testing.T) {
	key, err := FromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), key.Address())
	assert.Equal(t,
		"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		common.Bytes2Hex(crypto.FromECDSA(key.PrivateKey())))
}

func TestFromMnemonic_Paths(t *testing.T) {
	first, err := FromMnemonic(testMnemonic, DefaultHDPath)
	require.NoError(t, err)
	second, err := FromMnemonic(testMnemonic, "m/44'/60'/0'/0/1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Address(), second.Address())

	// Whitespace is normalised
	again, err := FromMnemonic("  test test test test test test test test test test test   junk ", "")
	require.NoError(t, err)
	assert.Equal(t, first.Address(), again.Address())
}

func TestFromMnemonic_Invalid(t *testing.T) {
	_, err := FromMnemonic("test test test", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)

	entropy, err := bip39.NewEntropy(128)
	require.NoError(t, err)
	mnemonic, err := bip39.NewMnemonic(entropy)
	require.NoError(t, err)
	_, err = FromMnemonic(mnemonic, "m/44'/60'/0'/0/x")
	assert.Error(t, err)
}

func TestFromHex(t *testing.T) {
	key, err := FromHex("0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), key.Address())

	_, err = FromHex("zz")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestKey_SignVerifies(t *testing.T) {
	key, err := FromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	domain := auth.Domain{Name: "oracle-rounds", Version: "1", ChainID: big.NewInt(31337)}
	env := auth.Envelope{FeedID: "BTC-USD", RoundID: 1, Answer: big.NewInt(42), ValidUntil: time.Unix(1_700_000_000, 0)}
	sig, err := key.Sign(domain, env)
	require.NoError(t, err)

	verifier, err := auth.NewECDSAAuthenticator(domain)
	require.NoError(t, err)
	signer, err := verifier.Verify(env, sig)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), signer)
}

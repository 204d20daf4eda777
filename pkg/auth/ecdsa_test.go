package auth

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDomain() Domain {
	return Domain{
		Name:             "oracle-rounds",
		Version:          "1",
		ChainID:          big.NewInt(1),
		VerifyingAddress: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
	}
}

func testEnvelope() Envelope {
	return Envelope{
		FeedID:     "BTC-USD",
		RoundID:    7,
		Answer:     big.NewInt(-10_100_000_000),
		ValidUntil: time.Unix(1_700_000_600, 0),
	}
}

func TestECDSAAuthenticator_RoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	expected := crypto.PubkeyToAddress(key.PublicKey)

	a, err := NewECDSAAuthenticator(testDomain())
	require.NoError(t, err)

	sig, err := Sign(testDomain(), testEnvelope(), key)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	assert.GreaterOrEqual(t, sig[64], byte(27))

	got, err := a.Verify(testEnvelope(), sig)
	require.NoError(t, err)
	assert.Equal(t, expected, got)

	// Raw 0/1 recovery ids are accepted as well.
	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	got, err = a.Verify(testEnvelope(), raw)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestECDSAAuthenticator_BindsEnvelopeAndDomain(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	sig, err := Sign(testDomain(), testEnvelope(), key)
	require.NoError(t, err)

	a, err := NewECDSAAuthenticator(testDomain())
	require.NoError(t, err)

	tampered := []func(e *Envelope){
		func(e *Envelope) { e.FeedID = "ETH-USD" },
		func(e *Envelope) { e.RoundID++ },
		func(e *Envelope) { e.Answer = big.NewInt(1) },
		func(e *Envelope) { e.ValidUntil = e.ValidUntil.Add(time.Second) },
	}
	for _, mutate := range tampered {
		env := testEnvelope()
		mutate(&env)
		got, err := a.Verify(env, sig)
		if err == nil {
			assert.NotEqual(t, signer, got)
		}
	}

	other := testDomain()
	other.ChainID = big.NewInt(2)
	b, err := NewECDSAAuthenticator(other)
	require.NoError(t, err)
	got, err := b.Verify(testEnvelope(), sig)
	if err == nil {
		assert.NotEqual(t, signer, got)
	}
}

func TestECDSAAuthenticator_RejectsMalformed(t *testing.T) {
	a, err := NewECDSAAuthenticator(testDomain())
	require.NoError(t, err)

	_, err = a.Verify(testEnvelope(), []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidSignature)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := Sign(testDomain(), testEnvelope(), key)
	require.NoError(t, err)

	// Flip s to the upper half of the curve order.
	n := crypto.S256().Params().N
	s := new(big.Int).SetBytes(sig[32:64])
	highS := new(big.Int).Sub(n, s)
	malleable := append([]byte(nil), sig...)
	copy(malleable[32:64], common.LeftPadBytes(highS.Bytes(), 32))
	malleable[64] ^= 1

	_, err = a.Verify(testEnvelope(), malleable)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestDomain_Validate(t *testing.T) {
	d := testDomain()
	d.Name = ""
	_, err := NewECDSAAuthenticator(d)
	require.ErrorIs(t, err, ErrInvalidDomain)

	d = testDomain()
	d.ChainID = nil
	_, err = NewECDSAAuthenticator(d)
	require.ErrorIs(t, err, ErrInvalidDomain)
}

func TestDomain_DigestRejectsIncompleteEnvelope(t *testing.T) {
	env := testEnvelope()
	env.Answer = nil
	_, err := testDomain().Digest(env)
	require.ErrorIs(t, err, ErrInvalidEnvelope)

	env = testEnvelope()
	env.ValidUntil = time.Time{}
	_, err = testDomain().Digest(env)
	require.ErrorIs(t, err, ErrInvalidEnvelope)
}

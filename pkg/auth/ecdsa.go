package auth

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the size of an [R || S || V] signature.
const SignatureLength = crypto.SignatureLength

// ECDSAAuthenticator recovers secp256k1 signers of EIP-712 submission digests.
type ECDSAAuthenticator struct {
	domain Domain
}

// NewECDSAAuthenticator returns an authenticator bound to domain.
func NewECDSAAuthenticator(domain Domain) (*ECDSAAuthenticator, error) {
	if err := domain.Validate(); err != nil {
		return nil, err
	}
	return &ECDSAAuthenticator{domain: domain}, nil
}

// Domain returns the signing domain.
func (a *ECDSAAuthenticator) Domain() Domain {
	return a.domain
}

// Verify recovers the address that signed env. V may be 0/1 or 27/28; high-s signatures are rejected.
func (a *ECDSAAuthenticator) Verify(env Envelope, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(signature))
	}

	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[crypto.RecoveryIDOffset], r, s, true) {
		return common.Address{}, fmt.Errorf("%w: non-canonical values", ErrInvalidSignature)
	}

	digest, err := a.domain.Digest(env)
	if err != nil {
		return common.Address{}, err
	}

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Sign signs env under domain with key and returns a signature with V in {27, 28}.
func Sign(domain Domain, env Envelope, key *ecdsa.PrivateKey) ([]byte, error) {
	digest, err := domain.Digest(env)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("sign envelope: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

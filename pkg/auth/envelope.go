package auth

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Envelope is the signed unit of a submission.
type Envelope struct {
	FeedID     string
	RoundID    uint64
	Answer     *big.Int
	ValidUntil time.Time
}

// Domain separates signatures between deployments.
type Domain struct {
	Name             string
	Version          string
	ChainID          *big.Int
	VerifyingAddress common.Address
}

// Validate checks that the domain carries enough to be unambiguous.
func (d Domain) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDomain)
	}
	if d.ChainID == nil || d.ChainID.Sign() <= 0 {
		return fmt.Errorf("%w: chain id must be positive", ErrInvalidDomain)
	}
	return nil
}

var submissionTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Submission": {
		{Name: "feedId", Type: "string"},
		{Name: "roundId", Type: "uint256"},
		{Name: "answer", Type: "int256"},
		{Name: "validUntil", Type: "uint256"},
	},
}

// TypedData returns the EIP-712 representation of env under domain d.
func (d Domain) TypedData(env Envelope) (apitypes.TypedData, error) {
	if env.Answer == nil {
		return apitypes.TypedData{}, fmt.Errorf("%w: missing answer", ErrInvalidEnvelope)
	}
	if env.ValidUntil.Unix() < 0 {
		return apitypes.TypedData{}, fmt.Errorf("%w: missing valid-until", ErrInvalidEnvelope)
	}

	return apitypes.TypedData{
		Types:       submissionTypes,
		PrimaryType: "Submission",
		Domain: apitypes.TypedDataDomain{
			Name:              d.Name,
			Version:           d.Version,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(d.ChainID)),
			VerifyingContract: d.VerifyingAddress.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"feedId":     env.FeedID,
			"roundId":    (*math.HexOrDecimal256)(new(big.Int).SetUint64(env.RoundID)),
			"answer":     (*math.HexOrDecimal256)(new(big.Int).Set(env.Answer)),
			"validUntil": (*math.HexOrDecimal256)(big.NewInt(env.ValidUntil.Unix())),
		},
	}, nil
}

// Digest returns the 32-byte EIP-712 hash that operators sign.
func (d Domain) Digest(env Envelope) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	td, err := d.TypedData(env)
	if err != nil {
		return nil, err
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return hash, nil
}

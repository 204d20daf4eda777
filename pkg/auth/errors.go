// Package auth binds submission envelopes to a signing domain and recovers reporter identities.
package auth

import "errors"

var (
	// ErrInvalidEnvelope indicates an envelope that cannot be encoded for signing.
	ErrInvalidEnvelope = errors.New("invalid envelope")
	// ErrInvalidSignature indicates a malformed or non-canonical signature.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrInvalidDomain indicates a domain without name or chain id.
	ErrInvalidDomain = errors.New("invalid signing domain")
)

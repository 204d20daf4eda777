// Package config provides configuration loading and validation for oracle-rounds.
package config

import "errors"

var (
	// ErrTLSConfigIncomplete indicates that TLS config is incomplete.
	ErrTLSConfigIncomplete = errors.New("TLS cert and key must be specified when TLS is enabled")
	// ErrTLSCertNotFound indicates that the TLS cert file was not found.
	ErrTLSCertNotFound = errors.New("TLS cert file not found")
	// ErrTLSKeyNotFound indicates that the TLS key file was not found.
	ErrTLSKeyNotFound = errors.New("TLS key file not found")
	// ErrAdminTokenTooShort indicates a configured admin token that is trivially guessable.
	ErrAdminTokenTooShort = errors.New("admin_token must be at least 16 characters")
	// ErrInvalidRateLimit indicates a non-positive rate or burst.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
	// ErrDomainNameRequired indicates that domain.name must be specified.
	ErrDomainNameRequired = errors.New("domain.name must be specified")
	// ErrInvalidChainID indicates an invalid chain ID.
	ErrInvalidChainID = errors.New("invalid chain id")
	// ErrInvalidAddress indicates a malformed 0x address.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNoFeedsConfigured indicates that no feeds are configured.
	ErrNoFeedsConfigured = errors.New("at least one feed must be configured")
	// ErrDuplicateFeed indicates two feeds with the same id.
	ErrDuplicateFeed = errors.New("duplicate feed id")
	// ErrInvalidBound indicates a feed bound that is not an integer.
	ErrInvalidBound = errors.New("invalid feed bound")
	// ErrRedisAddrRequired indicates that events.redis.addr must be specified.
	ErrRedisAddrRequired = errors.New("events.redis.addr must be specified")
	// ErrMnemonicEnvNotSet indicates that the mnemonic environment variable is not set.
	ErrMnemonicEnvNotSet = errors.New("mnemonic environment variable not set")
	// ErrNoSignerConfigured indicates that no signing key is configured.
	ErrNoSignerConfigured = errors.New("no mnemonic or private key configured")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
)

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	if err := validateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateDomainConfig(&cfg.Domain); err != nil {
		return fmt.Errorf("domain config: %w", err)
	}

	if len(cfg.Feeds) == 0 {
		return ErrNoFeedsConfigured
	}
	seen := make(map[string]struct{}, len(cfg.Feeds))
	for i, f := range cfg.Feeds {
		if _, ok := seen[f.ID]; ok {
			return fmt.Errorf("feed %d: %w: %s", i, ErrDuplicateFeed, f.ID)
		}
		seen[f.ID] = struct{}{}

		fc, operators, err := f.ToFeed()
		if err != nil {
			return fmt.Errorf("feed %d (%s): %w", i, f.ID, err)
		}
		if err := fc.Validate(len(operators)); err != nil {
			return fmt.Errorf("feed %d (%s): %w", i, f.ID, err)
		}
	}

	if cfg.Events.Redis.Enabled && cfg.Events.Redis.Addr == "" {
		return ErrRedisAddrRequired
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateServerConfig(cfg *ServerConfig) error {
	// Validate TLS config
	if cfg.HTTP.TLS.Enabled {
		if cfg.HTTP.TLS.Cert == "" || cfg.HTTP.TLS.Key == "" {
			return ErrTLSConfigIncomplete
		}
		if _, err := os.Stat(cfg.HTTP.TLS.Cert); err != nil {
			return fmt.Errorf("%w: %s", ErrTLSCertNotFound, cfg.HTTP.TLS.Cert)
		}
		if _, err := os.Stat(cfg.HTTP.TLS.Key); err != nil {
			return fmt.Errorf("%w: %s", ErrTLSKeyNotFound, cfg.HTTP.TLS.Key)
		}
	}

	// An empty admin token disables the admin surface.
	if cfg.AdminToken != "" && len(cfg.AdminToken) < 16 {
		return ErrAdminTokenTooShort
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.RequestsPerSecond <= 0 || cfg.RateLimit.Burst <= 0) {
		return fmt.Errorf("%w: rate %.2f, burst %d", ErrInvalidRateLimit, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	return nil
}

func validateDomainConfig(cfg *DomainConfig) error {
	if cfg.Name == "" {
		return ErrDomainNameRequired
	}
	if cfg.VerifyingAddress != "" && !common.IsHexAddress(cfg.VerifyingAddress) {
		return fmt.Errorf("%w: verifying_address %q", ErrInvalidAddress, cfg.VerifyingAddress)
	}
	_, err := cfg.ToDomain()
	return err
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	// Validate level
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, l := range validLevels {
		if strings.ToLower(cfg.Level) == l {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLogLevel, cfg.Level, strings.Join(validLevels, ", "))
	}

	// Validate format
	formatValid := strings.ToLower(cfg.Format) == "json" || strings.ToLower(cfg.Format) == "text"
	if !formatValid {
		return fmt.Errorf("%w: %s (must be 'json' or 'text')", ErrInvalidLogFormat, cfg.Format)
	}

	return nil
}

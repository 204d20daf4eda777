package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/StrathCole/oracle-rounds/pkg/auth"
	"github.com/StrathCole/oracle-rounds/pkg/feeder/keystore"
	"github.com/StrathCole/oracle-rounds/pkg/numeric"
	"github.com/StrathCole/oracle-rounds/pkg/server/events"
	"github.com/StrathCole/oracle-rounds/pkg/server/feed"
)

// Load loads configuration from YAML file and environment variables.
func Load(path string) (*Config, error) {
	// Validate and sanitize path
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath) // #nosec G304 -- Path sanitized with filepath.Clean and filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML after expanding ${VAR} references and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.HTTP.Addr == "" {
		cfg.Server.HTTP.Addr = ":8080"
	}
	if cfg.Server.HTTP.ReadTimeout == 0 {
		cfg.Server.HTTP.ReadTimeout = Duration(15 * 1e9)
	}
	if cfg.Server.HTTP.WriteTimeout == 0 {
		cfg.Server.HTTP.WriteTimeout = Duration(15 * 1e9)
	}
	if cfg.Server.HTTP.ShutdownTimeout == 0 {
		cfg.Server.HTTP.ShutdownTimeout = Duration(10 * 1e9)
	}
	if cfg.Server.WebSocket.Path == "" {
		cfg.Server.WebSocket.Path = "/ws"
	}
	if cfg.Server.RateLimit.Enabled {
		if cfg.Server.RateLimit.RequestsPerSecond == 0 {
			cfg.Server.RateLimit.RequestsPerSecond = 10
		}
		if cfg.Server.RateLimit.Burst == 0 {
			cfg.Server.RateLimit.Burst = 20
		}
	}

	// Domain defaults
	if cfg.Domain.Version == "" {
		cfg.Domain.Version = "1"
	}
	if cfg.Domain.ChainID == "" {
		cfg.Domain.ChainID = "1"
	}

	// Event defaults
	if cfg.Events.Redis.Channel == "" {
		cfg.Events.Redis.Channel = "oracle-rounds"
	}
	if cfg.Events.Redis.QueueSize == 0 {
		cfg.Events.Redis.QueueSize = 1024
	}

	// Signer defaults
	if cfg.Signer.HDPath == "" {
		cfg.Signer.HDPath = keystore.DefaultHDPath
	}

	// Metrics defaults
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// ToDomain converts the signing domain section.
func (d DomainConfig) ToDomain() (auth.Domain, error) {
	chainID, ok := new(big.Int).SetString(d.ChainID, 10)
	if !ok || chainID.Sign() <= 0 {
		return auth.Domain{}, fmt.Errorf("%w: %q", ErrInvalidChainID, d.ChainID)
	}
	domain := auth.Domain{
		Name:    d.Name,
		Version: d.Version,
		ChainID: chainID,
	}
	if d.VerifyingAddress != "" {
		if !common.IsHexAddress(d.VerifyingAddress) {
			return auth.Domain{}, fmt.Errorf("%w: verifying_address %q", ErrInvalidAddress, d.VerifyingAddress)
		}
		domain.VerifyingAddress = common.HexToAddress(d.VerifyingAddress)
	}
	return domain, nil
}

// ToFeed converts a feed section to the engine's configuration and roster.
func (f FeedConfig) ToFeed() (feed.Config, []common.Address, error) {
	minValue, err := numeric.ParseInteger(f.MinValue)
	if err != nil {
		return feed.Config{}, nil, fmt.Errorf("%w: min_value: %w", ErrInvalidBound, err)
	}
	maxValue, err := numeric.ParseInteger(f.MaxValue)
	if err != nil {
		return feed.Config{}, nil, fmt.Errorf("%w: max_value: %w", ErrInvalidBound, err)
	}

	operators := make([]common.Address, 0, len(f.Operators))
	for i, op := range f.Operators {
		if !common.IsHexAddress(op) {
			return feed.Config{}, nil, fmt.Errorf("%w: operators[%d] %q", ErrInvalidAddress, i, op)
		}
		operators = append(operators, common.HexToAddress(op))
	}

	return feed.Config{
		ID:                    f.ID,
		Decimals:              f.Decimals,
		MinSubmissions:        f.MinSubmissions,
		MaxSubmissions:        f.MaxSubmissions,
		Heartbeat:             f.Heartbeat.ToDuration(),
		DeviationThresholdBps: f.DeviationThresholdBps,
		Timeout:               f.Timeout.ToDuration(),
		MinValue:              minValue,
		MaxValue:              maxValue,
		Description:           f.Description,
	}, operators, nil
}

// ToRedis converts the Redis section for the event publisher.
func (r RedisConfig) ToRedis() events.RedisConfig {
	return events.RedisConfig{
		Addr:      r.Addr,
		Password:  r.Password,
		DB:        r.DB,
		Channel:   r.Channel,
		QueueSize: r.QueueSize,
	}
}

// LoadKey resolves the configured signing key. A hex key in PrivateKeyEnv wins over a mnemonic.
func (s SignerConfig) LoadKey() (*keystore.Key, error) {
	if s.PrivateKeyEnv != "" {
		if hexKey := os.Getenv(s.PrivateKeyEnv); hexKey != "" {
			return keystore.FromHex(hexKey)
		}
	}
	mnemonic := s.Mnemonic
	if s.MnemonicEnv != "" {
		mnemonic = os.Getenv(s.MnemonicEnv)
		if mnemonic == "" {
			return nil, fmt.Errorf("%w: %s", ErrMnemonicEnvNotSet, s.MnemonicEnv)
		}
	}
	if mnemonic == "" {
		return nil, ErrNoSignerConfigured
	}
	return keystore.FromMnemonic(mnemonic, s.HDPath)
}

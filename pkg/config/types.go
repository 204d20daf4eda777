package config

import (
	"encoding/json"
	"time"
)

// Config is the root configuration structure
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Domain  DomainConfig  `yaml:"domain"`
	Feeds   []FeedConfig  `yaml:"feeds"`
	Events  EventsConfig  `yaml:"events"`
	Signer  SignerConfig  `yaml:"signer"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the round engine's network surface
type ServerConfig struct {
	HTTP       HTTPConfig      `yaml:"http"`
	WebSocket  WSConfig        `yaml:"websocket"`
	AdminToken string          `yaml:"admin_token"` // Bearer token for /v1/admin and resolve
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// HTTPConfig configures the HTTP server
type HTTPConfig struct {
	Addr            string    `yaml:"addr"`
	TLS             TLSConfig `yaml:"tls"`
	ReadTimeout     Duration  `yaml:"read_timeout"`
	WriteTimeout    Duration  `yaml:"write_timeout"`
	ShutdownTimeout Duration  `yaml:"shutdown_timeout"`
}

// WSConfig configures the WebSocket event stream
type WSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TLSConfig holds TLS certificate configuration
type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

// RateLimitConfig limits submission requests per client address
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// DomainConfig is the signing domain operators sign submissions under
type DomainConfig struct {
	Name             string `yaml:"name"`
	Version          string `yaml:"version"`
	ChainID          string `yaml:"chain_id"`          // Decimal string
	VerifyingAddress string `yaml:"verifying_address"` // Optional 0x address
}

// FeedConfig configures one feed and its initial operators. The admin API accepts the same shape as JSON.
type FeedConfig struct {
	ID                    string   `yaml:"id" json:"id"`
	Description           string   `yaml:"description" json:"description"`
	Decimals              uint8    `yaml:"decimals" json:"decimals"`
	MinSubmissions        int      `yaml:"min_submissions" json:"min_submissions"`
	MaxSubmissions        int      `yaml:"max_submissions" json:"max_submissions"`
	Heartbeat             Duration `yaml:"heartbeat" json:"heartbeat"`         // 0 disables heartbeat gating
	DeviationThresholdBps uint32   `yaml:"deviation_bps" json:"deviation_bps"` // 0 disables deviation gating
	Timeout               Duration `yaml:"timeout" json:"timeout"`             // 0 disables round timeouts
	MinValue              string   `yaml:"min_value" json:"min_value"`         // Integer in base units
	MaxValue              string   `yaml:"max_value" json:"max_value"`         // Integer in base units
	Operators             []string `yaml:"operators" json:"operators"`
}

// EventsConfig configures where committed events are published
type EventsConfig struct {
	Log   bool        `yaml:"log"`
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis pub/sub event publisher
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Channel   string `yaml:"channel"`
	QueueSize int    `yaml:"queue_size"`
}

// SignerConfig configures the operator signing key used by sign-submission
type SignerConfig struct {
	Mnemonic      string `yaml:"mnemonic"`        // BIP39 mnemonic (or use MnemonicEnv)
	MnemonicEnv   string `yaml:"mnemonic_env"`    // Environment variable for mnemonic
	PrivateKeyEnv string `yaml:"private_key_env"` // Environment variable for a hex key
	HDPath        string `yaml:"hd_path"`         // Default m/44'/60'/0'/0/0
}

// MetricsConfig configures Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Duration is a wrapper around time.Duration for YAML parsing
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalJSON accepts a duration string such as "90s"
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// ToDuration converts Duration to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}

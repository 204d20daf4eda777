package feed

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/oracle-rounds/pkg/numeric"
)

func validConfig() Config {
	bound, _ := new(big.Int).SetString("100000000000000000000", 10)
	return Config{
		ID:                    "BTC-USD",
		Decimals:              8,
		MinSubmissions:        2,
		MaxSubmissions:        3,
		Heartbeat:             time.Hour,
		DeviationThresholdBps: 50,
		Timeout:               5 * time.Minute,
		MinValue:              new(big.Int).Neg(bound),
		MaxValue:              bound,
		Description:           "BTC / USD",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		operators int
		expected  error
	}{
		{name: "valid", mutate: func(c *Config) {}, operators: 3},
		{name: "empty id", mutate: func(c *Config) { c.ID = "" }, operators: 3, expected: ErrInvalidFeedID},
		{name: "id with slash", mutate: func(c *Config) { c.ID = "BTC/USD" }, operators: 3, expected: ErrInvalidFeedID},
		{name: "zero decimals", mutate: func(c *Config) { c.Decimals = 0 }, operators: 3, expected: ErrInvalidDecimals},
		{name: "decimals 19", mutate: func(c *Config) { c.Decimals = 19 }, operators: 3, expected: ErrInvalidDecimals},
		{name: "decimals 18", mutate: func(c *Config) { c.Decimals = 18 }, operators: 3},
		{name: "zero quorum", mutate: func(c *Config) { c.MinSubmissions = 0 }, operators: 3, expected: ErrInvalidMinSubmissions},
		{name: "capacity below quorum", mutate: func(c *Config) { c.MaxSubmissions = 1 }, operators: 3, expected: ErrInvalidMaxSubmissions},
		{name: "capacity above operators", mutate: func(c *Config) {}, operators: 2, expected: ErrInvalidMaxSubmissions},
		{name: "capacity above limit", mutate: func(c *Config) { c.MaxSubmissions = 32 }, operators: 40, expected: ErrInvalidMaxSubmissions},
		{name: "no trigger", mutate: func(c *Config) { c.Heartbeat = 0; c.DeviationThresholdBps = 0 }, operators: 3, expected: ErrNoTrigger},
		{name: "heartbeat only", mutate: func(c *Config) { c.DeviationThresholdBps = 0 }, operators: 3},
		{name: "deviation only", mutate: func(c *Config) { c.Heartbeat = 0 }, operators: 3},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, operators: 3, expected: ErrInvalidInterval},
		{name: "missing bound", mutate: func(c *Config) { c.MinValue = nil }, operators: 3, expected: ErrInvalidBounds},
		{name: "inverted bounds", mutate: func(c *Config) { c.MinValue, c.MaxValue = c.MaxValue, c.MinValue }, operators: 3, expected: ErrInvalidBounds},
		{name: "equal bounds", mutate: func(c *Config) { c.MinValue = c.MaxValue }, operators: 3, expected: ErrInvalidBounds},
		{name: "min sentinel", mutate: func(c *Config) { c.MinValue = numeric.MinInt256 }, operators: 3, expected: ErrInvalidBounds},
		{name: "max sentinel", mutate: func(c *Config) { c.MaxValue = numeric.MaxInt256 }, operators: 3, expected: ErrInvalidBounds},
		{name: "description at limit", mutate: func(c *Config) { c.Description = strings.Repeat("x", 100) }, operators: 3},
		{name: "description too long", mutate: func(c *Config) { c.Description = strings.Repeat("x", 101) }, operators: 3, expected: ErrDescriptionTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate(tt.operators)
			if tt.expected == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestConfig_ValidateUpdate(t *testing.T) {
	prev := validConfig()

	next := prev.Clone()
	next.Decimals = 6
	require.ErrorIs(t, next.ValidateUpdate(prev, 3), ErrDecimalsImmutable)

	next = prev.Clone()
	next.ID = "ETH-USD"
	require.ErrorIs(t, next.ValidateUpdate(prev, 3), ErrFeedIDImmutable)

	next = prev.Clone()
	next.MinSubmissions = 3
	next.Timeout = 0
	require.NoError(t, next.ValidateUpdate(prev, 3))
}

func TestConfig_InBounds(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.InBounds(cfg.MinValue))
	assert.True(t, cfg.InBounds(cfg.MaxValue))
	assert.False(t, cfg.InBounds(new(big.Int).Add(cfg.MaxValue, big.NewInt(1))))
	assert.False(t, cfg.InBounds(new(big.Int).Sub(cfg.MinValue, big.NewInt(1))))
	assert.False(t, cfg.InBounds(nil))
}

func TestConfig_CloneIsDeep(t *testing.T) {
	cfg := validConfig()
	cp := cfg.Clone()
	cp.MaxValue.SetInt64(5)
	assert.NotEqual(t, "5", cfg.MaxValue.String())
}

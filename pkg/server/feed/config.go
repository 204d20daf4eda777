package feed

import (
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/StrathCole/oracle-rounds/pkg/numeric"
)

const (
	// MaxOperators is the roster capacity; one bit per slot in a uint32 dedup bitmap.
	MaxOperators = 31
	// MaxDescriptionLength bounds Config.Description.
	MaxDescriptionLength = 100
	// MinDecimals and MaxDecimals bound Config.Decimals.
	MinDecimals = 1
	MaxDecimals = 18
)

var feedIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,32}$`)

// Config is the per-feed configuration.
type Config struct {
	ID                    string
	Decimals              uint8
	MinSubmissions        int
	MaxSubmissions        int
	Heartbeat             time.Duration // 0 disables heartbeat gating
	DeviationThresholdBps uint32        // 0 disables deviation gating
	Timeout               time.Duration // 0 disables round timeouts
	MinValue              *big.Int
	MaxValue              *big.Int
	Description           string
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	if c.MinValue != nil {
		out.MinValue = new(big.Int).Set(c.MinValue)
	}
	if c.MaxValue != nil {
		out.MaxValue = new(big.Int).Set(c.MaxValue)
	}
	return out
}

// HeartbeatEnabled reports whether elapsed time can open a round.
func (c Config) HeartbeatEnabled() bool { return c.Heartbeat > 0 }

// DeviationEnabled reports whether price movement can open a round.
func (c Config) DeviationEnabled() bool { return c.DeviationThresholdBps > 0 }

// TimeoutEnabled reports whether open rounds expire.
func (c Config) TimeoutEnabled() bool { return c.Timeout > 0 }

// InBounds reports whether v lies in [MinValue, MaxValue].
func (c Config) InBounds(v *big.Int) bool {
	return v != nil && v.Cmp(c.MinValue) >= 0 && v.Cmp(c.MaxValue) <= 0
}

// Validate checks c against the invariants for a feed with operatorCount operators.
func (c Config) Validate(operatorCount int) error {
	if !feedIDPattern.MatchString(c.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidFeedID, c.ID)
	}
	if c.Decimals < MinDecimals || c.Decimals > MaxDecimals {
		return fmt.Errorf("%w: got %d", ErrInvalidDecimals, c.Decimals)
	}
	if c.MinSubmissions < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidMinSubmissions, c.MinSubmissions)
	}
	if c.MaxSubmissions < c.MinSubmissions {
		return fmt.Errorf("%w: %d is below min submissions %d", ErrInvalidMaxSubmissions, c.MaxSubmissions, c.MinSubmissions)
	}
	if c.MaxSubmissions > MaxOperators {
		return fmt.Errorf("%w: %d exceeds limit %d", ErrInvalidMaxSubmissions, c.MaxSubmissions, MaxOperators)
	}
	if c.MaxSubmissions > operatorCount {
		return fmt.Errorf("%w: %d exceeds operator count %d", ErrInvalidMaxSubmissions, c.MaxSubmissions, operatorCount)
	}
	if c.Heartbeat < 0 || c.Timeout < 0 {
		return ErrInvalidInterval
	}
	if !c.HeartbeatEnabled() && !c.DeviationEnabled() {
		return ErrNoTrigger
	}
	if err := c.validateBounds(); err != nil {
		return err
	}
	if len(c.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: %d > %d", ErrDescriptionTooLong, len(c.Description), MaxDescriptionLength)
	}
	return nil
}

// ValidateUpdate checks c as a replacement for prev.
func (c Config) ValidateUpdate(prev Config, operatorCount int) error {
	if c.ID != prev.ID {
		return ErrFeedIDImmutable
	}
	if c.Decimals != prev.Decimals {
		return fmt.Errorf("%w: %d -> %d", ErrDecimalsImmutable, prev.Decimals, c.Decimals)
	}
	return c.Validate(operatorCount)
}

func (c Config) validateBounds() error {
	if c.MinValue == nil || c.MaxValue == nil {
		return fmt.Errorf("%w: min and max value are required", ErrInvalidBounds)
	}
	if c.MinValue.Cmp(c.MaxValue) >= 0 {
		return fmt.Errorf("%w: min %s must be below max %s", ErrInvalidBounds, c.MinValue, c.MaxValue)
	}
	// The int256 extremes are reserved sentinels.
	if c.MinValue.Cmp(numeric.MinInt256) <= 0 || c.MaxValue.Cmp(numeric.MaxInt256) >= 0 {
		return fmt.Errorf("%w: bounds must exclude the int256 extremes", ErrInvalidBounds)
	}
	return nil
}

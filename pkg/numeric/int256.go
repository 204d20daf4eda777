package numeric

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"
)

var (
	// MinInt256 is -2^255, the most negative signed 256-bit value.
	MinInt256 = new(big.Int).Neg(math.BigPow(2, 255))
	// MaxInt256 is 2^255 - 1.
	MaxInt256 = new(big.Int).Sub(math.BigPow(2, 255), big.NewInt(1))
)

// InInt256Range reports whether v is representable as a signed 256-bit integer.
func InInt256Range(v *big.Int) bool {
	if v == nil {
		return false
	}
	return v.Cmp(MinInt256) >= 0 && v.Cmp(MaxInt256) <= 0
}

// IsSentinel reports whether v is one of the two int256 extremes.
func IsSentinel(v *big.Int) bool {
	return v != nil && (v.Cmp(MinInt256) == 0 || v.Cmp(MaxInt256) == 0)
}

// ParseInteger parses a base-10 integer, accepting exponent notation such as "-1e20".
func ParseInteger(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if v, ok := new(big.Int).SetString(s, 10); ok {
		if !InInt256Range(v) {
			return nil, fmt.Errorf("%w: %s", ErrOutOfRange, s)
		}
		return v, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("%w: %s", ErrNotInteger, s)
	}
	v := d.BigInt()
	if !InInt256Range(v) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, s)
	}
	return v, nil
}

// Format renders a raw fixed-point value with the given number of decimals.
func Format(value *big.Int, decimals uint8) string {
	if value == nil {
		return ""
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}

// Float64 returns an approximate float of a fixed-point value, for gauges and display only.
func Float64(value *big.Int, decimals uint8) float64 {
	if value == nil {
		return 0
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).InexactFloat64()
}

// Scale converts a human-readable decimal such as "101.25" into base units with the given
// number of decimals. Digits beyond the feed precision are rejected, not rounded.
func Scale(s string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", ErrNotInteger, s, decimals)
	}
	v := scaled.BigInt()
	if !InInt256Range(v) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, s)
	}
	return v, nil
}

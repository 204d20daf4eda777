package numeric

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviates(t *testing.T) {
	tests := []struct {
		name      string
		last      int64
		proposed  int64
		threshold uint32
		expected  bool
	}{
		{name: "exactly at threshold", last: 10000, proposed: 10050, threshold: 50, expected: true},
		{name: "just below threshold", last: 10000, proposed: 10049, threshold: 50, expected: false},
		{name: "downward at threshold", last: 10000, proposed: 9950, threshold: 50, expected: true},
		{name: "negative last", last: -10000, proposed: -10100, threshold: 100, expected: true},
		{name: "negative last below", last: -10000, proposed: -10099, threshold: 100, expected: false},
		{name: "sign flip", last: 100, proposed: -100, threshold: 10000, expected: true},
		{name: "zero last nonzero proposal", last: 0, proposed: 1, threshold: 10000, expected: true},
		{name: "zero last zero proposal", last: 0, proposed: 0, threshold: 1, expected: false},
		{name: "unchanged", last: 500, proposed: 500, threshold: 1, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deviates(big.NewInt(tt.last), big.NewInt(tt.proposed), tt.threshold)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDeviationBps_FullRange(t *testing.T) {
	// No overflow at the int256 extremes: MaxInt256 vs MinInt256 is just under 20000 bps.
	got := DeviationBps(MinInt256, MaxInt256)
	assert.Equal(t, "19999", got.String())

	got = DeviationBps(MaxInt256, MinInt256)
	assert.Equal(t, "20000", got.String())
}

func TestParseInteger(t *testing.T) {
	v, err := ParseInteger("-1e20")
	assert.NoError(t, err)
	assert.Equal(t, "-100000000000000000000", v.String())

	v, err = ParseInteger("12345")
	assert.NoError(t, err)
	assert.Equal(t, "12345", v.String())

	_, err = ParseInteger("1.5")
	assert.ErrorIs(t, err, ErrNotInteger)

	_, err = ParseInteger("1e80")
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = ParseInteger("abc")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "101", Format(big.NewInt(10_100_000_000), 8))
	assert.Equal(t, "-0.5", Format(big.NewInt(-50), 2))
	assert.Equal(t, "", Format(nil, 8))
}

func TestScale(t *testing.T) {
	v, err := Scale("101.25", 8)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(10_125_000_000), v)

	v, err = Scale("-0.5", 2)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(-50), v)

	_, err = Scale("1.005", 2)
	assert.ErrorIs(t, err, ErrNotInteger)

	_, err = Scale("1e80", 0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Scale("ten", 8)
	assert.Error(t, err)
}

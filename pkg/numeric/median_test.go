package numeric

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		values   []*big.Int
		expected int64
	}{
		{name: "single", values: ints(42), expected: 42},
		{name: "odd unsorted", values: ints(102, 100, 101), expected: 101},
		{name: "even positive rounds half up", values: ints(100, 101), expected: 101},
		{name: "even positive exact", values: ints(100, 102), expected: 101},
		{name: "even with zero", values: ints(0, 1), expected: 1},
		{name: "even negative rounds magnitude up", values: ints(-100, -101), expected: -101},
		{name: "even negative exact", values: ints(-100, -102), expected: -101},
		{name: "mixed truncates toward zero", values: ints(-3, 4), expected: 0},
		{name: "mixed negative sum truncates toward zero", values: ints(-4, 1), expected: -1},
		{name: "four values", values: ints(5, 1, 3, 2), expected: 3},
		{name: "odd with negatives", values: ints(-5, 7, -1), expected: -1},
		{name: "duplicates", values: ints(7, 7, 7, 7), expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Median(tt.values)
			require.NoError(t, err)
			assert.Equal(t, big.NewInt(tt.expected).String(), got.String())
		})
	}
}

func TestMedian_Empty(t *testing.T) {
	_, err := Median(nil)
	require.ErrorIs(t, err, ErrNoValues)
}

func TestMedian_DoesNotReorderInput(t *testing.T) {
	values := ints(3, 1, 2)
	_, err := Median(values)
	require.NoError(t, err)
	assert.Equal(t, "3", values[0].String())
	assert.Equal(t, "1", values[1].String())
}

func TestMedian_ScaledPrices(t *testing.T) {
	scale := big.NewInt(100_000_000)
	mul := func(v int64) *big.Int { return new(big.Int).Mul(big.NewInt(v), scale) }

	got, err := Median([]*big.Int{mul(100), mul(102), mul(101)})
	require.NoError(t, err)
	assert.Equal(t, mul(101).String(), got.String())

	got, err = Median([]*big.Int{mul(100), mul(102)})
	require.NoError(t, err)
	assert.Equal(t, mul(101).String(), got.String())
}

func TestAverage_Extremes(t *testing.T) {
	minPlusOne := new(big.Int).Add(MinInt256, big.NewInt(1))

	// |MinInt256| + |MinInt256+1| + 1 = 2^256, halved = 2^255
	assert.Equal(t, MinInt256.String(), Average(MinInt256, minPlusOne).String())
	assert.Equal(t, MinInt256.String(), Average(MinInt256, MinInt256).String())

	assert.Equal(t, MaxInt256.String(), Average(MaxInt256, MaxInt256).String())

	maxMinusOne := new(big.Int).Sub(MaxInt256, big.NewInt(1))
	assert.Equal(t, MaxInt256.String(), Average(MaxInt256, maxMinusOne).String())

	// MinInt256 + MaxInt256 = -1, truncated toward zero
	assert.Equal(t, "0", Average(MinInt256, MaxInt256).String())
}

func TestMedian_OrderIndependent(t *testing.T) {
	base := ints(-7, 3, 11, 0, 5, -2)
	expected, err := Median(base)
	require.NoError(t, err)

	perms := [][]int{
		{0, 1, 2, 3, 4, 5},
		{5, 4, 3, 2, 1, 0},
		{2, 0, 5, 1, 3, 4},
		{3, 5, 1, 4, 0, 2},
	}
	for _, p := range perms {
		shuffled := make([]*big.Int, len(p))
		for i, idx := range p {
			shuffled[i] = base[idx]
		}
		got, err := Median(shuffled)
		require.NoError(t, err)
		assert.Equal(t, expected.String(), got.String())
	}
}

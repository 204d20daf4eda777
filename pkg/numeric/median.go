package numeric

import (
	"math/big"
	"sort"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Median returns the median of values. The input slice is not modified.
// For an even count the two middle values are combined with Average.
func Median(values []*big.Int) (*big.Int, error) {
	n := len(values)
	if n == 0 {
		return nil, ErrNoValues
	}

	sorted := make([]*big.Int, n)
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Cmp(sorted[j]) < 0
	})

	if n%2 == 1 {
		return new(big.Int).Set(sorted[n/2]), nil
	}
	return Average(sorted[n/2-1], sorted[n/2]), nil
}

// Average combines two values the way the median does for even counts:
//   - both non-negative: (a + b + 1) / 2, half rounds up
//   - both negative: magnitudes averaged with half rounding up, then negated
//   - mixed signs: (a + b) / 2 truncated toward zero
func Average(a, b *big.Int) *big.Int {
	switch {
	case a.Sign() >= 0 && b.Sign() >= 0:
		sum := new(big.Int).Add(a, b)
		sum.Add(sum, one)
		return sum.Quo(sum, two)

	case a.Sign() < 0 && b.Sign() < 0:
		mag := new(big.Int).Abs(a)
		mag.Add(mag, new(big.Int).Abs(b))
		mag.Add(mag, one)
		mag.Quo(mag, two)
		// |result| may be exactly 2^255; negation lands on MinInt256.
		if mag.Cmp(new(big.Int).Neg(MinInt256)) == 0 {
			return new(big.Int).Set(MinInt256)
		}
		return mag.Neg(mag)

	default:
		sum := new(big.Int).Add(a, b)
		return sum.Quo(sum, two)
	}
}

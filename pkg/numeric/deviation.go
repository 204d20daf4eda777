package numeric

import "math/big"

var bpsScale = big.NewInt(10000)

// DeviationBps returns |proposed - last| * 10000 / |last| in whole basis points.
// The caller must handle last == 0.
func DeviationBps(last, proposed *big.Int) *big.Int {
	diff := new(big.Int).Sub(proposed, last)
	diff.Abs(diff)
	diff.Mul(diff, bpsScale)
	return diff.Quo(diff, new(big.Int).Abs(last))
}

// Deviates reports whether proposed differs from last by at least thresholdBps.
// Any nonzero proposal deviates from a zero answer.
func Deviates(last, proposed *big.Int, thresholdBps uint32) bool {
	if last.Sign() == 0 {
		return proposed.Sign() != 0
	}
	return DeviationBps(last, proposed).Cmp(new(big.Int).SetUint64(uint64(thresholdBps))) >= 0
}

package fixedpoint

import (
	"errors"
	"math/big"
)

// ErrBasisPointsOutOfRange signals a bps value outside [0, MaxBasisPoints].
var ErrBasisPointsOutOfRange = errors.New("fixedpoint: basis points out of range")

// BasisPointsPercentage returns amount * bps / 10000, floored.
// 10000 bp is 100%, 543 bp is 5.43%.
func BasisPointsPercentage(amount *big.Int, bps int64) (*big.Int, error) {
	if bps < 0 || bps > MaxBasisPoints {
		return nil, ErrBasisPointsOutOfRange
	}
	if amount.Sign() < 0 {
		return nil, ErrUnderflow
	}
	return MulDiv(amount, big.NewInt(bps), big.NewInt(BasisPointsPrecision), RoundDown)
}

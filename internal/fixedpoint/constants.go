// Package fixedpoint provides checked big.Int arithmetic and the
// fixed-point log/exp/pow primitives used by the bonding curve and the
// fee-splitting basis points math. All amounts are unsigned 18-decimal
// fixed point; rounding is floor unless a Rounding argument says
// otherwise, which systematically favors the reserve over the trader.
package fixedpoint

import "math/big"

// Numeric constants exposed as read-only getters.
const (
	// PrecisionDecimals is the decimal scaling of all wei/token amounts.
	PrecisionDecimals = 18

	// BasisPointsPrecision is the basis points denominator: 10000 bp = 100%.
	BasisPointsPrecision = 10_000

	// MaxBasisPoints is the upper validation bound for bps parameters.
	MaxBasisPoints = 100_000

	// MaxRatioPPM is the parts-per-million reserve ratio denominator:
	// 1,000,000 ppm = 100% (linear curve).
	MaxRatioPPM = 1_000_000

	// MaxReserveRatio is the exposed upper bound for ratio parameters.
	MaxReserveRatio = 10_000_000

	// Resolution is the number of fractional bits used by the
	// fixed-point log/exp computations (Q64).
	Resolution = 64
)

// Precision returns the 18-decimal amount scale (1e18) as a big.Int.
func Precision() *big.Int {
	return new(big.Int).Set(precision)
}

// One returns the Q64 fixed-point representation of 1.
func One() *big.Int {
	return new(big.Int).Set(one)
}

var (
	precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(PrecisionDecimals), nil)
	one       = new(big.Int).Lsh(big.NewInt(1), Resolution)
	two       = new(big.Int).Lsh(big.NewInt(1), Resolution+1)

	// ln2Q64 is floor(ln(2) * 2^64).
	ln2Q64 = mustParseBig("12786308645202655660")
)

func mustParseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("fixedpoint: bad constant " + s)
	}
	return v
}

package fixedpoint

import (
	"errors"
	"math/big"
)

// Power computation errors.
var (
	ErrBaseBelowOne = errors.New("fixedpoint: pow base below one")
	ErrExpTooLarge  = errors.New("fixedpoint: exponent out of range")
)

// maxExpShift bounds the integer part of the exponent in Exp. Results
// beyond 2^4096 have no meaning for wei amounts and only burn memory.
const maxExpShift = 4096

// Pow computes (baseN/baseD)^(expN/expD) as a Q64 fixed-point number.
// The base must be >= 1 (baseN >= baseD); both exponent parts must be
// positive. The result is a floor approximation: repeated floor steps in
// Log and Exp always round toward the reserve.
func Pow(baseN, baseD, expN, expD *big.Int) (*big.Int, error) {
	if baseD.Sign() <= 0 || expD.Sign() <= 0 {
		return nil, ErrDivisionByZero
	}
	if expN.Sign() < 0 {
		return nil, ErrExpTooLarge
	}
	if baseN.Cmp(baseD) < 0 {
		return nil, ErrBaseBelowOne
	}

	base := new(big.Int).Lsh(baseN, Resolution)
	base.Div(base, baseD)
	if base.Cmp(one) == 0 || expN.Sign() == 0 {
		return One(), nil
	}

	lnBase := Log(base)

	// x = ln(base) * expN / expD
	x := new(big.Int).Mul(lnBase, expN)
	x.Div(x, expD)

	return Exp(x)
}

// Log returns the natural logarithm of a Q64 value x >= 1, in Q64.
// The binary logarithm is computed first with the bit-squaring
// algorithm (one fractional bit per squaring), then scaled by ln(2).
func Log(x *big.Int) *big.Int {
	v := new(big.Int).Set(x)
	log2 := big.NewInt(0)

	// Integer part: shift down until v < 2.
	for v.Cmp(two) >= 0 {
		v.Rsh(v, 1)
		log2.Add(log2, one)
	}

	// Fractional part, one bit per iteration.
	if v.Cmp(one) > 0 {
		bit := new(big.Int).Rsh(one, 1)
		for i := 0; i < Resolution; i++ {
			v.Mul(v, v)
			v.Rsh(v, Resolution)
			if v.Cmp(two) >= 0 {
				v.Rsh(v, 1)
				log2.Add(log2, bit)
			}
			bit.Rsh(bit, 1)
		}
	}

	// ln(x) = log2(x) * ln(2)
	res := new(big.Int).Mul(log2, ln2Q64)
	return res.Rsh(res, Resolution)
}

// Exp returns e^x for a non-negative Q64 value x, in Q64.
// x is split as k*ln(2) + r with r < ln(2); e^r is summed as a
// factorial series and the result shifted left by k.
func Exp(x *big.Int) (*big.Int, error) {
	if x.Sign() < 0 {
		return nil, ErrExpTooLarge
	}

	k := new(big.Int).Div(x, ln2Q64)
	if !k.IsUint64() || k.Uint64() > maxExpShift {
		return nil, ErrExpTooLarge
	}
	r := new(big.Int).Sub(x, new(big.Int).Mul(k, ln2Q64))

	// e^r = sum r^i / i!, r < ln(2) so the series converges fast.
	sum := One()
	term := One()
	for i := int64(1); i <= 32; i++ {
		term.Mul(term, r)
		term.Rsh(term, Resolution)
		term.Div(term, big.NewInt(i))
		if term.Sign() == 0 {
			break
		}
		sum.Add(sum, term)
	}

	return sum.Lsh(sum, uint(k.Uint64())), nil
}

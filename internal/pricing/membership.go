// Package pricing computes membership pass mint costs from the current
// pass supply. Costs are deterministic, monotonically non-decreasing
// step functions of supply.
package pricing

import (
	"errors"
	"math/big"

	"creator-token-engine/internal/fixedpoint"
)

// Pricing errors.
var (
	ErrZeroSupply      = errors.New("pricing: supply must be positive")
	ErrInvalidInitCost = errors.New("pricing: initial cost must be non-negative")
)

// Cost returns the mint price at the given pass supply:
//
//	(Σ_{1..s+1} i² − Σ_{1..s} i²) * Precision * scalingFactor / 10000 + initialCost
//
// The telescoping difference is exactly (s+1)², so the closed form is
// used; the discrete summation is kept in tests as the reference.
// Supply zero costs exactly initialCost.
func Cost(currentSupply uint64, initialCost *big.Int, scalingFactorBps int64) (*big.Int, error) {
	if initialCost == nil || initialCost.Sign() < 0 {
		return nil, ErrInvalidInitCost
	}
	if scalingFactorBps < 0 || scalingFactorBps > fixedpoint.MaxBasisPoints {
		return nil, fixedpoint.ErrBasisPointsOutOfRange
	}
	if currentSupply == 0 {
		return new(big.Int).Set(initialCost), nil
	}

	next := new(big.Int).SetUint64(currentSupply + 1)
	square := new(big.Int).Mul(next, next)

	scaled, err := fixedpoint.MulDiv(
		new(big.Int).Mul(square, fixedpoint.Precision()),
		big.NewInt(scalingFactorBps),
		big.NewInt(fixedpoint.BasisPointsPrecision),
		fixedpoint.RoundDown,
	)
	if err != nil {
		return nil, err
	}
	return scaled.Add(scaled, initialCost), nil
}

// ValueBasedCost prices a pass at the average reserve value per
// outstanding membership, scaled by the basis-points factor:
//
//	reserveBalance / currentSupply * scalingFactor / 10000
//
// Fails on zero supply.
func ValueBasedCost(reserveBalance *big.Int, currentSupply uint64, scalingFactorBps int64) (*big.Int, error) {
	if currentSupply == 0 {
		return nil, ErrZeroSupply
	}
	if reserveBalance == nil || reserveBalance.Sign() < 0 {
		return nil, fixedpoint.ErrUnderflow
	}
	if scalingFactorBps < 0 || scalingFactorBps > fixedpoint.MaxBasisPoints {
		return nil, fixedpoint.ErrBasisPointsOutOfRange
	}

	denom := new(big.Int).Mul(
		new(big.Int).SetUint64(currentSupply),
		big.NewInt(fixedpoint.BasisPointsPrecision),
	)
	return fixedpoint.MulDiv(reserveBalance, big.NewInt(scalingFactorBps), denom, fixedpoint.RoundDown)
}

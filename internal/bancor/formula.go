// Package bancor implements the exponential bonding curve relating a
// token's outstanding supply to its reserve backing. The reserve ratio
// is expressed in parts-per-million; 1,000,000 ppm collapses both
// formulas to the linear case. All rounding is floor, so repeated
// mint/burn round trips can never drain the reserve.
package bancor

import (
	"errors"
	"math/big"

	"creator-token-engine/internal/fixedpoint"
)

// Formula input errors.
var (
	ErrZeroSupply        = errors.New("bancor: supply must be positive")
	ErrZeroReserve       = errors.New("bancor: reserve must be positive")
	ErrInvalidRatio      = errors.New("bancor: reserve ratio out of range")
	ErrSellExceedsSupply = errors.New("bancor: sell amount exceeds supply")
)

// CalculatePurchaseReturn computes the amount of tokens minted for a
// reserve deposit:
//
//	supply * ((1 + deposit/reserve)^(ratio/1e6) - 1)
//
// A zero deposit returns zero; a 100% ratio reduces to
// supply * deposit / reserve.
func CalculatePurchaseReturn(supply, reserve *big.Int, ratioPPM int64, deposit *big.Int) (*big.Int, error) {
	if err := validate(supply, reserve, ratioPPM); err != nil {
		return nil, err
	}
	if deposit.Sign() < 0 {
		return nil, fixedpoint.ErrUnderflow
	}
	if deposit.Sign() == 0 {
		return big.NewInt(0), nil
	}

	if ratioPPM == fixedpoint.MaxRatioPPM {
		return fixedpoint.MulDiv(supply, deposit, reserve, fixedpoint.RoundDown)
	}

	baseN := new(big.Int).Add(reserve, deposit)
	pow, err := fixedpoint.Pow(baseN, reserve, big.NewInt(ratioPPM), big.NewInt(fixedpoint.MaxRatioPPM))
	if err != nil {
		return nil, err
	}

	// floor(supply * pow) - supply
	grown := new(big.Int).Mul(supply, pow)
	grown.Rsh(grown, fixedpoint.Resolution)
	return fixedpoint.Sub(grown, supply)
}

// CalculateSaleReturn computes the reserve returned for burning tokens:
//
//	reserve * (1 - (1 - sell/supply)^(1e6/ratio))
//
// Selling the entire supply returns the entire reserve; a 100% ratio
// reduces to reserve * sell / supply.
func CalculateSaleReturn(supply, reserve *big.Int, ratioPPM int64, sell *big.Int) (*big.Int, error) {
	if err := validate(supply, reserve, ratioPPM); err != nil {
		return nil, err
	}
	if sell.Sign() < 0 {
		return nil, fixedpoint.ErrUnderflow
	}
	if sell.Cmp(supply) > 0 {
		return nil, ErrSellExceedsSupply
	}
	if sell.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if sell.Cmp(supply) == 0 {
		return new(big.Int).Set(reserve), nil
	}

	if ratioPPM == fixedpoint.MaxRatioPPM {
		return fixedpoint.MulDiv(reserve, sell, supply, fixedpoint.RoundDown)
	}

	remaining := new(big.Int).Sub(supply, sell)
	pow, err := fixedpoint.Pow(supply, remaining, big.NewInt(fixedpoint.MaxRatioPPM), big.NewInt(ratioPPM))
	if err != nil {
		return nil, err
	}

	// reserve * (pow - ONE) / pow
	num := new(big.Int).Mul(reserve, new(big.Int).Sub(pow, fixedpoint.One()))
	return num.Div(num, pow), nil
}

func validate(supply, reserve *big.Int, ratioPPM int64) error {
	if supply == nil || supply.Sign() <= 0 {
		return ErrZeroSupply
	}
	if reserve == nil || reserve.Sign() <= 0 {
		return ErrZeroReserve
	}
	if ratioPPM <= 0 || ratioPPM > fixedpoint.MaxRatioPPM {
		return ErrInvalidRatio
	}
	return nil
}

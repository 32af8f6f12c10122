package fixedpoint

import (
	"errors"
	"math/big"
)

// Rounding selects the direction of truncation in MulDiv.
type Rounding int

// Rounding modes.
const (
	RoundDown Rounding = iota
	RoundUp
)

// Arithmetic errors. All are fatal to the operation that hit them.
var (
	ErrUnderflow      = errors.New("fixedpoint: subtraction underflow")
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
)

// Add returns a + b.
func Add(a, b *big.Int) *big.Int {
	return new(big.Int).Add(a, b)
}

// Sub returns a - b, failing when b > a.
func Sub(a, b *big.Int) (*big.Int, error) {
	if b.Cmp(a) > 0 {
		return nil, ErrUnderflow
	}
	return new(big.Int).Sub(a, b), nil
}

// Mul returns a * b.
func Mul(a, b *big.Int) *big.Int {
	return new(big.Int).Mul(a, b)
}

// Div returns floor(a / b), failing on a zero denominator.
func Div(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	return new(big.Int).Div(a, b), nil
}

// Mod returns a mod b, failing on a zero denominator.
func Mod(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	return new(big.Int).Mod(a, b), nil
}

// MulDiv returns (x * y) / denominator with the requested rounding.
// The multiply-then-divide happens at arbitrary precision, so the
// intermediate product cannot overflow.
func MulDiv(x, y, denominator *big.Int, rounding Rounding) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	prod := new(big.Int).Mul(x, y)
	if rounding == RoundUp {
		numerator := new(big.Int).Add(prod, new(big.Int).Sub(denominator, big.NewInt(1)))
		return new(big.Int).Div(numerator, denominator), nil
	}
	return new(big.Int).Div(prod, denominator), nil
}

// Shl returns a << b.
func Shl(a *big.Int, b uint) *big.Int {
	return new(big.Int).Lsh(a, b)
}

// Shr returns a >> b.
func Shr(a *big.Int, b uint) *big.Int {
	return new(big.Int).Rsh(a, b)
}

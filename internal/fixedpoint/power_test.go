package fixedpoint

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

// q64Float converts a Q64 value to float64 for approximate comparisons.
func q64Float(v *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), new(big.Float).SetInt(one)).Float64()
	return f
}

func TestPow_BaseOne(t *testing.T) {
	got, err := Pow(big.NewInt(7), big.NewInt(7), big.NewInt(3), big.NewInt(2))
	if err != nil {
		t.Fatalf("Pow failed: %v", err)
	}
	if got.Cmp(one) != 0 {
		t.Errorf("Pow(1, x) mismatch: got %s, want %s", got, one)
	}
}

func TestPow_ZeroExponent(t *testing.T) {
	got, err := Pow(big.NewInt(9), big.NewInt(2), big.NewInt(0), big.NewInt(1))
	if err != nil {
		t.Fatalf("Pow failed: %v", err)
	}
	if got.Cmp(one) != 0 {
		t.Errorf("Pow(x, 0) mismatch: got %s, want %s", got, one)
	}
}

func TestPow_ApproximatesFloat(t *testing.T) {
	tests := []struct {
		baseN, baseD, expN, expD int64
	}{
		{2, 1, 1, 1},     // 2^1
		{2, 1, 1, 2},     // sqrt(2)
		{4, 1, 3, 2},     // 4^1.5 = 8
		{3, 2, 5, 1},     // 1.5^5
		{100, 99, 1, 2},  // near-one base
		{1000, 7, 2, 3},  // large base, fractional exp
		{12, 5, 7, 11},   // arbitrary rational
	}

	for _, tt := range tests {
		got, err := Pow(big.NewInt(tt.baseN), big.NewInt(tt.baseD), big.NewInt(tt.expN), big.NewInt(tt.expD))
		if err != nil {
			t.Fatalf("Pow(%d/%d, %d/%d) failed: %v", tt.baseN, tt.baseD, tt.expN, tt.expD, err)
		}
		want := math.Pow(float64(tt.baseN)/float64(tt.baseD), float64(tt.expN)/float64(tt.expD))
		if rel := math.Abs(q64Float(got)-want) / want; rel > 1e-9 {
			t.Errorf("Pow(%d/%d, %d/%d) = %g, want %g (rel err %g)",
				tt.baseN, tt.baseD, tt.expN, tt.expD, q64Float(got), want, rel)
		}
	}
}

func TestPow_FloorsTowardOne(t *testing.T) {
	// The approximation must never exceed the exact value: repeated
	// floor steps bias the result downward, which protects the reserve.
	got, err := Pow(big.NewInt(2), big.NewInt(1), big.NewInt(1), big.NewInt(2))
	if err != nil {
		t.Fatalf("Pow failed: %v", err)
	}
	exact := new(big.Float).SetPrec(256).Sqrt(big.NewFloat(2))
	exactQ64, _ := new(big.Float).Mul(exact, new(big.Float).SetInt(one)).Int(nil)
	if got.Cmp(exactQ64) > 0 {
		t.Errorf("Pow overshoots: got %s, exact %s", got, exactQ64)
	}
}

func TestPow_Errors(t *testing.T) {
	if _, err := Pow(big.NewInt(1), big.NewInt(2), big.NewInt(1), big.NewInt(1)); !errors.Is(err, ErrBaseBelowOne) {
		t.Errorf("Expected ErrBaseBelowOne, got %v", err)
	}
	if _, err := Pow(big.NewInt(2), big.NewInt(0), big.NewInt(1), big.NewInt(1)); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("Expected ErrDivisionByZero for zero base denominator, got %v", err)
	}
	if _, err := Pow(big.NewInt(2), big.NewInt(1), big.NewInt(1), big.NewInt(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("Expected ErrDivisionByZero for zero exp denominator, got %v", err)
	}
	if _, err := Pow(big.NewInt(2), big.NewInt(1), big.NewInt(-1), big.NewInt(1)); !errors.Is(err, ErrExpTooLarge) {
		t.Errorf("Expected ErrExpTooLarge for negative exponent, got %v", err)
	}
}

func TestExp_TooLarge(t *testing.T) {
	// An exponent above maxExpShift*ln(2) must be rejected.
	huge := new(big.Int).Mul(ln2Q64, big.NewInt(maxExpShift+1))
	if _, err := Exp(huge); !errors.Is(err, ErrExpTooLarge) {
		t.Errorf("Expected ErrExpTooLarge, got %v", err)
	}
}

func TestLog_KnownValues(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{1, 0},
		{2, math.Ln2},
		{math.E, 1},
		{10, math.Log(10)},
	}

	for _, tt := range tests {
		xQ64, _ := new(big.Float).Mul(big.NewFloat(tt.x), new(big.Float).SetInt(one)).Int(nil)
		got := q64Float(Log(xQ64))
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Log(%g) = %g, want %g", tt.x, got, tt.want)
		}
	}
}

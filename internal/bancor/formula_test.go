package bancor

import (
	"errors"
	"math/big"
	"testing"

	"creator-token-engine/internal/fixedpoint"
)

func tokens(n int64) *big.Int {
	v := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return v.Mul(v, big.NewInt(n))
}

func TestCalculatePurchaseReturn_Linear(t *testing.T) {
	// 100% ratio: minted = supply * deposit / reserve, exactly.
	got, err := CalculatePurchaseReturn(tokens(1000), tokens(10), fixedpoint.MaxRatioPPM, tokens(1))
	if err != nil {
		t.Fatalf("CalculatePurchaseReturn failed: %v", err)
	}
	if got.Cmp(tokens(100)) != 0 {
		t.Errorf("Linear purchase mismatch: got %s, want %s", got, tokens(100))
	}
}

func TestCalculatePurchaseReturn_ZeroDeposit(t *testing.T) {
	got, err := CalculatePurchaseReturn(tokens(1000), tokens(10), 500_000, big.NewInt(0))
	if err != nil {
		t.Fatalf("CalculatePurchaseReturn failed: %v", err)
	}
	if got.Sign() != 0 {
		t.Errorf("Zero deposit should mint zero, got %s", got)
	}
}

func TestCalculatePurchaseReturn_SqrtCurve(t *testing.T) {
	// 50% ratio, deposit tripling the reserve: supply * (4^0.5 - 1) = supply.
	supply := tokens(1000)
	got, err := CalculatePurchaseReturn(supply, tokens(10), 500_000, tokens(30))
	if err != nil {
		t.Fatalf("CalculatePurchaseReturn failed: %v", err)
	}

	// Floor rounding may undershoot by a few wei but never overshoot.
	diff := new(big.Int).Sub(supply, got)
	if diff.Sign() < 0 {
		t.Errorf("Purchase overshoots: got %s, want <= %s", got, supply)
	}
	if diff.Cmp(big.NewInt(1_000_000)) > 0 {
		t.Errorf("Purchase undershoots too far: got %s, want ~%s", got, supply)
	}
}

func TestCalculatePurchaseReturn_Monotonic(t *testing.T) {
	supply, reserve := tokens(1000), tokens(10)
	prev := big.NewInt(0)
	for _, d := range []int64{1, 2, 5, 10, 50, 100} {
		got, err := CalculatePurchaseReturn(supply, reserve, 300_000, tokens(d))
		if err != nil {
			t.Fatalf("CalculatePurchaseReturn(%d) failed: %v", d, err)
		}
		if got.Cmp(prev) <= 0 {
			t.Errorf("Purchase return not increasing at deposit %d: %s <= %s", d, got, prev)
		}
		prev = got
	}
}

func TestCalculateSaleReturn_Linear(t *testing.T) {
	got, err := CalculateSaleReturn(tokens(1000), tokens(10), fixedpoint.MaxRatioPPM, tokens(100))
	if err != nil {
		t.Fatalf("CalculateSaleReturn failed: %v", err)
	}
	if got.Cmp(tokens(1)) != 0 {
		t.Errorf("Linear sale mismatch: got %s, want %s", got, tokens(1))
	}
}

func TestCalculateSaleReturn_EntireSupply(t *testing.T) {
	reserve := tokens(10)
	got, err := CalculateSaleReturn(tokens(1000), reserve, 420_000, tokens(1000))
	if err != nil {
		t.Fatalf("CalculateSaleReturn failed: %v", err)
	}
	if got.Cmp(reserve) != 0 {
		t.Errorf("Selling entire supply should return entire reserve: got %s, want %s", got, reserve)
	}
	// The returned value must be a copy, not the caller's reserve.
	got.SetInt64(0)
	if reserve.Cmp(tokens(10)) != 0 {
		t.Error("CalculateSaleReturn aliased the reserve argument")
	}
}

func TestCalculateSaleReturn_ZeroSell(t *testing.T) {
	got, err := CalculateSaleReturn(tokens(1000), tokens(10), 500_000, big.NewInt(0))
	if err != nil {
		t.Fatalf("CalculateSaleReturn failed: %v", err)
	}
	if got.Sign() != 0 {
		t.Errorf("Zero sell should return zero, got %s", got)
	}
}

func TestRoundTrip_NeverDrainsReserve(t *testing.T) {
	// burn(mint(deposit)) <= deposit for a range of ratios and sizes.
	for _, ratio := range []int64{100_000, 300_000, 500_000, 900_000, fixedpoint.MaxRatioPPM} {
		supply, reserve := tokens(1_000_000), tokens(5000)
		for _, d := range []int64{1, 7, 100, 4999} {
			deposit := tokens(d)

			minted, err := CalculatePurchaseReturn(supply, reserve, ratio, deposit)
			if err != nil {
				t.Fatalf("purchase (ratio %d, deposit %d): %v", ratio, d, err)
			}

			newSupply := new(big.Int).Add(supply, minted)
			newReserve := new(big.Int).Add(reserve, deposit)

			returned, err := CalculateSaleReturn(newSupply, newReserve, ratio, minted)
			if err != nil {
				t.Fatalf("sale (ratio %d, deposit %d): %v", ratio, d, err)
			}

			if returned.Cmp(deposit) > 0 {
				t.Errorf("Round trip profits at ratio %d deposit %d: in %s, out %s",
					ratio, d, deposit, returned)
			}
		}
	}
}

func TestFormula_ValidationErrors(t *testing.T) {
	supply, reserve := tokens(1000), tokens(10)

	if _, err := CalculatePurchaseReturn(big.NewInt(0), reserve, 500_000, tokens(1)); !errors.Is(err, ErrZeroSupply) {
		t.Errorf("Expected ErrZeroSupply, got %v", err)
	}
	if _, err := CalculatePurchaseReturn(supply, big.NewInt(0), 500_000, tokens(1)); !errors.Is(err, ErrZeroReserve) {
		t.Errorf("Expected ErrZeroReserve, got %v", err)
	}
	if _, err := CalculatePurchaseReturn(supply, reserve, 0, tokens(1)); !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("Expected ErrInvalidRatio for zero ratio, got %v", err)
	}
	if _, err := CalculatePurchaseReturn(supply, reserve, fixedpoint.MaxRatioPPM+1, tokens(1)); !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("Expected ErrInvalidRatio above max, got %v", err)
	}
	if _, err := CalculateSaleReturn(supply, reserve, 500_000, tokens(1001)); !errors.Is(err, ErrSellExceedsSupply) {
		t.Errorf("Expected ErrSellExceedsSupply, got %v", err)
	}
}

package wallet

import (
	"context"
	"errors"
	"testing"

	"creator-token-engine/internal/domain"
)

func TestPassLedger_MintAndOwner(t *testing.T) {
	ctx := context.Background()
	pl := NewPassLedger()

	if err := pl.Mint(ctx, alice, 1); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if err := pl.Mint(ctx, bob, 2); err != nil {
		t.Fatalf("second Mint failed: %v", err)
	}

	owner, err := pl.OwnerOf(ctx, 1)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != alice {
		t.Errorf("Expected owner %s, got %s", alice, owner)
	}

	supply, err := pl.Supply(ctx)
	if err != nil {
		t.Fatalf("Supply failed: %v", err)
	}
	if supply != 2 {
		t.Errorf("Expected supply 2, got %d", supply)
	}
}

func TestPassLedger_DuplicateMint(t *testing.T) {
	ctx := context.Background()
	pl := NewPassLedger()

	if err := pl.Mint(ctx, alice, 7); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if err := pl.Mint(ctx, bob, 7); !errors.Is(err, ErrPassExists) {
		t.Errorf("Expected ErrPassExists, got %v", err)
	}

	// Original ownership must survive the rejected mint.
	owner, _ := pl.OwnerOf(ctx, 7)
	if owner != alice {
		t.Errorf("Expected owner %s, got %s", alice, owner)
	}
}

func TestPassLedger_Burn(t *testing.T) {
	ctx := context.Background()
	pl := NewPassLedger()

	if err := pl.Mint(ctx, alice, 3); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if err := pl.Burn(ctx, 3); err != nil {
		t.Fatalf("Burn failed: %v", err)
	}

	if _, err := pl.OwnerOf(ctx, 3); !errors.Is(err, ErrPassNotFound) {
		t.Errorf("Expected ErrPassNotFound after burn, got %v", err)
	}
	if err := pl.Burn(ctx, 3); !errors.Is(err, ErrPassNotFound) {
		t.Errorf("Expected ErrPassNotFound on double burn, got %v", err)
	}

	supply, _ := pl.Supply(ctx)
	if supply != 0 {
		t.Errorf("Expected supply 0, got %d", supply)
	}
}

func TestPassLedger_ZeroOwner(t *testing.T) {
	pl := NewPassLedger()
	if err := pl.Mint(context.Background(), domain.ZeroAddress, 1); !errors.Is(err, domain.ErrZeroAddress) {
		t.Errorf("Expected ErrZeroAddress, got %v", err)
	}
}

package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"creator-token-engine/internal/domain"
)

// ErrInsufficientTokens is returned when a burn exceeds the holder balance.
var ErrInsufficientTokens = errors.New("wallet: insufficient token balance")

// TokenLedger is an in-memory fungible token ledger implementing
// domain.TokenLedger. Transfer/approval mechanics are out of scope; the
// curve engine only mints, burns and reads balances.
type TokenLedger struct {
	mu       sync.Mutex
	balances map[domain.Address]*big.Int
	supply   *big.Int
}

// NewTokenLedger creates an empty token ledger.
func NewTokenLedger() *TokenLedger {
	return &TokenLedger{
		balances: make(map[domain.Address]*big.Int),
		supply:   big.NewInt(0),
	}
}

// MintInitial seeds the ledger with the initial supply held by the owner.
func (t *TokenLedger) MintInitial(ctx context.Context, owner domain.Address, amount *big.Int) error {
	return t.Mint(ctx, owner, amount)
}

// Mint credits newly issued tokens. Implements domain.TokenLedger.
func (t *TokenLedger) Mint(_ context.Context, to domain.Address, amount *big.Int) error {
	if to.IsZero() {
		return domain.ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if bal, ok := t.balances[to]; ok {
		bal.Add(bal, amount)
	} else {
		t.balances[to] = new(big.Int).Set(amount)
	}
	t.supply.Add(t.supply, amount)
	return nil
}

// BurnFrom destroys tokens held by an account. Implements domain.TokenLedger.
func (t *TokenLedger) BurnFrom(_ context.Context, holder domain.Address, amount *big.Int) error {
	if holder.IsZero() {
		return domain.ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	bal, ok := t.balances[holder]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientTokens
	}
	bal.Sub(bal, amount)
	t.supply.Sub(t.supply, amount)
	return nil
}

// BalanceOf returns the holder balance; zero for unknown holders.
func (t *TokenLedger) BalanceOf(_ context.Context, holder domain.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if bal, ok := t.balances[holder]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

// TotalSupply returns the outstanding supply.
func (t *TokenLedger) TotalSupply(_ context.Context) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.supply), nil
}

var _ domain.TokenLedger = (*TokenLedger)(nil)

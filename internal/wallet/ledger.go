// Package wallet provides in-memory implementations of the fund, token
// and pass ledger collaborators. The server and the simulator use these
// directly; tests use them as deterministic fixtures.
package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"creator-token-engine/internal/domain"
)

// Ledger errors.
var (
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
	ErrNegativeAmount    = errors.New("wallet: negative amount")
)

// Ledger is an in-memory wei ledger implementing domain.FundTransferor.
type Ledger struct {
	mu       sync.Mutex
	balances map[domain.Address]*big.Int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[domain.Address]*big.Int)}
}

// Deposit credits an account out of thin air. Fixture and faucet use.
func (l *Ledger) Deposit(_ context.Context, addr domain.Address, amount *big.Int) error {
	if addr.IsZero() {
		return domain.ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(addr, amount)
	return nil
}

// Transfer moves wei between accounts; fails atomically when the source
// balance is insufficient. Implements domain.FundTransferor.
func (l *Ledger) Transfer(_ context.Context, from, to domain.Address, amount *big.Int) error {
	if from.IsZero() || to.IsZero() {
		return domain.ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[from]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	bal.Sub(bal, amount)
	l.credit(to, amount)
	return nil
}

// Balance returns the current balance; zero for unknown accounts.
func (l *Ledger) Balance(_ context.Context, addr domain.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bal, ok := l.balances[addr]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

// credit assumes the lock is held.
func (l *Ledger) credit(addr domain.Address, amount *big.Int) {
	if bal, ok := l.balances[addr]; ok {
		bal.Add(bal, amount)
		return
	}
	l.balances[addr] = new(big.Int).Set(amount)
}

var _ domain.FundTransferor = (*Ledger)(nil)

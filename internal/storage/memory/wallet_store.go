package memory

import (
	"context"
	"math/big"
	"sync"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
type WalletStore struct {
	mu   sync.Mutex
	data map[domain.Address]*big.Int
}

// NewWalletStore creates a new in-memory wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{data: make(map[domain.Address]*big.Int)}
}

// Deposit credits an account, creating it when missing.
func (s *WalletStore) Deposit(_ context.Context, addr domain.Address, amount *big.Int) error {
	if addr.IsZero() || amount == nil || amount.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.credit(addr, amount)
	return nil
}

// Transfer atomically debits `from` and credits `to`.
func (s *WalletStore) Transfer(_ context.Context, from, to domain.Address, amount *big.Int) error {
	if from.IsZero() || to.IsZero() || amount == nil || amount.Sign() < 0 {
		return storage.ErrInvalidInput
	}
	if amount.Sign() == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bal, ok := s.data[from]
	if !ok || bal.Cmp(amount) < 0 {
		return storage.ErrInsufficientFunds
	}
	bal.Sub(bal, amount)
	s.credit(to, amount)
	return nil
}

// Balance returns the stored balance; zero for unknown accounts.
func (s *WalletStore) Balance(_ context.Context, addr domain.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bal, ok := s.data[addr]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

// credit assumes the lock is held.
func (s *WalletStore) credit(addr domain.Address, amount *big.Int) {
	if bal, ok := s.data[addr]; ok {
		bal.Add(bal, amount)
		return
	}
	s.data[addr] = new(big.Int).Set(amount)
}

var _ storage.WalletStore = (*WalletStore)(nil)
var _ domain.FundTransferor = (*WalletStore)(nil)

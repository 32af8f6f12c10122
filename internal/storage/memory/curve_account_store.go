// Package memory provides in-memory store implementations, used by the
// simulator and as the default backend when no database is configured.
package memory

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

// CurveAccountStore is an in-memory implementation of storage.CurveAccountStore.
type CurveAccountStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CurveAccount
}

// NewCurveAccountStore creates a new in-memory curve account store.
func NewCurveAccountStore() *CurveAccountStore {
	return &CurveAccountStore{data: make(map[string]*domain.CurveAccount)}
}

// Insert adds a new account. Returns ErrDuplicateKey if exists.
func (s *CurveAccountStore) Insert(_ context.Context, a *domain.CurveAccount) error {
	if a == nil || a.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.AccountID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[a.AccountID] = cloneAccount(a)
	return nil
}

// GetByID retrieves an account by its ID. Returns ErrNotFound if not exists.
func (s *CurveAccountStore) GetByID(_ context.Context, accountID string) (*domain.CurveAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[accountID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneAccount(a), nil
}

// UpdateBalances overwrites the mutable reserve and fee balances.
func (s *CurveAccountStore) UpdateBalances(_ context.Context, accountID string, reserve, collectedFees *big.Int) error {
	if reserve == nil || collectedFees == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.data[accountID]
	if !ok {
		return storage.ErrNotFound
	}
	a.ReserveBalance = new(big.Int).Set(reserve)
	a.CollectedFees = new(big.Int).Set(collectedFees)
	return nil
}

// List retrieves all accounts ordered by created_at ASC.
func (s *CurveAccountStore) List(_ context.Context) ([]*domain.CurveAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CurveAccount, 0, len(s.data))
	for _, a := range s.data {
		result = append(result, cloneAccount(a))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].AccountID < result[j].AccountID
	})

	return result, nil
}

func cloneAccount(a *domain.CurveAccount) *domain.CurveAccount {
	cp := *a
	cp.ReserveBalance = new(big.Int).Set(a.ReserveBalance)
	cp.CollectedFees = new(big.Int).Set(a.CollectedFees)
	if a.Params.InitialReserve != nil {
		cp.Params.InitialReserve = new(big.Int).Set(a.Params.InitialReserve)
	}
	return &cp
}

var _ storage.CurveAccountStore = (*CurveAccountStore)(nil)

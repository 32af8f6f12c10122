package wallet

import (
	"context"
	"errors"
	"sync"

	"creator-token-engine/internal/domain"
)

// Pass ledger errors.
var (
	ErrPassExists   = errors.New("wallet: pass already minted")
	ErrPassNotFound = errors.New("wallet: pass not found")
)

// PassLedger is an in-memory membership pass ledger implementing
// domain.PassLedger.
type PassLedger struct {
	mu     sync.Mutex
	owners map[uint64]domain.Address
}

// NewPassLedger creates an empty pass ledger.
func NewPassLedger() *PassLedger {
	return &PassLedger{owners: make(map[uint64]domain.Address)}
}

// Mint assigns a new pass to an owner.
func (p *PassLedger) Mint(_ context.Context, to domain.Address, passID uint64) error {
	if to.IsZero() {
		return domain.ErrZeroAddress
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.owners[passID]; ok {
		return ErrPassExists
	}
	p.owners[passID] = to
	return nil
}

// Burn destroys a pass.
func (p *PassLedger) Burn(_ context.Context, passID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.owners[passID]; !ok {
		return ErrPassNotFound
	}
	delete(p.owners, passID)
	return nil
}

// OwnerOf returns the pass owner.
func (p *PassLedger) OwnerOf(_ context.Context, passID uint64) (domain.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	owner, ok := p.owners[passID]
	if !ok {
		return domain.ZeroAddress, ErrPassNotFound
	}
	return owner, nil
}

// Supply returns the number of outstanding passes.
func (p *PassLedger) Supply(_ context.Context) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint64(len(p.owners)), nil
}

var _ domain.PassLedger = (*PassLedger)(nil)

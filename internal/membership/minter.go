// Package membership mints group membership passes priced by the
// supply-indexed pricing engine. Passes are not redeemable against any
// reserve; the mint value is split between the protocol fee destination
// and the group treasury.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/fixedpoint"
	"creator-token-engine/internal/idhash"
	"creator-token-engine/internal/pricing"
)

// Minter errors.
var (
	ErrValueBelowCost = errors.New("membership: value below mint cost")
	ErrNotPassOwner   = errors.New("membership: caller does not own pass")
)

// Params configure a group's membership pricing.
type Params struct {
	GroupID          string
	Treasury         domain.Address // receives mint value net of protocol fee
	FeeDestination   domain.Address
	ProtocolFeeBps   int64
	InitialCost      *big.Int // wei for the first pass
	ScalingFactorBps int64    // pricing engine scale
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if p.Treasury.IsZero() {
		return fmt.Errorf("treasury: %w", domain.ErrZeroAddress)
	}
	if p.FeeDestination.IsZero() {
		return fmt.Errorf("fee destination: %w", domain.ErrZeroAddress)
	}
	if p.ProtocolFeeBps < 0 || p.ProtocolFeeBps >= fixedpoint.BasisPointsPrecision {
		return domain.ErrFeeOutOfRange
	}
	if p.InitialCost == nil || p.InitialCost.Sign() < 0 {
		return pricing.ErrInvalidInitCost
	}
	if p.ScalingFactorBps < 0 || p.ScalingFactorBps > fixedpoint.MaxBasisPoints {
		return fixedpoint.ErrBasisPointsOutOfRange
	}
	return nil
}

// Minter issues passes for one group. Mints are serialized so the
// supply-indexed price cannot be raced.
type Minter struct {
	mu     sync.Mutex
	params Params
	passes domain.PassLedger
	funds  domain.FundTransferor
	events domain.EventSink
	logger *log.Logger
	now    func() int64
	nextID uint64
}

// NewMinter creates a minter for a group.
func NewMinter(params Params, passes domain.PassLedger, funds domain.FundTransferor, events domain.EventSink, logger *log.Logger, now func() int64) (*Minter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if passes == nil || funds == nil {
		return nil, fmt.Errorf("membership: pass ledger and fund transferor are required")
	}
	if events == nil {
		events = domain.NopSink
	}
	return &Minter{params: params, passes: passes, funds: funds, events: events, logger: logger, now: now}, nil
}

// QuoteMint returns the current mint cost at the outstanding supply.
func (m *Minter) QuoteMint(ctx context.Context) (*big.Int, error) {
	supply, err := m.passes.Supply(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pass supply: %w", err)
	}
	return pricing.Cost(supply, m.params.InitialCost, m.params.ScalingFactorBps)
}

// Mint issues a new pass to the buyer for `value` wei, which must cover
// the quoted cost. The protocol fee cut goes to the fee destination and
// the remainder to the group treasury.
func (m *Minter) Mint(ctx context.Context, buyer domain.Address, value *big.Int) (uint64, error) {
	if buyer.IsZero() {
		return 0, domain.ErrZeroAddress
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cost, err := m.QuoteMint(ctx)
	if err != nil {
		return 0, err
	}
	if value == nil || value.Cmp(cost) < 0 {
		return 0, ErrValueBelowCost
	}

	fee, err := fixedpoint.BasisPointsPercentage(value, m.params.ProtocolFeeBps)
	if err != nil {
		return 0, err
	}
	net := new(big.Int).Sub(value, fee)

	passID := m.nextFreeID(ctx)

	if err := m.passes.Mint(ctx, buyer, passID); err != nil {
		return 0, fmt.Errorf("mint pass: %w", err)
	}
	m.nextID = passID + 1
	if fee.Sign() > 0 {
		if err := m.funds.Transfer(ctx, buyer, m.params.FeeDestination, fee); err != nil {
			m.burnBack(ctx, passID)
			m.nextID = passID
			return 0, fmt.Errorf("dispatch protocol fee: %w", err)
		}
	}
	if err := m.funds.Transfer(ctx, buyer, m.params.Treasury, net); err != nil {
		m.compensate(ctx, m.params.FeeDestination, buyer, fee)
		m.burnBack(ctx, passID)
		m.nextID = passID
		return 0, fmt.Errorf("pay treasury: %w", err)
	}

	m.emit(ctx, domain.EventMembershipMinted, buyer, value, fee)
	return passID, nil
}

// Burn destroys a pass held by the caller. Memberships are not
// redeemable, so nothing is returned.
func (m *Minter) Burn(ctx context.Context, caller domain.Address, passID uint64) error {
	owner, err := m.passes.OwnerOf(ctx, passID)
	if err != nil {
		return err
	}
	if owner != caller {
		return ErrNotPassOwner
	}
	return m.passes.Burn(ctx, passID)
}

// nextFreeID skips past passes already present in the ledger, so a
// minter wired onto a pre-populated ledger never collides with them.
// Called with m.mu held.
func (m *Minter) nextFreeID(ctx context.Context) uint64 {
	id := m.nextID
	for {
		if _, err := m.passes.OwnerOf(ctx, id); err != nil {
			return id
		}
		id++
	}
}

func (m *Minter) burnBack(ctx context.Context, passID uint64) {
	if err := m.passes.Burn(ctx, passID); err != nil && m.logger != nil {
		m.logger.Printf("membership %s: compensating burn of pass %d failed: %v", m.params.GroupID, passID, err)
	}
}

func (m *Minter) compensate(ctx context.Context, from, to domain.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	if err := m.funds.Transfer(ctx, from, to, amount); err != nil && m.logger != nil {
		m.logger.Printf("membership %s: compensating transfer failed: %v", m.params.GroupID, err)
	}
}

func (m *Minter) emit(ctx context.Context, typ domain.EventType, actor domain.Address, amount, fee *big.Int) {
	ev := &domain.MarketEvent{
		Type:      typ,
		EntityID:  m.params.GroupID,
		Actor:     actor,
		Amount:    new(big.Int).Set(amount),
		Fee:       new(big.Int).Set(fee),
		Timestamp: m.timestamp(),
	}
	ev.EventID = idhash.ComputeEventID(ev)
	if err := m.events.Publish(ctx, ev); err != nil && m.logger != nil {
		m.logger.Printf("membership %s: publish %s event: %v", m.params.GroupID, typ, err)
	}
}

func (m *Minter) timestamp() int64 {
	if m.now != nil {
		return m.now()
	}
	return nowMillis()
}

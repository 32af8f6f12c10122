// Package curve implements the mutable reserve ledger wrapping the
// bonding curve math: purchase and sale quoting, basis-points fee
// splitting, host fee accrual and the transfer-out choreography.
//
// Every mutating operation applies its internal state change before any
// outbound transfer; a failed transfer triggers compensating transfers
// and restores the prior state so no partial commit is observable.
package curve

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"sync"

	"creator-token-engine/internal/bancor"
	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/fixedpoint"
	"creator-token-engine/internal/idhash"
)

// Quote is the priced outcome of a prospective purchase or sale.
// Fee + net always equals the gross amount exactly.
type Quote struct {
	TokensOut *big.Int // minted tokens (purchase) or zero
	SaleValue *big.Int // gross reserve return (sale) or zero
	Fee       *big.Int // protocol fee portion in wei
}

// Config wires the collaborators of one curve account.
type Config struct {
	Tokens domain.TokenLedger
	Funds  domain.FundTransferor
	Access domain.AccessChecker // optional; owner-only gating when nil
	Events domain.EventSink     // optional
	Logger *log.Logger          // optional
	Now    func() int64         // ms clock; time.Now based when nil
}

// FeeSetterRole is the access-control role allowed to change fee
// parameters besides the owner.
const FeeSetterRole = "FEE_SETTER"

// Account is the engine around one domain.CurveAccount. All operations
// are serialized by a per-account mutex; independent accounts proceed
// in parallel.
type Account struct {
	mu    sync.Mutex
	state *domain.CurveAccount
	cfg   Config
}

// NewAccount wraps an existing curve account state.
func NewAccount(state *domain.CurveAccount, cfg Config) (*Account, error) {
	if err := state.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.Tokens == nil || cfg.Funds == nil {
		return nil, fmt.Errorf("curve: token ledger and fund transferor are required")
	}
	if cfg.Events == nil {
		cfg.Events = domain.NopSink
	}
	return &Account{state: state, cfg: cfg}, nil
}

// State returns a deep copy of the current ledger state.
func (a *Account) State() *domain.CurveAccount {
	a.mu.Lock()
	defer a.mu.Unlock()

	cp := *a.state
	cp.ReserveBalance = new(big.Int).Set(a.state.ReserveBalance)
	cp.CollectedFees = new(big.Int).Set(a.state.CollectedFees)
	return &cp
}

// QuotePurchase prices a purchase of `value` wei. The fee is taken as
// basis points of the gross value; the net remainder drives the curve.
func (a *Account) QuotePurchase(ctx context.Context, value *big.Int) (*Quote, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quotePurchase(ctx, value)
}

func (a *Account) quotePurchase(ctx context.Context, value *big.Int) (*Quote, error) {
	if value == nil || value.Sign() <= 0 {
		return nil, ErrZeroValue
	}

	fee, err := fixedpoint.BasisPointsPercentage(value, a.state.Params.ProtocolFeeBps)
	if err != nil {
		return nil, err
	}
	net, err := fixedpoint.Sub(value, fee)
	if err != nil {
		return nil, err
	}

	supply, err := a.cfg.Tokens.TotalSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("read total supply: %w", err)
	}

	tokensOut, err := bancor.CalculatePurchaseReturn(supply, a.state.ReserveBalance, a.state.Params.ReserveRatioPPM, net)
	if err != nil {
		return nil, err
	}
	return &Quote{TokensOut: tokensOut, SaleValue: big.NewInt(0), Fee: fee}, nil
}

// Purchase quotes and applies a token purchase: the buyer pays `value`
// wei, the reserve grows by value minus fee, the fee is dispatched to
// the protocol destination and the quoted tokens are minted.
func (a *Account) Purchase(ctx context.Context, buyer domain.Address, value *big.Int) (*Quote, error) {
	if buyer.IsZero() {
		return nil, domain.ErrZeroAddress
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	q, err := a.quotePurchase(ctx, value)
	if err != nil {
		return nil, err
	}
	net := new(big.Int).Sub(value, q.Fee)

	// Effects before interactions.
	a.state.ReserveBalance.Add(a.state.ReserveBalance, net)

	if err := a.cfg.Funds.Transfer(ctx, buyer, a.state.Address, value); err != nil {
		a.state.ReserveBalance.Sub(a.state.ReserveBalance, net)
		return nil, fmt.Errorf("collect purchase value: %w", err)
	}
	if q.Fee.Sign() > 0 {
		if err := a.cfg.Funds.Transfer(ctx, a.state.Address, a.state.Params.FeeDestination, q.Fee); err != nil {
			a.compensate(ctx, a.state.Address, buyer, value)
			a.state.ReserveBalance.Sub(a.state.ReserveBalance, net)
			return nil, fmt.Errorf("dispatch protocol fee: %w", err)
		}
	}
	if err := a.cfg.Tokens.Mint(ctx, buyer, q.TokensOut); err != nil {
		a.compensate(ctx, a.state.Params.FeeDestination, a.state.Address, q.Fee)
		a.compensate(ctx, a.state.Address, buyer, value)
		a.state.ReserveBalance.Sub(a.state.ReserveBalance, net)
		return nil, fmt.Errorf("mint tokens: %w", err)
	}

	a.emit(ctx, domain.EventTokenPurchased, buyer, value, q.Fee)
	return q, nil
}

// QuoteSale prices a sale of `tokensIn` tokens. The fee is taken as
// basis points of the gross sale return.
func (a *Account) QuoteSale(ctx context.Context, tokensIn *big.Int) (*Quote, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quoteSale(ctx, tokensIn)
}

func (a *Account) quoteSale(ctx context.Context, tokensIn *big.Int) (*Quote, error) {
	if tokensIn == nil || tokensIn.Sign() <= 0 {
		return nil, ErrZeroValue
	}

	supply, err := a.cfg.Tokens.TotalSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("read total supply: %w", err)
	}

	saleValue, err := bancor.CalculateSaleReturn(supply, a.state.ReserveBalance, a.state.Params.ReserveRatioPPM, tokensIn)
	if err != nil {
		return nil, err
	}
	fee, err := fixedpoint.BasisPointsPercentage(saleValue, a.state.Params.ProtocolFeeBps)
	if err != nil {
		return nil, err
	}
	return &Quote{TokensOut: big.NewInt(0), SaleValue: saleValue, Fee: fee}, nil
}

// Sell quotes and applies a token sale: the seller's tokens are burned,
// the reserve shrinks by the sale value, the seller receives the net
// return, the host share of the fee accrues to the collected pool and
// the remainder is forwarded to the protocol destination.
func (a *Account) Sell(ctx context.Context, seller domain.Address, tokensIn *big.Int) (*Quote, error) {
	if seller.IsZero() {
		return nil, domain.ErrZeroAddress
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	q, err := a.quoteSale(ctx, tokensIn)
	if err != nil {
		return nil, err
	}

	hostCut, err := fixedpoint.BasisPointsPercentage(q.Fee, a.state.Params.FeeShareBps)
	if err != nil {
		return nil, err
	}
	protocolCut := new(big.Int).Sub(q.Fee, hostCut)
	sellerNet := new(big.Int).Sub(q.SaleValue, q.Fee)

	newReserve, err := fixedpoint.Sub(a.state.ReserveBalance, q.SaleValue)
	if err != nil {
		return nil, ErrInsufficientReserve
	}

	// Effects before interactions.
	prevReserve := a.state.ReserveBalance
	a.state.ReserveBalance = newReserve
	a.state.CollectedFees.Add(a.state.CollectedFees, hostCut)

	restore := func() {
		a.state.ReserveBalance = prevReserve
		a.state.CollectedFees.Sub(a.state.CollectedFees, hostCut)
	}

	if err := a.cfg.Tokens.BurnFrom(ctx, seller, tokensIn); err != nil {
		restore()
		return nil, fmt.Errorf("burn tokens: %w", err)
	}
	if err := a.cfg.Funds.Transfer(ctx, a.state.Address, seller, sellerNet); err != nil {
		a.compensateMint(ctx, seller, tokensIn)
		restore()
		return nil, fmt.Errorf("pay sale return: %w", err)
	}
	if protocolCut.Sign() > 0 {
		if err := a.cfg.Funds.Transfer(ctx, a.state.Address, a.state.Params.FeeDestination, protocolCut); err != nil {
			a.compensate(ctx, seller, a.state.Address, sellerNet)
			a.compensateMint(ctx, seller, tokensIn)
			restore()
			return nil, fmt.Errorf("dispatch protocol fee: %w", err)
		}
	}

	a.emit(ctx, domain.EventTokenSold, seller, q.SaleValue, q.Fee)
	return q, nil
}

// ClaimHostFee pays the accrued fee share out to the owner. The pool is
// zeroed before the transfer and restored if the transfer fails.
func (a *Account) ClaimHostFee(ctx context.Context, caller domain.Address) (*big.Int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.state.Params.Owner {
		return nil, ErrNotAuthorized
	}
	if a.state.CollectedFees.Sign() == 0 {
		return nil, ErrNothingToClaim
	}

	amount := a.state.CollectedFees
	a.state.CollectedFees = big.NewInt(0)

	if err := a.cfg.Funds.Transfer(ctx, a.state.Address, a.state.Params.Owner, amount); err != nil {
		a.state.CollectedFees = amount
		return nil, fmt.Errorf("pay host fee: %w", err)
	}

	a.emit(ctx, domain.EventHostFeeClaimed, caller, amount, big.NewInt(0))
	return new(big.Int).Set(amount), nil
}

// SetProtocolFeeBps updates the protocol fee. Gated by ownership or the
// FEE_SETTER role when an access checker is configured.
func (a *Account) SetProtocolFeeBps(ctx context.Context, caller domain.Address, bps int64) error {
	if err := a.authorize(ctx, caller); err != nil {
		return err
	}
	if bps < 0 || bps >= fixedpoint.BasisPointsPrecision {
		return domain.ErrFeeOutOfRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Params.ProtocolFeeBps = bps
	return nil
}

// SetFeeShareBps updates the host share of sale fees. Same gating as
// SetProtocolFeeBps.
func (a *Account) SetFeeShareBps(ctx context.Context, caller domain.Address, bps int64) error {
	if err := a.authorize(ctx, caller); err != nil {
		return err
	}
	if bps < 0 || bps >= fixedpoint.BasisPointsPrecision {
		return domain.ErrFeeOutOfRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Params.FeeShareBps = bps
	return nil
}

func (a *Account) authorize(ctx context.Context, caller domain.Address) error {
	if a.cfg.Access == nil {
		if caller == a.state.Params.Owner {
			return nil
		}
		return ErrNotAuthorized
	}

	owner, err := a.cfg.Access.CurrentOwner(ctx)
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}
	if caller == owner {
		return nil
	}
	ok, err := a.cfg.Access.HasRole(ctx, FeeSetterRole, caller)
	if err != nil {
		return fmt.Errorf("check role: %w", err)
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

// compensate reverses an already-dispatched transfer. A failing
// compensation is logged; the caller still restores local state and
// fails the operation.
func (a *Account) compensate(ctx context.Context, from, to domain.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	if err := a.cfg.Funds.Transfer(ctx, from, to, amount); err != nil && a.cfg.Logger != nil {
		a.cfg.Logger.Printf("curve %s: compensating transfer %s -> %s failed: %v", a.state.AccountID, from, to, err)
	}
}

func (a *Account) compensateMint(ctx context.Context, to domain.Address, amount *big.Int) {
	if err := a.cfg.Tokens.Mint(ctx, to, amount); err != nil && a.cfg.Logger != nil {
		a.cfg.Logger.Printf("curve %s: compensating mint for %s failed: %v", a.state.AccountID, to, err)
	}
}

func (a *Account) emit(ctx context.Context, typ domain.EventType, actor domain.Address, amount, fee *big.Int) {
	ev := &domain.MarketEvent{
		Type:      typ,
		EntityID:  a.state.AccountID,
		Actor:     actor,
		Amount:    new(big.Int).Set(amount),
		Fee:       new(big.Int).Set(fee),
		Timestamp: a.now(),
	}
	ev.EventID = idhash.ComputeEventID(ev)
	if err := a.cfg.Events.Publish(ctx, ev); err != nil && a.cfg.Logger != nil {
		a.cfg.Logger.Printf("curve %s: publish %s event: %v", a.state.AccountID, typ, err)
	}
}

func (a *Account) now() int64 {
	if a.cfg.Now != nil {
		return a.cfg.Now()
	}
	return nowMillis()
}

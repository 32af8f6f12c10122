// Package campaign implements the sponsorship escrow state machine:
// sponsor request -> accept/reject -> fund release. Pending sponsor
// funds are held at the escrow custody address and move into a
// campaign's raised total only on acceptance; the host withdraws after
// completion, minus the basis-points protocol fee.
//
// Campaign lifecycle: created -> active (sponsors/tips) -> deadline
// reached -> completed -> withdrawn -> terminal. A zeroed deadline and
// zero slots mark the terminal state.
package campaign

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/fixedpoint"
	"creator-token-engine/internal/idhash"
)

// Config wires the escrow's collaborators.
type Config struct {
	Funds          domain.FundTransferor
	EscrowAddress  domain.Address // custody for pending and raised funds
	FeeDestination domain.Address
	ProtocolFeeBps int64        // withdrawal fee, 0 <= x < 10000
	Events         domain.EventSink // optional
	Logger         *log.Logger      // optional
	Now            func() int64     // seconds clock; time.Now based when nil
	Salt           func() int64     // entropy for ID collision retries
}

// Escrow is the campaign registry and state machine. The registry map
// has its own lock; each campaign is guarded by a per-campaign mutex so
// independent campaigns proceed in parallel.
type Escrow struct {
	cfg Config

	mu        sync.Mutex
	campaigns map[string]*campaignState
}

type campaignState struct {
	mu       sync.Mutex
	campaign *domain.Campaign
	pending  map[domain.Address]*domain.SponsorRequest
	accepted []*domain.Sponsor
}

// NewEscrow creates an empty campaign escrow.
func NewEscrow(cfg Config) (*Escrow, error) {
	if cfg.Funds == nil {
		return nil, fmt.Errorf("campaign: fund transferor is required")
	}
	if cfg.EscrowAddress.IsZero() {
		return nil, fmt.Errorf("escrow address: %w", domain.ErrZeroAddress)
	}
	if cfg.FeeDestination.IsZero() {
		return nil, fmt.Errorf("fee destination: %w", domain.ErrZeroAddress)
	}
	if cfg.ProtocolFeeBps < 0 || cfg.ProtocolFeeBps >= fixedpoint.BasisPointsPrecision {
		return nil, domain.ErrFeeOutOfRange
	}
	if cfg.Events == nil {
		cfg.Events = domain.NopSink
	}
	if cfg.Now == nil {
		cfg.Now = func() int64 { return time.Now().Unix() }
	}
	if cfg.Salt == nil {
		cfg.Salt = func() int64 { return time.Now().UnixNano() }
	}
	return &Escrow{cfg: cfg, campaigns: make(map[string]*campaignState)}, nil
}

// CreateCampaign registers a new campaign. The ID is the content hash
// of (deadline, slotPrice, host, slots); on collision the hash is
// salted from the configured entropy source until unique.
func (e *Escrow) CreateCampaign(ctx context.Context, host domain.Address, deadline int64, slotPrice *big.Int, slots uint32) (*domain.Campaign, error) {
	if host.IsZero() {
		return nil, domain.ErrZeroAddress
	}
	if deadline <= 0 {
		return nil, ErrZeroDeadline
	}
	if slotPrice == nil || slotPrice.Sign() <= 0 {
		return nil, ErrZeroSlotPrice
	}
	if slots == 0 {
		return nil, ErrZeroSlots
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := idhash.ComputeCampaignID(deadline, slotPrice, host, slots)
	for _, exists := e.campaigns[id]; exists; _, exists = e.campaigns[id] {
		id = idhash.ComputeSaltedCampaignID(deadline, slotPrice, host, slots, e.cfg.Salt())
	}

	c := &domain.Campaign{
		CampaignID:     id,
		Host:           host,
		Deadline:       deadline,
		SlotsAvailable: slots,
		SlotPrice:      new(big.Int).Set(slotPrice),
		TotalRaised:    big.NewInt(0),
		CreatedAt:      e.cfg.Now() * 1000,
	}
	e.campaigns[id] = &campaignState{
		campaign: c,
		pending:  make(map[domain.Address]*domain.SponsorRequest),
	}

	e.emit(ctx, domain.EventCampaignCreated, id, host, slotPrice, big.NewInt(0))
	return c.Clone(), nil
}

// Get returns a copy of a campaign.
func (e *Escrow) Get(campaignID string) (*domain.Campaign, error) {
	st, err := e.lookup(campaignID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.campaign.Clone(), nil
}

// PendingRequest returns a copy of a sponsor's outstanding request.
func (e *Escrow) PendingRequest(campaignID string, sponsor domain.Address) (*domain.SponsorRequest, error) {
	st, err := e.lookup(campaignID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	req, ok := st.pending[sponsor]
	if !ok {
		return nil, ErrNoPendingRequest
	}
	return req.Clone(), nil
}

// AcceptedSponsors returns copies of the accepted sponsor records.
func (e *Escrow) AcceptedSponsors(campaignID string) ([]*domain.Sponsor, error) {
	st, err := e.lookup(campaignID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]*domain.Sponsor, 0, len(st.accepted))
	for _, s := range st.accepted {
		cp := *s
		cp.PaidAmount = new(big.Int).Set(s.PaidAmount)
		out = append(out, &cp)
	}
	return out, nil
}

// RequestToSponsor escrows `value` wei against a promotional slot.
// The funds stay pending until the host accepts or the request is
// refunded; slots and the raised total are untouched here.
func (e *Escrow) RequestToSponsor(ctx context.Context, campaignID string, sponsor domain.Address, value *big.Int) error {
	if sponsor.IsZero() {
		return domain.ErrZeroAddress
	}
	st, err := e.lookup(campaignID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	c := st.campaign
	if c.IsExpired(e.cfg.Now()) {
		return ErrCampaignOver
	}
	if c.SlotsAvailable == 0 {
		return ErrNoSlotsAvailable
	}
	if value == nil || value.Cmp(c.SlotPrice) < 0 {
		return ErrValueBelowSlotPrice
	}
	if _, exists := st.pending[sponsor]; exists {
		return ErrPendingExists
	}

	req := &domain.SponsorRequest{
		CampaignID:   campaignID,
		Sponsor:      sponsor,
		PendingFunds: new(big.Int).Set(value),
		RequestedAt:  e.cfg.Now() * 1000,
	}
	st.pending[sponsor] = req

	if err := e.cfg.Funds.Transfer(ctx, sponsor, e.cfg.EscrowAddress, value); err != nil {
		delete(st.pending, sponsor)
		return fmt.Errorf("escrow sponsor funds: %w", err)
	}

	e.emit(ctx, domain.EventSponsorRequested, campaignID, sponsor, value, big.NewInt(0))
	return nil
}

// AcceptSponsor moves the slot price from the sponsor's pending funds
// into the raised total, consumes a slot and records the sponsor. Any
// pending excess above the slot price is refunded.
func (e *Escrow) AcceptSponsor(ctx context.Context, campaignID string, caller, sponsor domain.Address) error {
	st, err := e.lookup(campaignID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	c := st.campaign
	if caller != c.Host {
		return ErrNotHost
	}
	req, ok := st.pending[sponsor]
	if !ok {
		return ErrNoPendingRequest
	}
	if c.SlotsAvailable == 0 {
		return ErrNoSlotsAvailable
	}

	excess := new(big.Int).Sub(req.PendingFunds, c.SlotPrice)

	c.TotalRaised.Add(c.TotalRaised, c.SlotPrice)
	c.SlotsAvailable--
	delete(st.pending, sponsor)
	st.accepted = append(st.accepted, &domain.Sponsor{
		CampaignID: campaignID,
		Sponsor:    sponsor,
		PaidAmount: new(big.Int).Set(c.SlotPrice),
		AcceptedAt: e.cfg.Now() * 1000,
	})

	if excess.Sign() > 0 {
		if err := e.cfg.Funds.Transfer(ctx, e.cfg.EscrowAddress, sponsor, excess); err != nil {
			st.accepted = st.accepted[:len(st.accepted)-1]
			st.pending[sponsor] = req
			c.SlotsAvailable++
			c.TotalRaised.Sub(c.TotalRaised, c.SlotPrice)
			return fmt.Errorf("refund sponsor excess: %w", err)
		}
	}

	e.emit(ctx, domain.EventSponsorAccepted, campaignID, sponsor, c.SlotPrice, big.NewInt(0))
	return nil
}

// RejectSponsor refunds a pending request. Host only.
func (e *Escrow) RejectSponsor(ctx context.Context, campaignID string, caller, sponsor domain.Address) error {
	st, err := e.lookup(campaignID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if caller != st.campaign.Host {
		return ErrNotHost
	}
	return e.refundPending(ctx, st, sponsor, domain.EventSponsorRejected)
}

// WithdrawSponsorFunds refunds the caller's own pending request.
// Allowed in every campaign state: pending funds never belong to the
// campaign until accepted.
func (e *Escrow) WithdrawSponsorFunds(ctx context.Context, campaignID string, sponsor domain.Address) error {
	st, err := e.lookup(campaignID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return e.refundPending(ctx, st, sponsor, domain.EventSponsorWithdrawn)
}

// refundPending assumes the campaign lock is held.
func (e *Escrow) refundPending(ctx context.Context, st *campaignState, sponsor domain.Address, typ domain.EventType) error {
	req, ok := st.pending[sponsor]
	if !ok {
		return ErrNoPendingRequest
	}

	delete(st.pending, sponsor)
	if err := e.cfg.Funds.Transfer(ctx, e.cfg.EscrowAddress, sponsor, req.PendingFunds); err != nil {
		st.pending[sponsor] = req
		return fmt.Errorf("refund pending funds: %w", err)
	}

	e.emit(ctx, typ, st.campaign.CampaignID, sponsor, req.PendingFunds, big.NewInt(0))
	return nil
}

// TipCampaign adds `value` wei directly to the raised total. Tips need
// no approval and are accepted until the deadline.
func (e *Escrow) TipCampaign(ctx context.Context, campaignID string, tipper domain.Address, value *big.Int) error {
	if tipper.IsZero() {
		return domain.ErrZeroAddress
	}
	if value == nil || value.Sign() <= 0 {
		return ErrZeroValue
	}
	st, err := e.lookup(campaignID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	c := st.campaign
	if c.IsExpired(e.cfg.Now()) {
		return ErrCampaignOver
	}

	c.TotalRaised.Add(c.TotalRaised, value)
	if err := e.cfg.Funds.Transfer(ctx, tipper, e.cfg.EscrowAddress, value); err != nil {
		c.TotalRaised.Sub(c.TotalRaised, value)
		return fmt.Errorf("collect tip: %w", err)
	}

	e.emit(ctx, domain.EventCampaignTipped, campaignID, tipper, value, big.NewInt(0))
	return nil
}

// EndCampaign aborts an unfunded campaign before its deadline. Any
// funding at all blocks the abort; pending requests stay refundable via
// WithdrawSponsorFunds after the campaign turns terminal.
func (e *Escrow) EndCampaign(ctx context.Context, campaignID string, caller domain.Address) error {
	st, err := e.lookup(campaignID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	c := st.campaign
	if caller != c.Host {
		return ErrNotHost
	}
	if c.IsTerminal() {
		return ErrCampaignTerminal
	}
	if c.TotalRaised.Sign() != 0 {
		return ErrFundingExists
	}

	c.Deadline = 0
	c.SlotsAvailable = 0

	e.emit(ctx, domain.EventCampaignEnded, campaignID, caller, big.NewInt(0), big.NewInt(0))
	return nil
}

// CompleteCampaign finalizes a campaign after its deadline, freezing
// the raised total and zeroing deadline and slots as the terminal
// marker. Remaining pending requests become refund-only.
func (e *Escrow) CompleteCampaign(ctx context.Context, campaignID string, caller domain.Address) (*big.Int, error) {
	st, err := e.lookup(campaignID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	c := st.campaign
	if caller != c.Host {
		return nil, ErrNotHost
	}
	if c.IsTerminal() {
		return nil, ErrCampaignTerminal
	}
	if !c.IsExpired(e.cfg.Now()) {
		return nil, ErrCampaignNotOver
	}

	c.Deadline = 0
	c.SlotsAvailable = 0

	total := new(big.Int).Set(c.TotalRaised)
	e.emit(ctx, domain.EventCampaignDone, campaignID, caller, total, big.NewInt(0))
	return total, nil
}

// WithdrawFunds pays the raised total out after completion: the
// basis-points protocol fee to the fee destination, the remainder to
// the host. The raised total is zeroed only once both transfers have
// succeeded; a failed host payout is compensated by returning the fee.
func (e *Escrow) WithdrawFunds(ctx context.Context, campaignID string, caller domain.Address) (*big.Int, error) {
	st, err := e.lookup(campaignID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	c := st.campaign
	if caller != c.Host {
		return nil, ErrNotHost
	}
	if !c.IsTerminal() {
		return nil, ErrCampaignNotOver
	}
	if c.TotalRaised.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}

	fee, err := fixedpoint.BasisPointsPercentage(c.TotalRaised, e.cfg.ProtocolFeeBps)
	if err != nil {
		return nil, err
	}
	hostAmount := new(big.Int).Sub(c.TotalRaised, fee)

	if fee.Sign() > 0 {
		if err := e.cfg.Funds.Transfer(ctx, e.cfg.EscrowAddress, e.cfg.FeeDestination, fee); err != nil {
			return nil, fmt.Errorf("dispatch protocol fee: %w", err)
		}
	}
	if err := e.cfg.Funds.Transfer(ctx, e.cfg.EscrowAddress, c.Host, hostAmount); err != nil {
		e.compensate(ctx, e.cfg.FeeDestination, e.cfg.EscrowAddress, fee)
		return nil, fmt.Errorf("pay host: %w", err)
	}

	c.TotalRaised = big.NewInt(0)

	e.emit(ctx, domain.EventFundsWithdrawn, campaignID, caller, hostAmount, fee)
	return hostAmount, nil
}

func (e *Escrow) lookup(campaignID string) (*campaignState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.campaigns[campaignID]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	return st, nil
}

func (e *Escrow) compensate(ctx context.Context, from, to domain.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	if err := e.cfg.Funds.Transfer(ctx, from, to, amount); err != nil && e.cfg.Logger != nil {
		e.cfg.Logger.Printf("campaign: compensating transfer %s -> %s failed: %v", from, to, err)
	}
}

func (e *Escrow) emit(ctx context.Context, typ domain.EventType, campaignID string, actor domain.Address, amount, fee *big.Int) {
	ev := &domain.MarketEvent{
		Type:      typ,
		EntityID:  campaignID,
		Actor:     actor,
		Amount:    new(big.Int).Set(amount),
		Fee:       new(big.Int).Set(fee),
		Timestamp: e.cfg.Now() * 1000,
	}
	ev.EventID = idhash.ComputeEventID(ev)
	if err := e.cfg.Events.Publish(ctx, ev); err != nil && e.cfg.Logger != nil {
		e.cfg.Logger.Printf("campaign %s: publish %s event: %v", campaignID, typ, err)
	}
}

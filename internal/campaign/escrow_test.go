package campaign

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/wallet"
)

var (
	host       = domain.AddressFromSeed("host")
	sponsor1   = domain.AddressFromSeed("sponsor-1")
	sponsor2   = domain.AddressFromSeed("sponsor-2")
	tipper     = domain.AddressFromSeed("tipper")
	escrowAddr = domain.AddressFromSeed("escrow-custody")
	feeDest    = domain.AddressFromSeed("fee-destination")
	outsider   = domain.AddressFromSeed("outsider")
)

type fixture struct {
	escrow *Escrow
	funds  *wallet.Ledger
	clock  *atomic.Int64
}

func newFixture(t *testing.T, feeBps int64) *fixture {
	t.Helper()

	var clock atomic.Int64
	clock.Store(1000)

	funds := wallet.NewLedger()
	esc, err := NewEscrow(Config{
		Funds:          funds,
		EscrowAddress:  escrowAddr,
		FeeDestination: feeDest,
		ProtocolFeeBps: feeBps,
		Now:            clock.Load,
		Salt:           func() int64 { return 1 },
	})
	if err != nil {
		t.Fatalf("NewEscrow failed: %v", err)
	}

	ctx := context.Background()
	for _, addr := range []domain.Address{sponsor1, sponsor2, tipper} {
		if err := funds.Deposit(ctx, addr, big.NewInt(10_000)); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}
	return &fixture{escrow: esc, funds: funds, clock: &clock}
}

func (f *fixture) balance(t *testing.T, addr domain.Address) *big.Int {
	t.Helper()
	bal, err := f.funds.Balance(context.Background(), addr)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	return bal
}

func (f *fixture) create(t *testing.T, deadline int64, slotPrice int64, slots uint32) *domain.Campaign {
	t.Helper()
	c, err := f.escrow.CreateCampaign(context.Background(), host, deadline, big.NewInt(slotPrice), slots)
	if err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}
	return c
}

func TestCreateCampaign_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 250)

	if _, err := f.escrow.CreateCampaign(ctx, domain.ZeroAddress, 2000, big.NewInt(100), 3); !errors.Is(err, domain.ErrZeroAddress) {
		t.Errorf("Expected ErrZeroAddress, got %v", err)
	}
	if _, err := f.escrow.CreateCampaign(ctx, host, 0, big.NewInt(100), 3); !errors.Is(err, ErrZeroDeadline) {
		t.Errorf("Expected ErrZeroDeadline, got %v", err)
	}
	if _, err := f.escrow.CreateCampaign(ctx, host, 2000, big.NewInt(0), 3); !errors.Is(err, ErrZeroSlotPrice) {
		t.Errorf("Expected ErrZeroSlotPrice, got %v", err)
	}
	if _, err := f.escrow.CreateCampaign(ctx, host, 2000, big.NewInt(100), 0); !errors.Is(err, ErrZeroSlots) {
		t.Errorf("Expected ErrZeroSlots, got %v", err)
	}
}

func TestCreateCampaign_SaltsOnCollision(t *testing.T) {
	f := newFixture(t, 250)

	a := f.create(t, 2000, 100, 3)
	b := f.create(t, 2000, 100, 3)
	if a.CampaignID == b.CampaignID {
		t.Errorf("Expected distinct IDs for identical parameters, got %s twice", a.CampaignID)
	}
}

func TestLifecycle_AcceptTipCompleteWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 250) // 2.5% withdrawal fee

	c := f.create(t, 2000, 100, 3)

	// Sponsor escrows 150 against a 100 wei slot.
	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, sponsor1, big.NewInt(150)); err != nil {
		t.Fatalf("RequestToSponsor failed: %v", err)
	}
	if got := f.balance(t, sponsor1); got.Cmp(big.NewInt(9850)) != 0 {
		t.Errorf("Expected sponsor balance 9850, got %s", got)
	}
	if got := f.balance(t, escrowAddr); got.Cmp(big.NewInt(150)) != 0 {
		t.Errorf("Expected escrow balance 150, got %s", got)
	}

	req, err := f.escrow.PendingRequest(c.CampaignID, sponsor1)
	if err != nil {
		t.Fatalf("PendingRequest failed: %v", err)
	}
	if req.PendingFunds.Cmp(big.NewInt(150)) != 0 {
		t.Errorf("Expected pending funds 150, got %s", req.PendingFunds)
	}

	// Acceptance consumes a slot and refunds the 50 wei excess.
	if err := f.escrow.AcceptSponsor(ctx, c.CampaignID, host, sponsor1); err != nil {
		t.Fatalf("AcceptSponsor failed: %v", err)
	}
	got, err := f.escrow.Get(c.CampaignID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TotalRaised.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("Expected raised 100, got %s", got.TotalRaised)
	}
	if got.SlotsAvailable != 2 {
		t.Errorf("Expected 2 slots left, got %d", got.SlotsAvailable)
	}
	if bal := f.balance(t, sponsor1); bal.Cmp(big.NewInt(9900)) != 0 {
		t.Errorf("Expected excess refunded, sponsor balance 9900, got %s", bal)
	}
	if _, err := f.escrow.PendingRequest(c.CampaignID, sponsor1); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("Expected pending request consumed, got %v", err)
	}

	accepted, err := f.escrow.AcceptedSponsors(c.CampaignID)
	if err != nil {
		t.Fatalf("AcceptedSponsors failed: %v", err)
	}
	if len(accepted) != 1 || accepted[0].Sponsor != sponsor1 || accepted[0].PaidAmount.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("Unexpected accepted record: %+v", accepted)
	}

	// Tips need no approval.
	if err := f.escrow.TipCampaign(ctx, c.CampaignID, tipper, big.NewInt(30)); err != nil {
		t.Fatalf("TipCampaign failed: %v", err)
	}
	got, _ = f.escrow.Get(c.CampaignID)
	if got.TotalRaised.Cmp(big.NewInt(130)) != 0 {
		t.Errorf("Expected raised 130 after tip, got %s", got.TotalRaised)
	}

	// Completion only after the deadline.
	if _, err := f.escrow.CompleteCampaign(ctx, c.CampaignID, host); !errors.Is(err, ErrCampaignNotOver) {
		t.Errorf("Expected ErrCampaignNotOver before deadline, got %v", err)
	}
	f.clock.Store(2001)

	total, err := f.escrow.CompleteCampaign(ctx, c.CampaignID, host)
	if err != nil {
		t.Fatalf("CompleteCampaign failed: %v", err)
	}
	if total.Cmp(big.NewInt(130)) != 0 {
		t.Errorf("Expected completed total 130, got %s", total)
	}
	got, _ = f.escrow.Get(c.CampaignID)
	if !got.IsTerminal() {
		t.Errorf("Expected terminal campaign, got deadline=%d slots=%d", got.Deadline, got.SlotsAvailable)
	}
	if _, err := f.escrow.CompleteCampaign(ctx, c.CampaignID, host); !errors.Is(err, ErrCampaignTerminal) {
		t.Errorf("Expected ErrCampaignTerminal on double complete, got %v", err)
	}

	// Withdrawal: 2.5% of 130 floors to 3, host receives 127.
	hostAmount, err := f.escrow.WithdrawFunds(ctx, c.CampaignID, host)
	if err != nil {
		t.Fatalf("WithdrawFunds failed: %v", err)
	}
	if hostAmount.Cmp(big.NewInt(127)) != 0 {
		t.Errorf("Expected host payout 127, got %s", hostAmount)
	}
	if bal := f.balance(t, host); bal.Cmp(big.NewInt(127)) != 0 {
		t.Errorf("Expected host balance 127, got %s", bal)
	}
	if bal := f.balance(t, feeDest); bal.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("Expected fee destination balance 3, got %s", bal)
	}
	if bal := f.balance(t, escrowAddr); bal.Sign() != 0 {
		t.Errorf("Expected escrow drained, got %s", bal)
	}

	if _, err := f.escrow.WithdrawFunds(ctx, c.CampaignID, host); !errors.Is(err, ErrNothingToWithdraw) {
		t.Errorf("Expected ErrNothingToWithdraw on second withdrawal, got %v", err)
	}
}

func TestRequestToSponsor_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 250)

	c := f.create(t, 2000, 100, 1)

	if err := f.escrow.RequestToSponsor(ctx, "missing", sponsor1, big.NewInt(100)); !errors.Is(err, ErrCampaignNotFound) {
		t.Errorf("Expected ErrCampaignNotFound, got %v", err)
	}
	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, domain.ZeroAddress, big.NewInt(100)); !errors.Is(err, domain.ErrZeroAddress) {
		t.Errorf("Expected ErrZeroAddress, got %v", err)
	}
	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, sponsor1, big.NewInt(99)); !errors.Is(err, ErrValueBelowSlotPrice) {
		t.Errorf("Expected ErrValueBelowSlotPrice, got %v", err)
	}

	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, sponsor1, big.NewInt(100)); err != nil {
		t.Fatalf("RequestToSponsor failed: %v", err)
	}
	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, sponsor1, big.NewInt(100)); !errors.Is(err, ErrPendingExists) {
		t.Errorf("Expected ErrPendingExists, got %v", err)
	}

	// Past the deadline every new request is rejected.
	f.clock.Store(2001)
	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, sponsor2, big.NewInt(100)); !errors.Is(err, ErrCampaignOver) {
		t.Errorf("Expected ErrCampaignOver, got %v", err)
	}
}

func TestAcceptSponsor_SlotExhaustion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 250)

	c := f.create(t, 2000, 100, 1)

	if err := f.escrow.AcceptSponsor(ctx, c.CampaignID, outsider, sponsor1); !errors.Is(err, ErrNotHost) {
		t.Errorf("Expected ErrNotHost, got %v", err)
	}
	if err := f.escrow.AcceptSponsor(ctx, c.CampaignID, host, sponsor1); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("Expected ErrNoPendingRequest, got %v", err)
	}

	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, sponsor1, big.NewInt(100)); err != nil {
		t.Fatalf("RequestToSponsor failed: %v", err)
	}
	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, sponsor2, big.NewInt(100)); err != nil {
		t.Fatalf("second RequestToSponsor failed: %v", err)
	}
	if err := f.escrow.AcceptSponsor(ctx, c.CampaignID, host, sponsor1); err != nil {
		t.Fatalf("AcceptSponsor failed: %v", err)
	}

	// The last slot is gone; the second request cannot be accepted but
	// its funds stay refundable.
	if err := f.escrow.AcceptSponsor(ctx, c.CampaignID, host, sponsor2); !errors.Is(err, ErrNoSlotsAvailable) {
		t.Errorf("Expected ErrNoSlotsAvailable, got %v", err)
	}
	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, tipper, big.NewInt(100)); !errors.Is(err, ErrNoSlotsAvailable) {
		t.Errorf("Expected ErrNoSlotsAvailable for new request, got %v", err)
	}
	if err := f.escrow.WithdrawSponsorFunds(ctx, c.CampaignID, sponsor2); err != nil {
		t.Fatalf("WithdrawSponsorFunds failed: %v", err)
	}
	if got := f.balance(t, sponsor2); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Errorf("Expected sponsor2 fully refunded, got %s", got)
	}
}

func TestRejectSponsor_Refunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 250)

	c := f.create(t, 2000, 100, 3)

	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, sponsor1, big.NewInt(250)); err != nil {
		t.Fatalf("RequestToSponsor failed: %v", err)
	}

	if err := f.escrow.RejectSponsor(ctx, c.CampaignID, outsider, sponsor1); !errors.Is(err, ErrNotHost) {
		t.Errorf("Expected ErrNotHost, got %v", err)
	}
	if err := f.escrow.RejectSponsor(ctx, c.CampaignID, host, sponsor1); err != nil {
		t.Fatalf("RejectSponsor failed: %v", err)
	}

	// The full escrowed value comes back, not just the slot price.
	if got := f.balance(t, sponsor1); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Errorf("Expected sponsor fully refunded, got %s", got)
	}
	got, _ := f.escrow.Get(c.CampaignID)
	if got.TotalRaised.Sign() != 0 || got.SlotsAvailable != 3 {
		t.Errorf("Expected campaign untouched by rejection, got raised=%s slots=%d", got.TotalRaised, got.SlotsAvailable)
	}

	if err := f.escrow.RejectSponsor(ctx, c.CampaignID, host, sponsor1); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("Expected ErrNoPendingRequest on double reject, got %v", err)
	}
}

func TestWithdrawSponsorFunds_AfterTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 250)

	c := f.create(t, 2000, 100, 3)

	if err := f.escrow.RequestToSponsor(ctx, c.CampaignID, sponsor1, big.NewInt(120)); err != nil {
		t.Fatalf("RequestToSponsor failed: %v", err)
	}

	// Complete with the request still pending.
	f.clock.Store(2001)
	if _, err := f.escrow.CompleteCampaign(ctx, c.CampaignID, host); err != nil {
		t.Fatalf("CompleteCampaign failed: %v", err)
	}

	// Pending funds never belonged to the campaign.
	if err := f.escrow.WithdrawSponsorFunds(ctx, c.CampaignID, sponsor1); err != nil {
		t.Fatalf("WithdrawSponsorFunds failed: %v", err)
	}
	if got := f.balance(t, sponsor1); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Errorf("Expected sponsor fully refunded, got %s", got)
	}
}

func TestTipCampaign_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 250)

	c := f.create(t, 2000, 100, 3)

	if err := f.escrow.TipCampaign(ctx, c.CampaignID, tipper, big.NewInt(0)); !errors.Is(err, ErrZeroValue) {
		t.Errorf("Expected ErrZeroValue, got %v", err)
	}
	if err := f.escrow.TipCampaign(ctx, c.CampaignID, domain.ZeroAddress, big.NewInt(1)); !errors.Is(err, domain.ErrZeroAddress) {
		t.Errorf("Expected ErrZeroAddress, got %v", err)
	}

	f.clock.Store(2001)
	if err := f.escrow.TipCampaign(ctx, c.CampaignID, tipper, big.NewInt(10)); !errors.Is(err, ErrCampaignOver) {
		t.Errorf("Expected ErrCampaignOver, got %v", err)
	}
}

func TestEndCampaign(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 250)

	c := f.create(t, 2000, 100, 3)

	if err := f.escrow.EndCampaign(ctx, c.CampaignID, outsider); !errors.Is(err, ErrNotHost) {
		t.Errorf("Expected ErrNotHost, got %v", err)
	}

	// Any funding blocks the abort.
	if err := f.escrow.TipCampaign(ctx, c.CampaignID, tipper, big.NewInt(5)); err != nil {
		t.Fatalf("TipCampaign failed: %v", err)
	}
	if err := f.escrow.EndCampaign(ctx, c.CampaignID, host); !errors.Is(err, ErrFundingExists) {
		t.Errorf("Expected ErrFundingExists, got %v", err)
	}

	// An unfunded campaign can be ended before its deadline.
	c2 := f.create(t, 3000, 100, 2)
	if err := f.escrow.EndCampaign(ctx, c2.CampaignID, host); err != nil {
		t.Fatalf("EndCampaign failed: %v", err)
	}
	got, _ := f.escrow.Get(c2.CampaignID)
	if !got.IsTerminal() {
		t.Errorf("Expected terminal campaign after end, got deadline=%d slots=%d", got.Deadline, got.SlotsAvailable)
	}
	if err := f.escrow.EndCampaign(ctx, c2.CampaignID, host); !errors.Is(err, ErrCampaignTerminal) {
		t.Errorf("Expected ErrCampaignTerminal on double end, got %v", err)
	}
	if _, err := f.escrow.WithdrawFunds(ctx, c2.CampaignID, host); !errors.Is(err, ErrNothingToWithdraw) {
		t.Errorf("Expected ErrNothingToWithdraw for ended campaign, got %v", err)
	}
}

func TestWithdrawFunds_Gating(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 250)

	c := f.create(t, 2000, 100, 3)
	if err := f.escrow.TipCampaign(ctx, c.CampaignID, tipper, big.NewInt(100)); err != nil {
		t.Fatalf("TipCampaign failed: %v", err)
	}

	// Not withdrawable while active.
	if _, err := f.escrow.WithdrawFunds(ctx, c.CampaignID, host); !errors.Is(err, ErrCampaignNotOver) {
		t.Errorf("Expected ErrCampaignNotOver, got %v", err)
	}

	f.clock.Store(2001)
	if _, err := f.escrow.CompleteCampaign(ctx, c.CampaignID, host); err != nil {
		t.Fatalf("CompleteCampaign failed: %v", err)
	}
	if _, err := f.escrow.WithdrawFunds(ctx, c.CampaignID, outsider); !errors.Is(err, ErrNotHost) {
		t.Errorf("Expected ErrNotHost, got %v", err)
	}

	hostAmount, err := f.escrow.WithdrawFunds(ctx, c.CampaignID, host)
	if err != nil {
		t.Fatalf("WithdrawFunds failed: %v", err)
	}
	// 2.5% of 100 floors to 2.
	if hostAmount.Cmp(big.NewInt(98)) != 0 {
		t.Errorf("Expected host payout 98, got %s", hostAmount)
	}
}

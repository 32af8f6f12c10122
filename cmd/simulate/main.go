// Package main runs a deterministic marketplace scenario end to end:
// bonding curve round-trips at several deposit sizes, membership pass
// mints, and a full sponsorship campaign lifecycle. The run prints a
// markdown report and can write the trade log as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"sync/atomic"

	"creator-token-engine/internal/campaign"
	"creator-token-engine/internal/curve"
	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/idhash"
	"creator-token-engine/internal/membership"
	"creator-token-engine/internal/reporting"
	"creator-token-engine/internal/storage/memory"
	"creator-token-engine/internal/wallet"
)

// eth converts a decimal ETH count into wei.
func eth(n int64) *big.Int {
	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return wei.Mul(wei, big.NewInt(n))
}

// milliEth converts thousandths of an ETH into wei.
func milliEth(n int64) *big.Int {
	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(15), nil)
	return wei.Mul(wei, big.NewInt(n))
}

func main() {
	csvPath := flag.String("csv", "", "Write the trade log as CSV to this path")
	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	ctx := context.Background()

	// Deterministic clock, seconds since epoch.
	var clock atomic.Int64
	clock.Store(1_700_000_000)
	nowSec := func() int64 { return clock.Load() }
	nowMs := func() int64 { return clock.Load() * 1000 }

	// Actors
	creator := domain.AddressFromSeed("creator")
	alice := domain.AddressFromSeed("alice")
	bob := domain.AddressFromSeed("bob")
	sponsor := domain.AddressFromSeed("sponsor")
	tipper := domain.AddressFromSeed("tipper")
	feeDest := domain.AddressFromSeed("protocol-fee-destination")
	escrowAddr := domain.AddressFromSeed("campaign-escrow")

	// Ledgers and event log
	funds := memory.NewWalletStore()
	tokens := wallet.NewTokenLedger()
	eventStore := memory.NewMarketEventStore()

	for _, a := range []domain.Address{creator, alice, bob, sponsor, tipper} {
		if err := funds.Deposit(ctx, a, eth(100)); err != nil {
			logger.Fatalf("seed balance: %v", err)
		}
	}

	// --- Bonding curve round-trips ---

	accountID := idhash.ComputeAccountID(creator, feeDest, nowMs())
	state, err := domain.NewCurveAccount(accountID, domain.AddressFromSeed(accountID), domain.CurveParams{
		Owner:           creator,
		FeeDestination:  feeDest,
		ProtocolFeeBps:  100, // 1%
		FeeShareBps:     5000,
		InitialReserve:  eth(10),
		ReserveRatioPPM: 500_000, // 50% reserve ratio
	}, nowMs())
	if err != nil {
		logger.Fatalf("create curve account: %v", err)
	}
	// The curve account address holds the reserve.
	if err := funds.Deposit(ctx, state.Address, eth(10)); err != nil {
		logger.Fatalf("seed reserve: %v", err)
	}
	if err := tokens.MintInitial(ctx, creator, eth(1000)); err != nil {
		logger.Fatalf("seed supply: %v", err)
	}

	account, err := curve.NewAccount(state, curve.Config{
		Tokens: tokens,
		Funds:  funds,
		Events: eventStore,
		Logger: logger,
		Now:    nowMs,
	})
	if err != nil {
		logger.Fatalf("wrap curve account: %v", err)
	}

	for _, deposit := range []*big.Int{milliEth(100), eth(1), eth(5)} {
		clock.Add(60)
		quote, err := account.Purchase(ctx, alice, deposit)
		if err != nil {
			logger.Fatalf("purchase %s: %v", deposit, err)
		}
		logger.Printf("purchase %s wei -> %s tokens (fee %s)", deposit, quote.TokensOut, quote.Fee)

		clock.Add(60)
		sale, err := account.Sell(ctx, alice, quote.TokensOut)
		if err != nil {
			logger.Fatalf("sell %s tokens: %v", quote.TokensOut, err)
		}
		logger.Printf("sell %s tokens -> %s wei (fee %s)", quote.TokensOut, sale.SaleValue, sale.Fee)
	}

	clock.Add(60)
	claimed, err := account.ClaimHostFee(ctx, creator)
	if err != nil {
		logger.Fatalf("claim host fee: %v", err)
	}
	logger.Printf("host fee claimed: %s wei", claimed)

	// --- Membership passes ---

	minter, err := membership.NewMinter(membership.Params{
		GroupID:          "creator-group",
		Treasury:         creator,
		FeeDestination:   feeDest,
		ProtocolFeeBps:   100,
		InitialCost:      milliEth(10),
		ScalingFactorBps: 10_000,
	}, wallet.NewPassLedger(), funds, eventStore, logger, nowMs)
	if err != nil {
		logger.Fatalf("create minter: %v", err)
	}

	for _, buyer := range []domain.Address{alice, bob} {
		clock.Add(60)
		cost, err := minter.QuoteMint(ctx)
		if err != nil {
			logger.Fatalf("quote mint: %v", err)
		}
		passID, err := minter.Mint(ctx, buyer, cost)
		if err != nil {
			logger.Fatalf("mint pass: %v", err)
		}
		logger.Printf("pass %d minted for %s wei", passID, cost)
	}

	// --- Campaign lifecycle ---

	escrow, err := campaign.NewEscrow(campaign.Config{
		Funds:          funds,
		EscrowAddress:  escrowAddr,
		FeeDestination: feeDest,
		ProtocolFeeBps: 250, // 2.5%
		Events:         eventStore,
		Logger:         logger,
		Now:            nowSec,
		Salt:           func() int64 { return nowSec() },
	})
	if err != nil {
		logger.Fatalf("create escrow: %v", err)
	}

	deadline := nowSec() + 86_400
	c, err := escrow.CreateCampaign(ctx, creator, deadline, milliEth(100), 3)
	if err != nil {
		logger.Fatalf("create campaign: %v", err)
	}
	logger.Printf("campaign %s created, 3 slots at 0.1 ETH", c.CampaignID[:12])

	clock.Add(60)
	if err := escrow.RequestToSponsor(ctx, c.CampaignID, sponsor, milliEth(100)); err != nil {
		logger.Fatalf("request to sponsor: %v", err)
	}
	clock.Add(60)
	if err := escrow.AcceptSponsor(ctx, c.CampaignID, creator, sponsor); err != nil {
		logger.Fatalf("accept sponsor: %v", err)
	}
	clock.Add(60)
	if err := escrow.TipCampaign(ctx, c.CampaignID, tipper, milliEth(100)); err != nil {
		logger.Fatalf("tip campaign: %v", err)
	}

	// A second sponsor backs out before acceptance.
	clock.Add(60)
	if err := escrow.RequestToSponsor(ctx, c.CampaignID, bob, milliEth(150)); err != nil {
		logger.Fatalf("second sponsor request: %v", err)
	}
	clock.Add(60)
	if err := escrow.WithdrawSponsorFunds(ctx, c.CampaignID, bob); err != nil {
		logger.Fatalf("withdraw sponsor funds: %v", err)
	}

	// Jump past the deadline, complete and withdraw.
	clock.Store(deadline + 1)
	total, err := escrow.CompleteCampaign(ctx, c.CampaignID, creator)
	if err != nil {
		logger.Fatalf("complete campaign: %v", err)
	}
	logger.Printf("campaign completed, total raised %s wei", total)

	clock.Add(60)
	payout, err := escrow.WithdrawFunds(ctx, c.CampaignID, creator)
	if err != nil {
		logger.Fatalf("withdraw funds: %v", err)
	}
	logger.Printf("host payout %s wei", payout)

	// --- Report ---

	events, err := eventStore.ListByTimeRange(ctx, 0, nowMs()+1)
	if err != nil {
		logger.Fatalf("list events: %v", err)
	}

	report := reporting.BuildReport("Marketplace Simulation", events)
	fmt.Print(reporting.RenderMarkdown(report))

	if *csvPath != "" {
		if err := os.WriteFile(*csvPath, []byte(reporting.RenderCSV(report.Trades)), 0o644); err != nil {
			logger.Fatalf("write csv: %v", err)
		}
		logger.Printf("trade log written to %s", *csvPath)
	}
}

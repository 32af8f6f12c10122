package reporting

import (
	"math/big"
	"strings"
	"testing"

	"creator-token-engine/internal/domain"
)

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestFormatWei(t *testing.T) {
	tests := []struct {
		name string
		in   *big.Int
		want string
	}{
		{"nil", nil, "0"},
		{"zero", big.NewInt(0), "0"},
		{"one eth", eth(1), "1"},
		{"fraction", big.NewInt(100_000_000_000_000_000), "0.1"},
		{"one wei", big.NewInt(1), "0.000000000000000001"},
		{"mixed", new(big.Int).Add(eth(2), big.NewInt(500_000_000_000_000_000)), "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatWei(tt.in); got != tt.want {
				t.Errorf("FormatWei(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func testEvents() []*domain.MarketEvent {
	actor := domain.AddressFromSeed("actor")
	return []*domain.MarketEvent{
		{
			EventID:   "ev-sell",
			Type:      domain.EventTokenSold,
			EntityID:  "acct-1",
			Actor:     actor,
			Amount:    eth(1),
			Fee:       big.NewInt(100_000_000_000_000_000), // 0.1 ETH
			Timestamp: 3000,
		},
		{
			EventID:   "ev-buy",
			Type:      domain.EventTokenPurchased,
			EntityID:  "acct-1",
			Actor:     actor,
			Amount:    eth(2),
			Fee:       big.NewInt(200_000_000_000_000_000), // 0.2 ETH
			Timestamp: 1000,
		},
		{
			EventID:   "ev-mint",
			Type:      domain.EventMembershipMinted,
			EntityID:  "group-1",
			Actor:     actor,
			Amount:    big.NewInt(10_000_000_000_000_000),
			Fee:       big.NewInt(0),
			Timestamp: 2000,
		},
		{
			EventID:   "ev-tip",
			Type:      domain.EventCampaignTipped,
			EntityID:  "camp-1",
			Actor:     actor,
			Amount:    big.NewInt(30_000_000_000_000_000),
			Fee:       big.NewInt(0),
			Timestamp: 4000,
		},
	}
}

func TestBuildReport_Aggregates(t *testing.T) {
	r := BuildReport("test window", testEvents())

	if r.Title != "test window" {
		t.Errorf("Title mismatch: got %s", r.Title)
	}
	if r.Summary.TotalEvents != 4 {
		t.Errorf("Expected 4 events, got %d", r.Summary.TotalEvents)
	}
	if r.Summary.Purchases != 1 || r.Summary.Sales != 1 {
		t.Errorf("Expected 1 purchase and 1 sale, got %d/%d", r.Summary.Purchases, r.Summary.Sales)
	}
	if r.Summary.PassesMinted != 1 {
		t.Errorf("Expected 1 pass minted, got %d", r.Summary.PassesMinted)
	}
	if r.Summary.CampaignEvents != 1 {
		t.Errorf("Expected 1 campaign event, got %d", r.Summary.CampaignEvents)
	}
	if r.Summary.WindowStart != 1000 || r.Summary.WindowEnd != 4000 {
		t.Errorf("Unexpected window: %d-%d", r.Summary.WindowStart, r.Summary.WindowEnd)
	}

	// Gross volume covers only curve trades: 2 + 1 ETH.
	if r.Summary.GrossVolume != "3" {
		t.Errorf("Expected gross volume 3, got %s", r.Summary.GrossVolume)
	}
	// All event fees count: 0.2 + 0.1 ETH.
	if r.Summary.FeesCollected != "0.3" {
		t.Errorf("Expected fees 0.3, got %s", r.Summary.FeesCollected)
	}
}

func TestBuildReport_SortsTrades(t *testing.T) {
	r := BuildReport("order", testEvents())

	if len(r.Trades) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(r.Trades))
	}
	if r.Trades[0].Direction != "buy" || r.Trades[1].Direction != "sell" {
		t.Errorf("Expected buy before sell, got %s, %s", r.Trades[0].Direction, r.Trades[1].Direction)
	}
	if r.Trades[0].Value != "2" {
		t.Errorf("Expected buy value 2, got %s", r.Trades[0].Value)
	}
}

func TestBuildReport_EventCounts(t *testing.T) {
	r := BuildReport("counts", testEvents())

	if len(r.EventCounts) != 4 {
		t.Fatalf("Expected 4 distinct types, got %d", len(r.EventCounts))
	}
	// Sorted by event type.
	for i := 1; i < len(r.EventCounts); i++ {
		if r.EventCounts[i-1].EventType >= r.EventCounts[i].EventType {
			t.Errorf("Event counts not sorted: %s before %s", r.EventCounts[i-1].EventType, r.EventCounts[i].EventType)
		}
	}
}

func TestBuildReport_Empty(t *testing.T) {
	r := BuildReport("empty", nil)

	if r.Summary.TotalEvents != 0 {
		t.Errorf("Expected 0 events, got %d", r.Summary.TotalEvents)
	}
	if r.Summary.GrossVolume != "0" {
		t.Errorf("Expected gross volume 0, got %s", r.Summary.GrossVolume)
	}
	if len(r.Trades) != 0 || len(r.Campaigns) != 0 {
		t.Errorf("Expected no rows, got %d trades, %d campaigns", len(r.Trades), len(r.Campaigns))
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown(BuildReport("test window", testEvents()))

	if !strings.Contains(out, "# test window") {
		t.Errorf("Expected title heading, got:\n%s", out)
	}
	for _, want := range []string{"buy", "sell", "CAMPAIGN_TIPPED"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in markdown output", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	r := BuildReport("csv", testEvents())
	out := RenderCSV(r.Trades)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "timestamp_ms,direction,account_id,actor,value_eth,fee_eth" {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1000,buy,acct-1,") {
		t.Errorf("Unexpected first row: %s", lines[1])
	}
}

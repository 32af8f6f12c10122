package reporting

import (
	"math/big"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"creator-token-engine/internal/domain"
)

// weiPerEth converts wei amounts to ETH for display.
var weiPerEth = decimal.New(1, 18)

// FormatWei renders a wei amount as a decimal ETH string.
func FormatWei(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, 0).DivRound(weiPerEth, 18).String()
}

// BuildReport aggregates a slice of market events into a Report.
// Events are expected in any order; the generator sorts them.
func BuildReport(title string, events []*domain.MarketEvent) *Report {
	r := &Report{
		Title:       title,
		GeneratedAt: time.Now().UTC(),
	}

	sorted := make([]*domain.MarketEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return sorted[i].EventID < sorted[j].EventID
	})

	grossVolume := new(big.Int)
	feesCollected := new(big.Int)
	counts := make(map[domain.EventType]int)

	for _, ev := range sorted {
		counts[ev.Type]++
		r.Summary.TotalEvents++

		if r.Summary.WindowStart == 0 || ev.Timestamp < r.Summary.WindowStart {
			r.Summary.WindowStart = ev.Timestamp
		}
		if ev.Timestamp > r.Summary.WindowEnd {
			r.Summary.WindowEnd = ev.Timestamp
		}
		if ev.Fee != nil {
			feesCollected.Add(feesCollected, ev.Fee)
		}

		switch ev.Type {
		case domain.EventTokenPurchased, domain.EventTokenSold:
			direction := "buy"
			if ev.Type == domain.EventTokenSold {
				direction = "sell"
				r.Summary.Sales++
			} else {
				r.Summary.Purchases++
			}
			grossVolume.Add(grossVolume, ev.Amount)
			r.Trades = append(r.Trades, TradeRow{
				Timestamp: ev.Timestamp,
				Direction: direction,
				AccountID: ev.EntityID,
				Actor:     ev.Actor.String(),
				Value:     FormatWei(ev.Amount),
				Fee:       FormatWei(ev.Fee),
			})
		case domain.EventMembershipMinted:
			r.Summary.PassesMinted++
		case domain.EventCampaignCreated, domain.EventSponsorRequested,
			domain.EventSponsorAccepted, domain.EventSponsorRejected,
			domain.EventSponsorWithdrawn, domain.EventCampaignTipped,
			domain.EventCampaignEnded, domain.EventCampaignDone,
			domain.EventFundsWithdrawn:
			r.Summary.CampaignEvents++
			r.Campaigns = append(r.Campaigns, CampaignRow{
				Timestamp:  ev.Timestamp,
				CampaignID: ev.EntityID,
				Event:      string(ev.Type),
				Actor:      ev.Actor.String(),
				Amount:     FormatWei(ev.Amount),
			})
		}
	}

	r.Summary.GrossVolume = FormatWei(grossVolume)
	r.Summary.FeesCollected = FormatWei(feesCollected)

	for evType, count := range counts {
		r.EventCounts = append(r.EventCounts, EventCountRow{
			EventType: string(evType),
			Count:     count,
		})
	}
	sort.Slice(r.EventCounts, func(i, j int) bool {
		return r.EventCounts[i].EventType < r.EventCounts[j].EventType
	})

	return r
}

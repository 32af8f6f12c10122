package observability

import (
	"context"
	"math/big"

	"creator-token-engine/internal/domain"
)

// MetricsSink implements domain.EventSink by counting published events.
// It sits on the event fan-out next to the persistent stores.
type MetricsSink struct {
	metrics *Metrics
}

// NewMetricsSink creates a sink backed by the given metrics. A nil metrics
// uses DefaultMetrics.
func NewMetricsSink(metrics *Metrics) *MetricsSink {
	if metrics == nil {
		metrics = DefaultMetrics
	}
	return &MetricsSink{metrics: metrics}
}

// Compile-time interface check.
var _ domain.EventSink = (*MetricsSink)(nil)

// Publish implements domain.EventSink. It never returns an error.
func (s *MetricsSink) Publish(_ context.Context, ev *domain.MarketEvent) error {
	m := s.metrics
	m.EventsPublished.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case domain.EventTokenPurchased:
		m.PurchasesTotal.Inc()
		m.TradeValueWei.WithLabelValues("buy").Add(weiFloat(ev.Amount))
		m.FeesCollectedWei.WithLabelValues("purchase").Add(weiFloat(ev.Fee))
	case domain.EventTokenSold:
		m.SalesTotal.Inc()
		m.TradeValueWei.WithLabelValues("sell").Add(weiFloat(ev.Amount))
		m.FeesCollectedWei.WithLabelValues("sale").Add(weiFloat(ev.Fee))
	case domain.EventHostFeeClaimed:
		m.HostFeeClaims.Inc()
	case domain.EventMembershipMinted:
		m.PassesMinted.Inc()
		m.FeesCollectedWei.WithLabelValues("membership").Add(weiFloat(ev.Fee))
	case domain.EventCampaignCreated:
		m.CampaignsCreated.Inc()
	case domain.EventSponsorRequested:
		m.SponsorRequests.WithLabelValues("requested").Inc()
	case domain.EventSponsorAccepted:
		m.SponsorRequests.WithLabelValues("accepted").Inc()
	case domain.EventSponsorRejected:
		m.SponsorRequests.WithLabelValues("rejected").Inc()
	case domain.EventSponsorWithdrawn:
		m.SponsorRequests.WithLabelValues("withdrawn").Inc()
	case domain.EventCampaignTipped:
		m.TipsTotal.Inc()
	case domain.EventCampaignEnded:
		m.CampaignsEnded.Inc()
	case domain.EventCampaignDone:
		m.CampaignsCompleted.Inc()
	case domain.EventFundsWithdrawn:
		m.WithdrawalsTotal.Inc()
		m.FeesCollectedWei.WithLabelValues("withdrawal").Add(weiFloat(ev.Fee))
	}
	return nil
}

// weiFloat converts a wei amount to float64 for counter aggregation.
// Precision loss is acceptable for monitoring.
func weiFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

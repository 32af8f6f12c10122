package domain

import (
	"context"
	"math/big"
)

// EventType identifies a marketplace event.
type EventType string

// Event type constants.
const (
	EventTokenPurchased   EventType = "TOKEN_PURCHASED"
	EventTokenSold        EventType = "TOKEN_SOLD"
	EventHostFeeClaimed   EventType = "HOST_FEE_CLAIMED"
	EventMembershipMinted EventType = "MEMBERSHIP_MINTED"
	EventCampaignCreated  EventType = "CAMPAIGN_CREATED"
	EventSponsorRequested EventType = "SPONSOR_REQUESTED"
	EventSponsorAccepted  EventType = "SPONSOR_ACCEPTED"
	EventSponsorRejected  EventType = "SPONSOR_REJECTED"
	EventSponsorWithdrawn EventType = "SPONSOR_WITHDRAWN"
	EventCampaignTipped   EventType = "CAMPAIGN_TIPPED"
	EventCampaignEnded    EventType = "CAMPAIGN_ENDED"
	EventCampaignDone     EventType = "CAMPAIGN_COMPLETED"
	EventFundsWithdrawn   EventType = "FUNDS_WITHDRAWN"
)

// MarketEvent records one value-moving operation for off-chain
// indexing. Events are observability only and never drive control flow.
type MarketEvent struct {
	EventID   string    // deterministic hash
	Type      EventType
	EntityID  string    // curve account ID or campaign ID
	Actor     Address   // buyer, seller, sponsor, tipper or host
	Amount    *big.Int  // gross wei or token amount moved
	Fee       *big.Int  // protocol fee portion, zero when not applicable
	Timestamp int64     // Unix timestamp in milliseconds
}

// Clone returns a deep copy.
func (e *MarketEvent) Clone() *MarketEvent {
	cp := *e
	if e.Amount != nil {
		cp.Amount = new(big.Int).Set(e.Amount)
	}
	if e.Fee != nil {
		cp.Fee = new(big.Int).Set(e.Fee)
	}
	return &cp
}

// EventSink receives emitted marketplace events. Sinks must not affect
// the outcome of the operation that emitted the event; publish errors
// are logged by the caller, never propagated into ledger state.
type EventSink interface {
	Publish(ctx context.Context, ev *MarketEvent) error
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(ctx context.Context, ev *MarketEvent) error

// Publish implements EventSink.
func (f SinkFunc) Publish(ctx context.Context, ev *MarketEvent) error {
	return f(ctx, ev)
}

// NopSink discards events.
var NopSink EventSink = SinkFunc(func(context.Context, *MarketEvent) error { return nil })

// FanOutSink publishes to every sink, returning the first error after
// all sinks have been attempted.
type FanOutSink []EventSink

// Publish implements EventSink.
func (s FanOutSink) Publish(ctx context.Context, ev *MarketEvent) error {
	var firstErr error
	for _, sink := range s {
		if err := sink.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

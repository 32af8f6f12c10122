// Package reporting builds human-readable summaries of marketplace activity.
package reporting

import "time"

// Report summarizes a window of marketplace activity, typically one
// simulation run or one event-log time range.
type Report struct {
	// Metadata
	Title       string
	GeneratedAt time.Time

	// Activity Summary
	Summary ActivitySummary

	// Trade rows (sorted by timestamp)
	Trades []TradeRow

	// Campaign lifecycle rows
	Campaigns []CampaignRow

	// Event counts by type (sorted by event type)
	EventCounts []EventCountRow
}

// ActivitySummary aggregates the window.
type ActivitySummary struct {
	TotalEvents    int
	Purchases      int
	Sales          int
	PassesMinted   int
	CampaignEvents int
	// Wei totals rendered as decimal ETH strings.
	GrossVolume   string
	FeesCollected string
	WindowStart   int64 // Unix ms
	WindowEnd     int64 // Unix ms
}

// TradeRow represents one curve trade.
type TradeRow struct {
	Timestamp int64 // Unix ms
	Direction string
	AccountID string
	Actor     string
	Value     string // decimal ETH
	Fee       string // decimal ETH
}

// CampaignRow represents one campaign lifecycle event.
type CampaignRow struct {
	Timestamp  int64 // Unix ms
	CampaignID string
	Event      string
	Actor      string
	Amount     string // decimal ETH
}

// EventCountRow counts events of one type.
type EventCountRow struct {
	EventType string
	Count     int
}

package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", r.Title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Activity Summary
	sb.WriteString("## Activity Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Events | %d |\n", r.Summary.TotalEvents))
	sb.WriteString(fmt.Sprintf("| Purchases | %d |\n", r.Summary.Purchases))
	sb.WriteString(fmt.Sprintf("| Sales | %d |\n", r.Summary.Sales))
	sb.WriteString(fmt.Sprintf("| Passes Minted | %d |\n", r.Summary.PassesMinted))
	sb.WriteString(fmt.Sprintf("| Campaign Events | %d |\n", r.Summary.CampaignEvents))
	sb.WriteString(fmt.Sprintf("| Gross Volume (ETH) | %s |\n", r.Summary.GrossVolume))
	sb.WriteString(fmt.Sprintf("| Fees Collected (ETH) | %s |\n", r.Summary.FeesCollected))
	sb.WriteString(fmt.Sprintf("| Window Start (ms) | %d |\n", r.Summary.WindowStart))
	sb.WriteString(fmt.Sprintf("| Window End (ms) | %d |\n", r.Summary.WindowEnd))
	sb.WriteString("\n")

	// Trades
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Timestamp | Direction | Account | Actor | Value (ETH) | Fee (ETH) |\n")
		sb.WriteString("|-----------|-----------|---------|-------|-------------|----------|\n")
		for _, t := range r.Trades {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
				t.Timestamp, t.Direction, shortID(t.AccountID), shortID(t.Actor), t.Value, t.Fee))
		}
	} else {
		sb.WriteString("No trades recorded.\n")
	}
	sb.WriteString("\n")

	// Campaigns
	sb.WriteString("## Campaign Activity\n\n")
	if len(r.Campaigns) > 0 {
		sb.WriteString("| Timestamp | Campaign | Event | Actor | Amount (ETH) |\n")
		sb.WriteString("|-----------|----------|-------|-------|-------------|\n")
		for _, c := range r.Campaigns {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				c.Timestamp, shortID(c.CampaignID), c.Event, shortID(c.Actor), c.Amount))
		}
	} else {
		sb.WriteString("No campaign activity recorded.\n")
	}
	sb.WriteString("\n")

	// Event Counts
	sb.WriteString("## Event Counts\n\n")
	if len(r.EventCounts) > 0 {
		sb.WriteString("| Event Type | Count |\n")
		sb.WriteString("|------------|-------|\n")
		for _, c := range r.EventCounts {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", c.EventType, c.Count))
		}
	} else {
		sb.WriteString("No events recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// shortID truncates long hashes and addresses for table readability.
func shortID(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:12] + ".."
}

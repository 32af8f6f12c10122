package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders trade rows as CSV string.
func RenderCSV(trades []TradeRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("timestamp_ms,direction,account_id,actor,value_eth,fee_eth\n")

	// Rows
	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%s\n",
			t.Timestamp,
			t.Direction,
			t.AccountID,
			t.Actor,
			t.Value,
			t.Fee,
		))
	}

	return sb.String()
}

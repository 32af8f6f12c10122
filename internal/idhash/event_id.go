package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"creator-token-engine/internal/domain"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(type|entity_id|actor|amount|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(ev *domain.MarketEvent) string {
	amount := "0"
	if ev.Amount != nil {
		amount = ev.Amount.String()
	}

	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		ev.Type,
		ev.EntityID,
		ev.Actor.String(),
		amount,
		ev.Timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"creator-token-engine/internal/domain"
)

// ComputeCampaignID computes a deterministic campaign_id using SHA256.
// Formula: SHA256(deadline|slot_price|host|slots)
// Returns hex-encoded hash (64 characters).
func ComputeCampaignID(deadline int64, slotPrice *big.Int, host domain.Address, slots uint32) string {
	data := fmt.Sprintf("%d|%s|%s|%d",
		deadline,
		slotPrice.String(),
		host.String(),
		slots,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeSaltedCampaignID recomputes a campaign_id with an extra salt.
// Used only on collision: the salt comes from an external entropy
// source so the retry stays deterministic given the same inputs.
func ComputeSaltedCampaignID(deadline int64, slotPrice *big.Int, host domain.Address, slots uint32, salt int64) string {
	data := fmt.Sprintf("%d|%s|%s|%d|%d",
		deadline,
		slotPrice.String(),
		host.String(),
		slots,
		salt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

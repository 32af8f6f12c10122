package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"creator-token-engine/internal/domain"
)

// ComputeAccountID computes a deterministic curve account ID using SHA256.
// Formula: SHA256(owner|fee_destination|created_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputeAccountID(owner, feeDestination domain.Address, createdAt int64) string {
	data := fmt.Sprintf("%s|%s|%d",
		owner.String(),
		feeDestination.String(),
		createdAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

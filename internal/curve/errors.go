package curve

import "errors"

// Curve ledger errors.
var (
	// ErrZeroValue is returned for zero-valued purchases and sales.
	ErrZeroValue = errors.New("curve: zero value operation")

	// ErrInsufficientReserve is returned when a sale return exceeds the
	// reserve balance.
	ErrInsufficientReserve = errors.New("curve: insufficient reserve")

	// ErrNotAuthorized is returned when a gated operation is invoked by
	// an address that is neither the owner nor role-approved.
	ErrNotAuthorized = errors.New("curve: not authorized")

	// ErrNothingToClaim is returned when the host fee pool is empty.
	ErrNothingToClaim = errors.New("curve: no collected fees to claim")
)

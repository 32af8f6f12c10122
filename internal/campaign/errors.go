package campaign

import "errors"

// Escrow state machine errors.
var (
	ErrCampaignNotFound    = errors.New("campaign: not found")
	ErrCampaignOver        = errors.New("campaign: deadline passed")
	ErrCampaignNotOver     = errors.New("campaign: deadline not reached")
	ErrCampaignTerminal    = errors.New("campaign: already completed or ended")
	ErrNoSlotsAvailable    = errors.New("campaign: no slots available")
	ErrValueBelowSlotPrice = errors.New("campaign: value below slot price")
	ErrPendingExists       = errors.New("campaign: sponsor already has a pending request")
	ErrNoPendingRequest    = errors.New("campaign: no pending sponsor request")
	ErrNotHost             = errors.New("campaign: caller is not the host")
	ErrFundingExists       = errors.New("campaign: cannot end a funded campaign")
	ErrNothingToWithdraw   = errors.New("campaign: nothing to withdraw")

	// ErrZeroValue is returned for zero-valued tips.
	ErrZeroValue = errors.New("campaign: zero value")

	// Creation validation.
	ErrZeroDeadline  = errors.New("campaign: zero deadline")
	ErrZeroSlotPrice = errors.New("campaign: zero slot price")
	ErrZeroSlots     = errors.New("campaign: zero slots")
)

package domain

import "math/big"

// Campaign is a time-boxed sponsorship object tied to a group and host.
// A zeroed deadline together with zero slots marks the terminal state;
// TotalRaised survives completion until the host withdraws.
type Campaign struct {
	CampaignID     string   // content-addressed hash, hex
	Host           Address  // campaign creator, receives the payout
	Deadline       int64    // Unix timestamp in seconds; 0 once terminal
	SlotsAvailable uint32   // promotional slots still open
	SlotPrice      *big.Int // wei per slot
	TotalRaised    *big.Int // wei accepted from sponsors and tips
	CreatedAt      int64    // Unix timestamp in milliseconds
}

// IsTerminal reports whether the campaign has been completed or ended.
func (c *Campaign) IsTerminal() bool {
	return c.Deadline == 0 && c.SlotsAvailable == 0
}

// IsExpired reports whether the deadline has passed at the given time
// (Unix seconds). Terminal campaigns are always expired.
func (c *Campaign) IsExpired(now int64) bool {
	return now > c.Deadline
}

// Clone returns a deep copy.
func (c *Campaign) Clone() *Campaign {
	cp := *c
	cp.SlotPrice = new(big.Int).Set(c.SlotPrice)
	cp.TotalRaised = new(big.Int).Set(c.TotalRaised)
	return &cp
}

// SponsorRequest is one outstanding sponsorship request. The pending
// funds are exactly the wei supplied with the request and stay in
// escrow until the host accepts or the request is refunded. A sponsor
// has at most one outstanding request per campaign.
type SponsorRequest struct {
	CampaignID   string
	Sponsor      Address
	PendingFunds *big.Int // wei held in escrow
	RequestedAt  int64    // Unix timestamp in milliseconds
}

// Clone returns a deep copy.
func (r *SponsorRequest) Clone() *SponsorRequest {
	cp := *r
	cp.PendingFunds = new(big.Int).Set(r.PendingFunds)
	return &cp
}

// Sponsor is an accepted sponsorship record.
type Sponsor struct {
	CampaignID string
	Sponsor    Address
	PaidAmount *big.Int // wei moved into TotalRaised (the slot price)
	AcceptedAt int64    // Unix timestamp in milliseconds
}

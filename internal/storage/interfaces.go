package storage

import (
	"context"
	"math/big"

	"creator-token-engine/internal/domain"
)

// CurveAccountStore persists curve account snapshots.
type CurveAccountStore interface {
	// Insert adds a new account. Returns ErrDuplicateKey if account_id exists.
	Insert(ctx context.Context, a *domain.CurveAccount) error

	// GetByID retrieves an account by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, accountID string) (*domain.CurveAccount, error)

	// UpdateBalances overwrites the mutable reserve and fee balances.
	// Returns ErrNotFound if the account does not exist.
	UpdateBalances(ctx context.Context, accountID string, reserve, collectedFees *big.Int) error

	// List retrieves all accounts ordered by created_at ASC.
	List(ctx context.Context) ([]*domain.CurveAccount, error)
}

// CampaignStore persists campaign records.
type CampaignStore interface {
	// Insert adds a new campaign. Returns ErrDuplicateKey if campaign_id exists.
	Insert(ctx context.Context, c *domain.Campaign) error

	// GetByID retrieves a campaign by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, campaignID string) (*domain.Campaign, error)

	// Update overwrites the mutable fields (deadline, slots, total raised).
	// Returns ErrNotFound if the campaign does not exist.
	Update(ctx context.Context, c *domain.Campaign) error

	// ListByHost retrieves all campaigns created by a host, ordered by created_at ASC.
	ListByHost(ctx context.Context, host domain.Address) ([]*domain.Campaign, error)

	// ListActive retrieves campaigns whose deadline is at or after `now`
	// (Unix seconds), ordered by deadline ASC.
	ListActive(ctx context.Context, now int64) ([]*domain.Campaign, error)
}

// SponsorRequestStore persists pending sponsor requests.
type SponsorRequestStore interface {
	// Insert adds a pending request. Returns ErrDuplicateKey if
	// (campaign_id, sponsor) already has one.
	Insert(ctx context.Context, r *domain.SponsorRequest) error

	// Get retrieves the pending request for (campaign_id, sponsor).
	// Returns ErrNotFound if not exists.
	Get(ctx context.Context, campaignID string, sponsor domain.Address) (*domain.SponsorRequest, error)

	// Delete removes a resolved request. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, campaignID string, sponsor domain.Address) error

	// ListByCampaign retrieves all pending requests for a campaign,
	// ordered by requested_at ASC.
	ListByCampaign(ctx context.Context, campaignID string) ([]*domain.SponsorRequest, error)
}

// WalletStore persists account balances and moves funds between them.
// Postgres-backed implementations run Transfer in a single transaction,
// so it can serve as a durable domain.FundTransferor.
type WalletStore interface {
	// Deposit credits an account, creating it when missing.
	Deposit(ctx context.Context, addr domain.Address, amount *big.Int) error

	// Transfer atomically debits `from` and credits `to`. Returns
	// ErrInsufficientFunds when the source balance is too small.
	Transfer(ctx context.Context, from, to domain.Address, amount *big.Int) error

	// Balance returns the stored balance; zero for unknown accounts.
	Balance(ctx context.Context, addr domain.Address) (*big.Int, error)
}

// MarketEventStore persists emitted marketplace events (append-only).
type MarketEventStore interface {
	// Insert adds an event. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, ev *domain.MarketEvent) error

	// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, events []*domain.MarketEvent) error

	// ListByEntity retrieves all events for a curve account or campaign,
	// ordered by timestamp ASC.
	ListByEntity(ctx context.Context, entityID string) ([]*domain.MarketEvent, error)

	// ListByTimeRange retrieves events within [start, end] ms (inclusive),
	// ordered by timestamp ASC.
	ListByTimeRange(ctx context.Context, start, end int64) ([]*domain.MarketEvent, error)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

// CampaignStore implements storage.CampaignStore using PostgreSQL.
type CampaignStore struct {
	pool *Pool
}

// NewCampaignStore creates a new CampaignStore.
func NewCampaignStore(pool *Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CampaignStore = (*CampaignStore)(nil)

// Insert adds a new campaign. Returns ErrDuplicateKey if campaign_id exists.
func (s *CampaignStore) Insert(ctx context.Context, c *domain.Campaign) error {
	query := `
		INSERT INTO campaigns (
			campaign_id, host, deadline, slots_available, slot_price, total_raised, created_at
		) VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		c.CampaignID,
		c.Host.String(),
		c.Deadline,
		int64(c.SlotsAvailable),
		c.SlotPrice.String(),
		c.TotalRaised.String(),
		c.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// GetByID retrieves a campaign by its ID. Returns ErrNotFound if not exists.
func (s *CampaignStore) GetByID(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	query := `
		SELECT campaign_id, host, deadline, slots_available, slot_price::text, total_raised::text, created_at
		FROM campaigns
		WHERE campaign_id = $1
	`

	row := s.pool.QueryRow(ctx, query, campaignID)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// Update overwrites the mutable fields.
func (s *CampaignStore) Update(ctx context.Context, c *domain.Campaign) error {
	query := `
		UPDATE campaigns
		SET deadline = $2, slots_available = $3, total_raised = $4::numeric
		WHERE campaign_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		c.CampaignID, c.Deadline, int64(c.SlotsAvailable), c.TotalRaised.String(),
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListByHost retrieves all campaigns created by a host, ordered by created_at ASC.
func (s *CampaignStore) ListByHost(ctx context.Context, host domain.Address) ([]*domain.Campaign, error) {
	query := `
		SELECT campaign_id, host, deadline, slots_available, slot_price::text, total_raised::text, created_at
		FROM campaigns
		WHERE host = $1
		ORDER BY created_at ASC, campaign_id ASC
	`
	return s.list(ctx, query, host.String())
}

// ListActive retrieves campaigns whose deadline is at or after `now`.
func (s *CampaignStore) ListActive(ctx context.Context, now int64) ([]*domain.Campaign, error) {
	query := `
		SELECT campaign_id, host, deadline, slots_available, slot_price::text, total_raised::text, created_at
		FROM campaigns
		WHERE deadline >= $1 AND deadline != 0
		ORDER BY deadline ASC, campaign_id ASC
	`
	return s.list(ctx, query, now)
}

func (s *CampaignStore) list(ctx context.Context, query string, args ...any) ([]*domain.Campaign, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var result []*domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var (
		c                      domain.Campaign
		host                   string
		slots                  int64
		slotPrice, totalRaised string
	)
	err := row.Scan(&c.CampaignID, &host, &c.Deadline, &slots, &slotPrice, &totalRaised, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.Host = domain.Address(host)
	c.SlotsAvailable = uint32(slots)

	if c.SlotPrice, err = parseNumeric(slotPrice); err != nil {
		return nil, err
	}
	if c.TotalRaised, err = parseNumeric(totalRaised); err != nil {
		return nil, err
	}
	return &c, nil
}

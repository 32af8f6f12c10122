package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

// SponsorRequestStore implements storage.SponsorRequestStore using PostgreSQL.
type SponsorRequestStore struct {
	pool *Pool
}

// NewSponsorRequestStore creates a new SponsorRequestStore.
func NewSponsorRequestStore(pool *Pool) *SponsorRequestStore {
	return &SponsorRequestStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SponsorRequestStore = (*SponsorRequestStore)(nil)

// Insert adds a pending sponsorship request. Returns ErrDuplicateKey if the
// sponsor already has a pending request on the campaign.
func (s *SponsorRequestStore) Insert(ctx context.Context, req *domain.SponsorRequest) error {
	query := `
		INSERT INTO sponsor_requests (campaign_id, sponsor, pending_funds, requested_at)
		VALUES ($1, $2, $3::numeric, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		req.CampaignID, req.Sponsor.String(), req.PendingFunds.String(), req.RequestedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert sponsor request: %w", err)
	}
	return nil
}

// Get retrieves a pending request. Returns ErrNotFound if not exists.
func (s *SponsorRequestStore) Get(ctx context.Context, campaignID string, sponsor domain.Address) (*domain.SponsorRequest, error) {
	query := `
		SELECT campaign_id, sponsor, pending_funds::text, requested_at
		FROM sponsor_requests
		WHERE campaign_id = $1 AND sponsor = $2
	`

	row := s.pool.QueryRow(ctx, query, campaignID, sponsor.String())
	req, err := scanSponsorRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get sponsor request: %w", err)
	}
	return req, nil
}

// Delete removes a pending request. Returns ErrNotFound if not exists.
func (s *SponsorRequestStore) Delete(ctx context.Context, campaignID string, sponsor domain.Address) error {
	query := `DELETE FROM sponsor_requests WHERE campaign_id = $1 AND sponsor = $2`

	tag, err := s.pool.Exec(ctx, query, campaignID, sponsor.String())
	if err != nil {
		return fmt.Errorf("delete sponsor request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListByCampaign retrieves all pending requests for a campaign, ordered by requested_at ASC.
func (s *SponsorRequestStore) ListByCampaign(ctx context.Context, campaignID string) ([]*domain.SponsorRequest, error) {
	query := `
		SELECT campaign_id, sponsor, pending_funds::text, requested_at
		FROM sponsor_requests
		WHERE campaign_id = $1
		ORDER BY requested_at ASC, sponsor ASC
	`

	rows, err := s.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list sponsor requests: %w", err)
	}
	defer rows.Close()

	var result []*domain.SponsorRequest
	for rows.Next() {
		req, err := scanSponsorRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sponsor request: %w", err)
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func scanSponsorRequest(row pgx.Row) (*domain.SponsorRequest, error) {
	var (
		req     domain.SponsorRequest
		sponsor string
		pending string
	)
	err := row.Scan(&req.CampaignID, &sponsor, &pending, &req.RequestedAt)
	if err != nil {
		return nil, err
	}

	req.Sponsor = domain.Address(sponsor)
	if req.PendingFunds, err = parseNumeric(pending); err != nil {
		return nil, err
	}
	return &req, nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

// CampaignStore is an in-memory implementation of storage.CampaignStore.
type CampaignStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Campaign
}

// NewCampaignStore creates a new in-memory campaign store.
func NewCampaignStore() *CampaignStore {
	return &CampaignStore{data: make(map[string]*domain.Campaign)}
}

// Insert adds a new campaign. Returns ErrDuplicateKey if exists.
func (s *CampaignStore) Insert(_ context.Context, c *domain.Campaign) error {
	if c == nil || c.CampaignID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.CampaignID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[c.CampaignID] = c.Clone()
	return nil
}

// GetByID retrieves a campaign by its ID. Returns ErrNotFound if not exists.
func (s *CampaignStore) GetByID(_ context.Context, campaignID string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[campaignID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c.Clone(), nil
}

// Update overwrites the mutable fields.
func (s *CampaignStore) Update(_ context.Context, c *domain.Campaign) error {
	if c == nil || c.CampaignID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.data[c.CampaignID]
	if !ok {
		return storage.ErrNotFound
	}
	stored.Deadline = c.Deadline
	stored.SlotsAvailable = c.SlotsAvailable
	stored.TotalRaised.Set(c.TotalRaised)
	return nil
}

// ListByHost retrieves all campaigns created by a host, ordered by created_at ASC.
func (s *CampaignStore) ListByHost(_ context.Context, host domain.Address) ([]*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Campaign
	for _, c := range s.data {
		if c.Host == host {
			result = append(result, c.Clone())
		}
	}
	sortCampaigns(result)
	return result, nil
}

// ListActive retrieves campaigns whose deadline is at or after `now`.
func (s *CampaignStore) ListActive(_ context.Context, now int64) ([]*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Campaign
	for _, c := range s.data {
		if c.Deadline >= now && c.Deadline != 0 {
			result = append(result, c.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Deadline != result[j].Deadline {
			return result[i].Deadline < result[j].Deadline
		}
		return result[i].CampaignID < result[j].CampaignID
	})

	return result, nil
}

func sortCampaigns(cs []*domain.Campaign) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].CreatedAt != cs[j].CreatedAt {
			return cs[i].CreatedAt < cs[j].CreatedAt
		}
		return cs[i].CampaignID < cs[j].CampaignID
	})
}

var _ storage.CampaignStore = (*CampaignStore)(nil)

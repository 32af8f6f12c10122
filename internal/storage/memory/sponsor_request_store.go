package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

// SponsorRequestStore is an in-memory implementation of storage.SponsorRequestStore.
type SponsorRequestStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SponsorRequest // keyed by composite key
}

// NewSponsorRequestStore creates a new in-memory sponsor request store.
func NewSponsorRequestStore() *SponsorRequestStore {
	return &SponsorRequestStore{data: make(map[string]*domain.SponsorRequest)}
}

// requestKey generates a unique key for a request.
func requestKey(campaignID string, sponsor domain.Address) string {
	return fmt.Sprintf("%s|%s", campaignID, sponsor)
}

// Insert adds a pending request. Returns ErrDuplicateKey if exists.
func (s *SponsorRequestStore) Insert(_ context.Context, r *domain.SponsorRequest) error {
	if r == nil || r.CampaignID == "" || r.Sponsor.IsZero() {
		return storage.ErrInvalidInput
	}

	key := requestKey(r.CampaignID, r.Sponsor)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[key] = r.Clone()
	return nil
}

// Get retrieves the pending request for (campaign_id, sponsor).
func (s *SponsorRequestStore) Get(_ context.Context, campaignID string, sponsor domain.Address) (*domain.SponsorRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[requestKey(campaignID, sponsor)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// Delete removes a resolved request. Returns ErrNotFound if not exists.
func (s *SponsorRequestStore) Delete(_ context.Context, campaignID string, sponsor domain.Address) error {
	key := requestKey(campaignID, sponsor)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.data, key)
	return nil
}

// ListByCampaign retrieves all pending requests for a campaign, ordered by requested_at ASC.
func (s *SponsorRequestStore) ListByCampaign(_ context.Context, campaignID string) ([]*domain.SponsorRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SponsorRequest
	for _, r := range s.data {
		if r.CampaignID == campaignID {
			result = append(result, r.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RequestedAt != result[j].RequestedAt {
			return result[i].RequestedAt < result[j].RequestedAt
		}
		return result[i].Sponsor < result[j].Sponsor
	})

	return result, nil
}

var _ storage.SponsorRequestStore = (*SponsorRequestStore)(nil)

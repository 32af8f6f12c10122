package memory

import (
	"context"
	"sort"
	"sync"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

// MarketEventStore is an in-memory implementation of storage.MarketEventStore.
type MarketEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MarketEvent
}

// NewMarketEventStore creates a new in-memory market event store.
func NewMarketEventStore() *MarketEventStore {
	return &MarketEventStore{data: make(map[string]*domain.MarketEvent)}
}

// Insert adds an event. Returns ErrDuplicateKey if exists.
func (s *MarketEventStore) Insert(_ context.Context, ev *domain.MarketEvent) error {
	if ev == nil || ev.EventID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[ev.EventID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[ev.EventID] = ev.Clone()
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *MarketEventStore) InsertBulk(_ context.Context, events []*domain.MarketEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev == nil || ev.EventID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[ev.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[ev.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[ev.EventID] = struct{}{}
	}

	for _, ev := range events {
		s.data[ev.EventID] = ev.Clone()
	}
	return nil
}

// ListByEntity retrieves all events for an entity, ordered by timestamp ASC.
func (s *MarketEventStore) ListByEntity(_ context.Context, entityID string) ([]*domain.MarketEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketEvent
	for _, ev := range s.data {
		if ev.EntityID == entityID {
			result = append(result, ev.Clone())
		}
	}
	sortEvents(result)
	return result, nil
}

// ListByTimeRange retrieves events within [start, end] ms (inclusive).
func (s *MarketEventStore) ListByTimeRange(_ context.Context, start, end int64) ([]*domain.MarketEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketEvent
	for _, ev := range s.data {
		if ev.Timestamp >= start && ev.Timestamp <= end {
			result = append(result, ev.Clone())
		}
	}
	sortEvents(result)
	return result, nil
}

// Publish implements domain.EventSink so the store can sit directly on
// the event fan-out.
func (s *MarketEventStore) Publish(ctx context.Context, ev *domain.MarketEvent) error {
	return s.Insert(ctx, ev)
}

func sortEvents(evs []*domain.MarketEvent) {
	sort.Slice(evs, func(i, j int) bool {
		if evs[i].Timestamp != evs[j].Timestamp {
			return evs[i].Timestamp < evs[j].Timestamp
		}
		return evs[i].EventID < evs[j].EventID
	})
}

var _ storage.MarketEventStore = (*MarketEventStore)(nil)
var _ domain.EventSink = (*MarketEventStore)(nil)

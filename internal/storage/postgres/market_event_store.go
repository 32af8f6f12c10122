package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

// MarketEventStore implements storage.MarketEventStore using PostgreSQL.
type MarketEventStore struct {
	pool *Pool
}

// NewMarketEventStore creates a new MarketEventStore.
func NewMarketEventStore(pool *Pool) *MarketEventStore {
	return &MarketEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketEventStore = (*MarketEventStore)(nil)

// Insert adds a market event. Returns ErrDuplicateKey if event_id exists.
func (s *MarketEventStore) Insert(ctx context.Context, ev *domain.MarketEvent) error {
	query := `
		INSERT INTO market_events (event_id, event_type, entity_id, actor, amount, fee, event_timestamp)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		ev.EventID,
		string(ev.Type),
		ev.EntityID,
		ev.Actor.String(),
		ev.Amount.String(),
		ev.Fee.String(),
		ev.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert market event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple events in a single batch. Duplicates are skipped.
func (s *MarketEventStore) InsertBulk(ctx context.Context, events []*domain.MarketEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := `
		INSERT INTO market_events (event_id, event_type, entity_id, actor, amount, fee, event_timestamp)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)
		ON CONFLICT (event_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(query,
			ev.EventID, string(ev.Type), ev.EntityID, ev.Actor.String(),
			ev.Amount.String(), ev.Fee.String(), ev.Timestamp,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert market events batch: %w", err)
		}
	}
	return nil
}

// ListByEntity retrieves events for an entity (curve account or campaign),
// ordered by timestamp ASC.
func (s *MarketEventStore) ListByEntity(ctx context.Context, entityID string) ([]*domain.MarketEvent, error) {
	query := `
		SELECT event_id, event_type, entity_id, actor, amount::text, fee::text, event_timestamp
		FROM market_events
		WHERE entity_id = $1
		ORDER BY event_timestamp ASC, event_id ASC
	`
	return s.list(ctx, query, entityID)
}

// ListByTimeRange retrieves events within [from, to] millisecond timestamps,
// ordered by timestamp ASC.
func (s *MarketEventStore) ListByTimeRange(ctx context.Context, from, to int64) ([]*domain.MarketEvent, error) {
	query := `
		SELECT event_id, event_type, entity_id, actor, amount::text, fee::text, event_timestamp
		FROM market_events
		WHERE event_timestamp >= $1 AND event_timestamp <= $2
		ORDER BY event_timestamp ASC, event_id ASC
	`
	return s.list(ctx, query, from, to)
}

func (s *MarketEventStore) list(ctx context.Context, query string, args ...any) ([]*domain.MarketEvent, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list market events: %w", err)
	}
	defer rows.Close()

	var result []*domain.MarketEvent
	for rows.Next() {
		ev, err := scanMarketEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan market event: %w", err)
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

func scanMarketEvent(row pgx.Row) (*domain.MarketEvent, error) {
	var (
		ev          domain.MarketEvent
		evType      string
		actor       string
		amount, fee string
	)
	err := row.Scan(&ev.EventID, &evType, &ev.EntityID, &actor, &amount, &fee, &ev.Timestamp)
	if err != nil {
		return nil, err
	}

	ev.Type = domain.EventType(evType)
	ev.Actor = domain.Address(actor)

	if ev.Amount, err = parseNumeric(amount); err != nil {
		return nil, err
	}
	if ev.Fee, err = parseNumeric(fee); err != nil {
		return nil, err
	}
	return &ev, nil
}

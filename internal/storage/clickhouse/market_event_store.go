package clickhouse

import (
	"context"
	"fmt"
	"math/big"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

// MarketEventStore implements storage.MarketEventStore using ClickHouse.
// Amounts are stored as decimal strings so arbitrary wei-scale values
// survive the round trip without precision loss.
type MarketEventStore struct {
	conn *Conn
}

// NewMarketEventStore creates a new MarketEventStore.
func NewMarketEventStore(conn *Conn) *MarketEventStore {
	return &MarketEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MarketEventStore = (*MarketEventStore)(nil)

// Insert adds a market event. Returns ErrDuplicateKey if event_id exists.
func (s *MarketEventStore) Insert(ctx context.Context, ev *domain.MarketEvent) error {
	return s.InsertBulk(ctx, []*domain.MarketEvent{ev})
}

// InsertBulk adds multiple events in one batch. Fails the entire batch
// on a duplicate event_id, either intra-batch or against existing rows.
func (s *MarketEventStore) InsertBulk(ctx context.Context, events []*domain.MarketEvent) error {
	if len(events) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{})
	for _, ev := range events {
		if _, exists := seen[ev.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[ev.EventID] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, ev := range events {
		exists, err := s.exists(ctx, ev.EventID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO market_events (
			event_id, event_type, entity_id, actor, amount, fee, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, ev := range events {
		err = batch.Append(
			ev.EventID, string(ev.Type), ev.EntityID, ev.Actor.String(),
			ev.Amount.String(), ev.Fee.String(), uint64(ev.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// ListByEntity retrieves events for an entity, ordered by timestamp ASC.
func (s *MarketEventStore) ListByEntity(ctx context.Context, entityID string) ([]*domain.MarketEvent, error) {
	query := `
		SELECT event_id, event_type, entity_id, actor, amount, fee, timestamp_ms
		FROM market_events
		WHERE entity_id = ?
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("query by entity id: %w", err)
	}
	defer rows.Close()

	return scanMarketEvents(rows)
}

// ListByTimeRange retrieves events within [from, to] (inclusive, milliseconds),
// ordered by timestamp ASC.
func (s *MarketEventStore) ListByTimeRange(ctx context.Context, from, to int64) ([]*domain.MarketEvent, error) {
	query := `
		SELECT event_id, event_type, entity_id, actor, amount, fee, timestamp_ms
		FROM market_events
		WHERE timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(from), uint64(to))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanMarketEvents(rows)
}

// exists checks if an event with the given ID exists.
func (s *MarketEventStore) exists(ctx context.Context, eventID string) (bool, error) {
	query := `SELECT count(*) FROM market_events WHERE event_id = ?`

	var count uint64
	err := s.conn.QueryRow(ctx, query, eventID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanMarketEvents scans multiple rows into a slice.
func scanMarketEvents(rows chRows) ([]*domain.MarketEvent, error) {
	var events []*domain.MarketEvent

	for rows.Next() {
		var (
			ev          domain.MarketEvent
			evType      string
			actor       string
			amount, fee string
			timestampMs uint64
		)

		err := rows.Scan(&ev.EventID, &evType, &ev.EntityID, &actor, &amount, &fee, &timestampMs)
		if err != nil {
			return nil, fmt.Errorf("scan market event row: %w", err)
		}

		ev.Type = domain.EventType(evType)
		ev.Actor = domain.Address(actor)
		ev.Timestamp = int64(timestampMs)

		var ok bool
		if ev.Amount, ok = new(big.Int).SetString(amount, 10); !ok {
			return nil, fmt.Errorf("parse amount %q", amount)
		}
		if ev.Fee, ok = new(big.Int).SetString(fee, 10); !ok {
			return nil, fmt.Errorf("parse fee %q", fee)
		}

		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market event rows: %w", err)
	}

	return events, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"

	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/storage"
)

// CurveAccountStore implements storage.CurveAccountStore using PostgreSQL.
type CurveAccountStore struct {
	pool *Pool
}

// NewCurveAccountStore creates a new CurveAccountStore.
func NewCurveAccountStore(pool *Pool) *CurveAccountStore {
	return &CurveAccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CurveAccountStore = (*CurveAccountStore)(nil)

// Insert adds a new account. Returns ErrDuplicateKey if account_id exists.
func (s *CurveAccountStore) Insert(ctx context.Context, a *domain.CurveAccount) error {
	query := `
		INSERT INTO curve_accounts (
			account_id, address, owner_address, fee_destination,
			protocol_fee_bps, fee_share_bps, initial_reserve, reserve_ratio_ppm,
			max_gas_limit, reserve_balance, collected_fees, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10::numeric, $11::numeric, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		a.AccountID,
		a.Address.String(),
		a.Params.Owner.String(),
		a.Params.FeeDestination.String(),
		a.Params.ProtocolFeeBps,
		a.Params.FeeShareBps,
		a.Params.InitialReserve.String(),
		a.Params.ReserveRatioPPM,
		int64(a.Params.MaxGasLimit),
		a.ReserveBalance.String(),
		a.CollectedFees.String(),
		a.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert curve account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID. Returns ErrNotFound if not exists.
func (s *CurveAccountStore) GetByID(ctx context.Context, accountID string) (*domain.CurveAccount, error) {
	query := `
		SELECT account_id, address, owner_address, fee_destination,
		       protocol_fee_bps, fee_share_bps, initial_reserve::text, reserve_ratio_ppm,
		       max_gas_limit, reserve_balance::text, collected_fees::text, created_at
		FROM curve_accounts
		WHERE account_id = $1
	`

	row := s.pool.QueryRow(ctx, query, accountID)
	a, err := scanCurveAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get curve account: %w", err)
	}
	return a, nil
}

// UpdateBalances overwrites the mutable reserve and fee balances.
func (s *CurveAccountStore) UpdateBalances(ctx context.Context, accountID string, reserve, collectedFees *big.Int) error {
	query := `
		UPDATE curve_accounts
		SET reserve_balance = $2::numeric, collected_fees = $3::numeric
		WHERE account_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, accountID, reserve.String(), collectedFees.String())
	if err != nil {
		return fmt.Errorf("update curve account balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List retrieves all accounts ordered by created_at ASC.
func (s *CurveAccountStore) List(ctx context.Context) ([]*domain.CurveAccount, error) {
	query := `
		SELECT account_id, address, owner_address, fee_destination,
		       protocol_fee_bps, fee_share_bps, initial_reserve::text, reserve_ratio_ppm,
		       max_gas_limit, reserve_balance::text, collected_fees::text, created_at
		FROM curve_accounts
		ORDER BY created_at ASC, account_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list curve accounts: %w", err)
	}
	defer rows.Close()

	var result []*domain.CurveAccount
	for rows.Next() {
		a, err := scanCurveAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan curve account: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func scanCurveAccount(row pgx.Row) (*domain.CurveAccount, error) {
	var (
		a                                      domain.CurveAccount
		address, owner, feeDest                string
		initialReserve, reserve, collectedFees string
		maxGasLimit                            int64
	)
	err := row.Scan(
		&a.AccountID, &address, &owner, &feeDest,
		&a.Params.ProtocolFeeBps, &a.Params.FeeShareBps, &initialReserve, &a.Params.ReserveRatioPPM,
		&maxGasLimit, &reserve, &collectedFees, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Address = domain.Address(address)
	a.Params.Owner = domain.Address(owner)
	a.Params.FeeDestination = domain.Address(feeDest)
	a.Params.MaxGasLimit = uint64(maxGasLimit)

	if a.Params.InitialReserve, err = parseNumeric(initialReserve); err != nil {
		return nil, err
	}
	if a.ReserveBalance, err = parseNumeric(reserve); err != nil {
		return nil, err
	}
	if a.CollectedFees, err = parseNumeric(collectedFees); err != nil {
		return nil, err
	}
	return &a, nil
}

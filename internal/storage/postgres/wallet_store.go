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

// WalletStore implements storage.WalletStore using PostgreSQL.
// Transfers run in a transaction with row locks so concurrent
// debits against the same address cannot overdraw it.
type WalletStore struct {
	pool *Pool
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(pool *Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

// Compile-time interface checks.
var (
	_ storage.WalletStore   = (*WalletStore)(nil)
	_ domain.FundTransferor = (*WalletStore)(nil)
)

// Deposit credits an address, creating the row if it does not exist.
func (s *WalletStore) Deposit(ctx context.Context, addr domain.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO wallet_balances (address, balance)
		VALUES ($1, $2::numeric)
		ON CONFLICT (address)
		DO UPDATE SET balance = wallet_balances.balance + EXCLUDED.balance
	`

	_, err := s.pool.Exec(ctx, query, addr.String(), amount.String())
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	return nil
}

// Transfer moves funds between two addresses atomically. Returns
// ErrInsufficientFunds if the sender balance is too small.
func (s *WalletStore) Transfer(ctx context.Context, from, to domain.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return storage.ErrInvalidInput
	}
	if amount.Sign() == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	var balanceText string
	err = tx.QueryRow(ctx,
		`SELECT balance::text FROM wallet_balances WHERE address = $1 FOR UPDATE`,
		from.String(),
	).Scan(&balanceText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrInsufficientFunds
		}
		return fmt.Errorf("lock sender balance: %w", err)
	}

	balance, err := parseNumeric(balanceText)
	if err != nil {
		return fmt.Errorf("parse sender balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return storage.ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx,
		`UPDATE wallet_balances SET balance = balance - $2::numeric WHERE address = $1`,
		from.String(), amount.String(),
	)
	if err != nil {
		return fmt.Errorf("debit sender: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO wallet_balances (address, balance)
		VALUES ($1, $2::numeric)
		ON CONFLICT (address)
		DO UPDATE SET balance = wallet_balances.balance + EXCLUDED.balance
	`, to.String(), amount.String())
	if err != nil {
		return fmt.Errorf("credit recipient: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}

// Balance returns the current balance of an address. Unknown addresses hold zero.
func (s *WalletStore) Balance(ctx context.Context, addr domain.Address) (*big.Int, error) {
	var balanceText string
	err := s.pool.QueryRow(ctx,
		`SELECT balance::text FROM wallet_balances WHERE address = $1`,
		addr.String(),
	).Scan(&balanceText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return big.NewInt(0), nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return parseNumeric(balanceText)
}

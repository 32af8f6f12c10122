package domain

import (
	"context"
	"math/big"
)

// The engine does not implement token transfer or approval semantics,
// role storage, or payable sinks itself; it invokes these narrow
// collaborator interfaces and treats any error as fatal to the
// operation in progress.

// FundTransferor moves wei between accounts. Transfers are synchronous
// and either fully apply or fail without effect.
type FundTransferor interface {
	Transfer(ctx context.Context, from, to Address, amount *big.Int) error
}

// TokenLedger is the fungible token collaborator backing a curve
// account. Supply tracking lives here, never in the curve ledger.
type TokenLedger interface {
	Mint(ctx context.Context, to Address, amount *big.Int) error
	BurnFrom(ctx context.Context, holder Address, amount *big.Int) error
	BalanceOf(ctx context.Context, holder Address) (*big.Int, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
}

// PassLedger is the membership pass (NFT) collaborator.
type PassLedger interface {
	Mint(ctx context.Context, to Address, passID uint64) error
	Burn(ctx context.Context, passID uint64) error
	OwnerOf(ctx context.Context, passID uint64) (Address, error)
	Supply(ctx context.Context) (uint64, error)
}

// AccessChecker gates parameter setters. The engine never stores roles.
type AccessChecker interface {
	CurrentOwner(ctx context.Context) (Address, error)
	HasRole(ctx context.Context, role string, addr Address) (bool, error)
}

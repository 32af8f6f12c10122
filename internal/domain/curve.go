package domain

import (
	"errors"
	"fmt"
	"math/big"

	"creator-token-engine/internal/fixedpoint"
)

// Curve parameter validation errors.
var (
	ErrFeeOutOfRange   = errors.New("fee basis points out of range")
	ErrRatioOutOfRange = errors.New("reserve ratio out of range")
	ErrZeroReserve     = errors.New("initial reserve must be positive")
)

// CurveParams are the immutable parameters of a curve account, fixed at
// deployment. Fee percentages are basis points and must stay strictly
// below 10000 so fee math never divides by zero or produces a negative
// remainder.
type CurveParams struct {
	Owner           Address  // group host; receives the collected fee share
	FeeDestination  Address  // protocol fee sink
	ProtocolFeeBps  int64    // 0 <= x < 10000
	FeeShareBps     int64    // 0 <= x < 10000, host cut of the protocol fee on sales
	InitialReserve  *big.Int // wei backing the initial supply, > 0
	ReserveRatioPPM int64    // 0 < x <= 1,000,000
	MaxGasLimit     uint64   // optional dispatch bound, 0 = unlimited
}

// Validate checks parameter ranges.
func (p CurveParams) Validate() error {
	if p.Owner.IsZero() {
		return fmt.Errorf("owner: %w", ErrZeroAddress)
	}
	if p.FeeDestination.IsZero() {
		return fmt.Errorf("fee destination: %w", ErrZeroAddress)
	}
	if p.ProtocolFeeBps < 0 || p.ProtocolFeeBps >= fixedpoint.BasisPointsPrecision {
		return fmt.Errorf("protocol fee %d: %w", p.ProtocolFeeBps, ErrFeeOutOfRange)
	}
	if p.FeeShareBps < 0 || p.FeeShareBps >= fixedpoint.BasisPointsPrecision {
		return fmt.Errorf("fee share %d: %w", p.FeeShareBps, ErrFeeOutOfRange)
	}
	if p.InitialReserve == nil || p.InitialReserve.Sign() <= 0 {
		return ErrZeroReserve
	}
	if p.ReserveRatioPPM <= 0 || p.ReserveRatioPPM > fixedpoint.MaxRatioPPM {
		return fmt.Errorf("ratio %d ppm: %w", p.ReserveRatioPPM, ErrRatioOutOfRange)
	}
	return nil
}

// CurveAccount is the mutable reserve ledger of one group token.
// ReserveBalance only grows by net-of-fee deposits on purchases and only
// shrinks by sale returns; CollectedFees accrues the host share of sale
// fees until claimed. Total supply is tracked by the token ledger
// collaborator, never duplicated here.
type CurveAccount struct {
	AccountID      string  // deterministic account identifier
	Address        Address // custody address holding the reserve
	Params         CurveParams
	ReserveBalance *big.Int // wei
	CollectedFees  *big.Int // wei, host-claimable
	CreatedAt      int64    // Unix timestamp in milliseconds
}

// NewCurveAccount initializes an account with the initial reserve.
func NewCurveAccount(accountID string, addr Address, params CurveParams, createdAt int64) (*CurveAccount, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &CurveAccount{
		AccountID:      accountID,
		Address:        addr,
		Params:         params,
		ReserveBalance: new(big.Int).Set(params.InitialReserve),
		CollectedFees:  big.NewInt(0),
		CreatedAt:      createdAt,
	}, nil
}

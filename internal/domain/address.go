package domain

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Address identifies a marketplace account: a base58-encoded 32-byte
// ed25519 public key.
type Address string

// ZeroAddress is the empty address; rejected by all operations that
// move or receive funds.
const ZeroAddress Address = ""

// Address validation errors.
var (
	ErrZeroAddress    = errors.New("zero address")
	ErrInvalidAddress = errors.New("invalid address")
)

// ParseAddress validates and normalizes a base58 address string.
// The decoded bytes must be a valid point on the ed25519 curve.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return ZeroAddress, ErrZeroAddress
	}

	decoded, err := base58.Decode(s)
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) != 32 {
		return ZeroAddress, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidAddress, len(decoded))
	}

	if _, err := new(edwards25519.Point).SetBytes(decoded); err != nil {
		return ZeroAddress, fmt.Errorf("%w: not on curve", ErrInvalidAddress)
	}

	return Address(s), nil
}

// AddressFromBytes encodes a 32-byte key as a base58 address.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != 32 {
		return ZeroAddress, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidAddress, len(b))
	}
	return Address(base58.Encode(b)), nil
}

// AddressFromSeed derives a deterministic address from an arbitrary
// seed string. Used by the simulator and fixtures where real keypairs
// are not needed but addresses must still be well-formed.
func AddressFromSeed(seed string) Address {
	digest := sha256.Sum256([]byte(seed))
	pub := ed25519.NewKeyFromSeed(digest[:]).Public().(ed25519.PublicKey)
	return Address(base58.Encode(pub))
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String returns the base58 representation.
func (a Address) String() string {
	return string(a)
}

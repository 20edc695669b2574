package identity

import (
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// IdentitySeed is the fixed namespace tag mixed into every derived account
// address. Any caller or indexer can locate a principal's account from this
// constant, the principal identifier and the recorded bump.
var IdentitySeed = []byte("wino_business_identity")

// ErrNoAddress is returned when no bump in [0, 255] yields a usable address.
// With a keccak256 derivation this is unreachable in practice.
var ErrNoAddress = errors.New("identity: unable to derive account address")

// DeriveAddress computes the account address for the authority and bump:
// keccak256(IdentitySeed || authority || bump).
func DeriveAddress(authority [32]byte, bump uint8) [32]byte {
	digest := ethcrypto.Keccak256(IdentitySeed, authority[:], []byte{bump})
	var addr [32]byte
	copy(addr[:], digest)
	return addr
}

// FindAddress searches bump values downward from 255 and returns the first
// derived address that is usable as a storage location. The zero address is
// reserved and skipped. The winning bump must be recorded in the account so
// later operations can re-derive and verify the address.
func FindAddress(authority [32]byte) ([32]byte, uint8, error) {
	var zero [32]byte
	for bump := 255; bump >= 0; bump-- {
		addr := DeriveAddress(authority, uint8(bump))
		if addr != zero {
			return addr, uint8(bump), nil
		}
	}
	return zero, 0, ErrNoAddress
}

// Package ids defines the fixed-width identifiers used throughout the
// channel ledger: 32-byte storage/digest identifiers and 20-byte
// account-style addresses, both with base58 string forms (no checksum).
package ids

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// IDLen is the length of an ID in bytes (a SHA-256 digest).
const IDLen = 32

// ShortIDLen is the length of a ShortID in bytes (an account address).
const ShortIDLen = 20

var (
	ErrWrongIDLen      = errors.New("wrong length ID")
	ErrWrongShortIDLen = errors.New("wrong length ShortID")
)

// ID is a 32-byte identifier, used for storage keys and digests.
type ID [IDLen]byte

// Empty is the zero-value ID.
var Empty ID

func (id ID) String() string {
	return base58.Encode(id[:])
}

func (id ID) Bytes() []byte {
	b := make([]byte, IDLen)
	copy(b, id[:])
	return b
}

func (id ID) IsZero() bool { return id == Empty }

// ToID copies b into a new ID. Fails if b isn't exactly IDLen bytes.
func ToID(b []byte) (ID, error) {
	var id ID
	if len(b) != IDLen {
		return id, fmt.Errorf("%w: got %d want %d", ErrWrongIDLen, len(b), IDLen)
	}
	copy(id[:], b)
	return id, nil
}

// FromString parses a base58-encoded ID.
func FromString(s string) (ID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return ID{}, err
	}
	return ToID(b)
}

// ShortID is a 20-byte account-style address (providers, external
// accounts, adapters).
type ShortID [ShortIDLen]byte

var ShortEmpty ShortID

func (sid ShortID) String() string {
	return base58.Encode(sid[:])
}

func (sid ShortID) Bytes() []byte {
	b := make([]byte, ShortIDLen)
	copy(b, sid[:])
	return b
}

func (sid ShortID) IsZero() bool { return sid == ShortEmpty }

func ToShortID(b []byte) (ShortID, error) {
	var sid ShortID
	if len(b) != ShortIDLen {
		return sid, fmt.Errorf("%w: got %d want %d", ErrWrongShortIDLen, len(b), ShortIDLen)
	}
	copy(sid[:], b)
	return sid, nil
}

func ShortFromString(s string) (ShortID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return ShortID{}, err
	}
	return ToShortID(b)
}

// ShortFromHex is a convenience constructor for tests and CLI tooling
// that work with hex-encoded addresses.
func ShortFromHex(s string) (ShortID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ShortID{}, err
	}
	return ToShortID(b)
}

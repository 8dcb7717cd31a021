// Package store implements the two interchangeable UTXO state layouts
// (spec §4.3): a direct key->state mapping ("simple") and a bitmap
// indexed "drawer" layout, both over internal/storage.KV. The split
// mirrors vms/avm/utxo.go's UTXO accessor next to
// vms/platformvm's bitmap-backed validator set, generalized to a single
// Store contract so the bundle engine doesn't care which layout backs
// a given channel instance.
package store

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/ava-labs/privacy-channel/internal/channel"
	"github.com/ava-labs/privacy-channel/internal/crypto"
)

// Status is the on-disk lifecycle marker for a UTXO (spec §4.3: "a UTXO
// moves -1 (absent) -> amount (unspent) -> 0 (spent), monotonically").
type Status byte

const (
	statusUnspent Status = 1
	statusSpent   Status = 2
)

// Store is the common contract both layouts satisfy. Balance returns -1
// for an absent key, 0 for a spent key, and the stored amount for an
// unspent key, matching the three-valued reads described in spec §4.3.
type Store interface {
	Balance(key crypto.SignerKey) (int64, error)
	Create(key crypto.SignerKey, amount int64) error
	Spend(key crypto.SignerKey) (int64, error)
}

// utxoKey derives the stable 32-byte storage identity of a UTXO from
// its owning public key, so the simple and drawer layouts can share one
// addressing scheme despite differing in how they lay out slots.
func utxoKey(key crypto.SignerKey) [32]byte {
	return sha256.Sum256(key.MapKey()[:])
}

func encodeUnspent(amount int64) []byte {
	buf := make([]byte, 9)
	buf[0] = byte(statusUnspent)
	binary.LittleEndian.PutUint64(buf[1:], uint64(amount))
	return buf
}

func encodeSpent() []byte {
	return []byte{byte(statusSpent)}
}

func decode(raw []byte) (Status, int64) {
	if len(raw) == 0 {
		return 0, -1
	}
	status := Status(raw[0])
	if status == statusSpent {
		return status, 0
	}
	amount := int64(binary.LittleEndian.Uint64(raw[1:]))
	return status, amount
}

var (
	errAlreadyExists = channel.ErrUTXOAlreadyExists
	errAlreadySpent  = channel.ErrUTXOAlreadySpent
	errNotFound      = channel.ErrUTXONotFound
	errInvalidAmount = channel.ErrInvalidCreateAmount
)

// Package condition implements the spending-intent sum type and its
// algebra (equality and conflict) from spec §3 and §4.8. It has no
// coverage predicate.
package condition

import (
	"bytes"
	"encoding/binary"

	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/ids"
)

// Kind tags the variant of a Condition.
type Kind uint8

const (
	KindCreate Kind = iota
	KindExtDeposit
	KindExtWithdraw
	KindExtIntegration
)

// Condition is the tagged sum described in spec §3:
//
//	Create(utxo, amount)
//	ExtDeposit(account, amount)
//	ExtWithdraw(account, amount)
//	ExtIntegration(adapter, utxos, amount)
type Condition struct {
	Kind Kind

	UTXO    crypto.SignerKey // Create: the new UTXO's owner key (P256)
	Account ids.ShortID      // ExtDeposit / ExtWithdraw
	Adapter ids.ShortID      // ExtIntegration
	UTXOs   []crypto.SignerKey // ExtIntegration
	Amount  int64
}

func Create(utxo crypto.SignerKey, amount int64) Condition {
	return Condition{Kind: KindCreate, UTXO: utxo, Amount: amount}
}

func ExtDeposit(account ids.ShortID, amount int64) Condition {
	return Condition{Kind: KindExtDeposit, Account: account, Amount: amount}
}

func ExtWithdraw(account ids.ShortID, amount int64) Condition {
	return Condition{Kind: KindExtWithdraw, Account: account, Amount: amount}
}

func ExtIntegration(adapter ids.ShortID, utxos []crypto.SignerKey, amount int64) Condition {
	return Condition{Kind: KindExtIntegration, Adapter: adapter, UTXOs: utxos, Amount: amount}
}

// CanonicalBytes is the per-condition byte encoding used both for
// elementwise equality (§4.8) and, grouped by category, for
// hash_payload (§4.1). It does not include a domain-separation tag;
// callers supply that (the codec package emits the CREATE/DEPOSIT/
// WITHDRAW/INTEGRATE tags once per category, not per condition).
func (c Condition) CanonicalBytes() []byte {
	var buf bytes.Buffer
	switch c.Kind {
	case KindCreate:
		buf.Write(c.UTXO.Key)
		writeAmount(&buf, c.Amount)
	case KindExtDeposit, KindExtWithdraw:
		buf.Write(c.Account.Bytes())
		writeAmount(&buf, c.Amount)
	case KindExtIntegration:
		buf.Write(c.Adapter.Bytes())
		for _, u := range c.UTXOs {
			buf.Write(u.Key)
		}
		writeAmount(&buf, c.Amount)
	}
	return buf.Bytes()
}

// writeAmount encodes amount little-endian in 8 bytes, per spec §4.1:
// "i128 is encoded little-endian in 8-byte form (the low 8 bytes)".
// Callers are required (O2, SPEC_FULL.md) to have already validated
// 0 < amount <= MaxInt64, so this never silently truncates in practice.
func writeAmount(buf *bytes.Buffer, amount int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(amount))
	buf.Write(b[:])
}

// Equal reports whether two conditions are identical under their
// canonical encoding, including kind.
func (c Condition) Equal(other Condition) bool {
	if c.Kind != other.Kind {
		return false
	}
	return bytes.Equal(c.CanonicalBytes(), other.CanonicalBytes())
}

// Sequence is an ordered list of conditions attached to one spend
// input or external leg.
type Sequence []Condition

// Equal reports whether two sequences are equal in length and
// elementwise equal in order (spec §4.8).
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

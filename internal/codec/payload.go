// Package codec implements PrimitiveCodec (spec §4.1): the canonical
// byte encoding of an AuthPayload and its SHA-256 digest, the message
// every per-UTXO owner signature is computed over.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/privacy-channel/internal/condition"
	"github.com/ava-labs/privacy-channel/internal/ids"
)

// MaxEncodableAmount is the largest amount the canonical encoding can
// carry without silent truncation (spec §4.1, O2): the low 8 bytes of
// an i128 top out at 2^63-1 once amounts are required to be
// non-negative, which we enforce at every boundary that accepts one.
const MaxEncodableAmount = int64(1<<63 - 1)

var (
	tagCreate    = []byte("CREATE")
	tagDeposit   = []byte("DEPOSIT")
	tagWithdraw  = []byte("WITHDRAW")
	tagIntegrate = []byte("INTEGRATE")
)

// AuthPayload is `{contract, conditions, live_until_ledger}` (spec §3).
type AuthPayload struct {
	Contract        ids.ShortID
	Conditions      condition.Sequence
	LiveUntilLedger uint32
}

// ValidateAmounts rejects any condition carrying an amount outside
// (0, MaxEncodableAmount], per O2.
func ValidateAmounts(seq condition.Sequence) error {
	for i, c := range seq {
		if c.Amount <= 0 || c.Amount > MaxEncodableAmount {
			return fmt.Errorf("condition %d: amount %d out of range (0, %d]", i, c.Amount, MaxEncodableAmount)
		}
	}
	return nil
}

// HashPayload produces the 32-byte digest described in spec §4.1:
// contract bytes, then each condition category in a fixed order
// (CREATE, DEPOSIT, WITHDRAW, INTEGRATE) regardless of how the
// categories were interleaved in p.Conditions — but preserving the
// original relative order *within* each category — then the 4-byte LE
// expiry, SHA-256'd.
func HashPayload(p AuthPayload) ([32]byte, error) {
	if err := ValidateAmounts(p.Conditions); err != nil {
		return [32]byte{}, err
	}

	var buf bytes.Buffer
	buf.Write(p.Contract.Bytes())

	buf.Write(tagCreate)
	for _, c := range p.Conditions {
		if c.Kind != condition.KindCreate {
			continue
		}
		buf.Write(c.UTXO.Key)
		writeAmountLE(&buf, c.Amount)
	}

	buf.Write(tagDeposit)
	for _, c := range p.Conditions {
		if c.Kind != condition.KindExtDeposit {
			continue
		}
		buf.Write(c.Account.Bytes())
		writeAmountLE(&buf, c.Amount)
	}

	buf.Write(tagWithdraw)
	for _, c := range p.Conditions {
		if c.Kind != condition.KindExtWithdraw {
			continue
		}
		buf.Write(c.Account.Bytes())
		writeAmountLE(&buf, c.Amount)
	}

	buf.Write(tagIntegrate)
	for _, c := range p.Conditions {
		if c.Kind != condition.KindExtIntegration {
			continue
		}
		buf.Write(c.Adapter.Bytes())
		for _, u := range c.UTXOs {
			buf.Write(u.Key)
		}
		writeAmountLE(&buf, c.Amount)
	}

	var ledgerBytes [4]byte
	binary.LittleEndian.PutUint32(ledgerBytes[:], p.LiveUntilLedger)
	buf.Write(ledgerBytes[:])

	return sha256.Sum256(buf.Bytes()), nil
}

func writeAmountLE(buf *bytes.Buffer, amount int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(amount))
	buf.Write(b[:])
}

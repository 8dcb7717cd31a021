package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/privacy-channel/internal/condition"
	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/ids"
)

func mustP256(t *testing.T, seed byte) crypto.SignerKey {
	t.Helper()
	raw := make([]byte, crypto.P256PubKeyLen)
	raw[0] = 0x04
	raw[1] = seed
	k, err := crypto.NewP256SignerKey(raw)
	require.NoError(t, err)
	return k
}

func TestHashPayloadIsAFunction(t *testing.T) {
	u := mustP256(t, 7)
	var acct ids.ShortID
	acct[0] = 3

	payload := AuthPayload{
		Contract: acct,
		Conditions: condition.Sequence{
			condition.Create(u, 100),
			condition.ExtDeposit(acct, 50),
		},
		LiveUntilLedger: 42,
	}

	d1, err := HashPayload(payload)
	require.NoError(t, err)
	d2, err := HashPayload(payload)
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}

func TestHashPayloadSingleBitChangeChangesDigest(t *testing.T) {
	u := mustP256(t, 7)
	var acct ids.ShortID
	base := AuthPayload{
		Contract:        acct,
		Conditions:      condition.Sequence{condition.Create(u, 100)},
		LiveUntilLedger: 42,
	}
	baseDigest, err := HashPayload(base)
	require.NoError(t, err)

	mutated := base
	mutated.LiveUntilLedger = 43
	mutatedDigest, err := HashPayload(mutated)
	require.NoError(t, err)

	require.NotEqual(t, baseDigest, mutatedDigest)
}

func TestHashPayloadCategoryOrderingIsFixedRegardlessOfInterleaving(t *testing.T) {
	u1 := mustP256(t, 1)
	u2 := mustP256(t, 2)
	var acct ids.ShortID
	acct[0] = 9

	interleavedA := AuthPayload{
		Contract: acct,
		Conditions: condition.Sequence{
			condition.Create(u1, 10),
			condition.ExtDeposit(acct, 20),
			condition.Create(u2, 30),
		},
		LiveUntilLedger: 1,
	}
	// Same conditions, grouped by category up front: same CREATE-then-
	// DEPOSIT category emission order, so the digest must match even
	// though the input list order differs.
	groupedB := AuthPayload{
		Contract: acct,
		Conditions: condition.Sequence{
			condition.Create(u1, 10),
			condition.Create(u2, 30),
			condition.ExtDeposit(acct, 20),
		},
		LiveUntilLedger: 1,
	}

	dA, err := HashPayload(interleavedA)
	require.NoError(t, err)
	dB, err := HashPayload(groupedB)
	require.NoError(t, err)
	require.Equal(t, dA, dB)
}

func TestHashPayloadRejectsOutOfRangeAmount(t *testing.T) {
	u := mustP256(t, 1)
	var acct ids.ShortID
	payload := AuthPayload{
		Contract:        acct,
		Conditions:      condition.Sequence{condition.Create(u, -1)},
		LiveUntilLedger: 1,
	}
	_, err := HashPayload(payload)
	require.Error(t, err)
}

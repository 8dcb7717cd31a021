package condition

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/ids"
)

func p256Key(t *testing.T, seed byte) crypto.SignerKey {
	t.Helper()
	raw := make([]byte, crypto.P256PubKeyLen)
	raw[0] = 0x04
	raw[1] = seed
	k, err := crypto.NewP256SignerKey(raw)
	require.NoError(t, err)
	return k
}

func shortAddr(seed byte) ids.ShortID {
	var a ids.ShortID
	a[0] = seed
	return a
}

func TestConflictsWithCreate(t *testing.T) {
	u := p256Key(t, 1)
	require.True(t, ConflictsWith(Create(u, 100), Create(u, 200)))
	require.False(t, ConflictsWith(Create(u, 100), Create(u, 100)))

	u2 := p256Key(t, 2)
	require.False(t, ConflictsWith(Create(u, 100), Create(u2, 200)))
}

func TestConflictsWithExtLegs(t *testing.T) {
	a := shortAddr(1)
	require.True(t, ConflictsWith(ExtDeposit(a, 100), ExtDeposit(a, 200)))
	require.False(t, ConflictsWith(ExtDeposit(a, 100), ExtDeposit(a, 100)))
	require.True(t, ConflictsWith(ExtWithdraw(a, 100), ExtWithdraw(a, 200)))
	require.False(t, ConflictsWith(ExtDeposit(a, 100), ExtWithdraw(a, 100)))
}

func TestConflictsWithIntegration(t *testing.T) {
	adapterA := shortAddr(10)
	adapterB := shortAddr(11)
	u1 := p256Key(t, 1)
	u2 := p256Key(t, 2)

	same := ExtIntegration(adapterA, []crypto.SignerKey{u1}, 50)
	sameDifferentAmount := ExtIntegration(adapterA, []crypto.SignerKey{u1}, 60)
	require.True(t, ConflictsWith(same, sameDifferentAmount))

	sameSameAmount := ExtIntegration(adapterA, []crypto.SignerKey{u1}, 50)
	require.False(t, ConflictsWith(same, sameSameAmount))

	crossOverlap := ExtIntegration(adapterB, []crypto.SignerKey{u1, u2}, 999)
	require.True(t, ConflictsWith(same, crossOverlap))

	crossDisjoint := ExtIntegration(adapterB, []crypto.SignerKey{u2}, 999)
	require.False(t, ConflictsWith(same, crossDisjoint))
}

func TestIsConflictFreeBundle(t *testing.T) {
	u1 := p256Key(t, 1)
	u2 := p256Key(t, 2)
	seq := Sequence{Create(u1, 100), Create(u2, 200)}
	require.True(t, IsConflictFree(seq))

	conflicting := Sequence{Create(u1, 100), Create(u1, 200)}
	require.False(t, IsConflictFree(conflicting))
}

// TestConflictsSymmetric is P6: conflicts_with(a,b) == conflicts_with(b,a).
func TestConflictsSymmetric(t *testing.T) {
	params := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(params)

	kindGen := gen.OneConstOf(KindCreate, KindExtDeposit, KindExtWithdraw, KindExtIntegration)
	conditionGen := gopter.CombineGens(
		kindGen,
		gen.UInt8Range(1, 5),
		gen.Int64Range(1, 10_000),
	).Map(func(vals []interface{}) Condition {
		kind := vals[0].(Kind)
		seed := vals[1].(uint8)
		amount := vals[2].(int64)
		switch kind {
		case KindCreate:
			raw := make([]byte, crypto.P256PubKeyLen)
			raw[0] = 0x04
			raw[1] = seed
			k, _ := crypto.NewP256SignerKey(raw)
			return Create(k, amount)
		case KindExtDeposit:
			var a ids.ShortID
			a[0] = seed
			return ExtDeposit(a, amount)
		case KindExtWithdraw:
			var a ids.ShortID
			a[0] = seed
			return ExtWithdraw(a, amount)
		default:
			var adapter ids.ShortID
			adapter[0] = seed
			raw := make([]byte, crypto.P256PubKeyLen)
			raw[0] = 0x04
			raw[1] = seed
			k, _ := crypto.NewP256SignerKey(raw)
			return ExtIntegration(adapter, []crypto.SignerKey{k}, amount)
		}
	})

	properties.Property("conflicts_with is symmetric", prop.ForAll(
		func(a, b Condition) bool {
			return ConflictsWith(a, b) == ConflictsWith(b, a)
		},
		conditionGen,
		conditionGen,
	))

	properties.TestingRun(t)
}

package condition

import (
	"github.com/ava-labs/privacy-channel/internal/crypto"
)

// This file is grounded on the conflict-graph technique in
// snow/consensus/snowstorm/directed.go: rather than comparing every
// condition against every other condition, previously-accepted
// conditions are bucketed by a conflict-class key (the "identity" half
// of the condition — the UTXO for Create, the account for the deposit/
// withdraw legs), the same way Directed.Add buckets transactions by
// the UTXO(s) they consume (dg.utxos) to find candidate conflicts in
// O(1) instead of O(n). ExtIntegration conditions are not bucketed
// (conflict depends on set intersection against every other adapter's
// UTXO set), so all of them are kept in a side list and checked
// against each other directly.

type identityKey struct {
	kind Kind
	id   [33]byte // 0x00||ShortID(20) for accounts, or 0x00||key bytes XOR-folded into 32
}

func accountKey(kind Kind, addr [20]byte) identityKey {
	var k identityKey
	k.kind = kind
	copy(k.id[1:21], addr[:])
	return k
}

func utxoKey(k Kind, key []byte) identityKey {
	var out identityKey
	out.kind = k
	// P256 keys are 65 bytes, longer than id's 32 key bytes, so byte i
	// of the key is XOR-folded into position i%32. Collisions would
	// only ever cause a spurious (harmless, over-cautious) conflict
	// check against ConflictsWith, never a missed one, because the
	// bucket is merely a candidate filter.
	for i, b := range key {
		out.id[1+(i%32)] ^= b
	}
	return out
}

// ConflictsWith implements the pairwise predicate of spec §4.8.
// Symmetric by construction (each branch is order-independent).
func ConflictsWith(a, b Condition) bool {
	switch {
	case a.Kind == KindCreate && b.Kind == KindCreate:
		if !a.UTXO.Equal(b.UTXO) {
			return false
		}
		return a.Amount != b.Amount
	case a.Kind == KindExtDeposit && b.Kind == KindExtDeposit:
		if a.Account != b.Account {
			return false
		}
		return a.Amount != b.Amount
	case a.Kind == KindExtWithdraw && b.Kind == KindExtWithdraw:
		if a.Account != b.Account {
			return false
		}
		return a.Amount != b.Amount
	case a.Kind == KindExtIntegration && b.Kind == KindExtIntegration:
		if a.Adapter != b.Adapter {
			return utxoSetsIntersect(a.UTXOs, b.UTXOs)
		}
		return a.Amount != b.Amount || !utxoSetsEqual(a.UTXOs, b.UTXOs)
	default:
		return false
	}
}

func utxoSetsIntersect(a, b []crypto.SignerKey) bool {
	for _, x := range a {
		for _, y := range b {
			if x.Equal(y) {
				return true
			}
		}
	}
	return false
}

func utxoSetsEqual(a, b []crypto.SignerKey) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for j, y := range b {
			if !used[j] && x.Equal(y) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// IsConflictFree reports whether, visiting conditions in order, no
// condition conflicts with any previously-accepted condition (spec
// §4.8's definition of a conflict-free bundle).
func IsConflictFree(seq Sequence) bool {
	buckets := make(map[identityKey][]Condition)
	var integrations []Condition

	for _, c := range seq {
		if c.Kind == KindExtIntegration {
			for _, prev := range integrations {
				if ConflictsWith(c, prev) {
					return false
				}
			}
			integrations = append(integrations, c)
			continue
		}

		var key identityKey
		switch c.Kind {
		case KindCreate:
			key = utxoKey(c.Kind, c.UTXO.Key)
		case KindExtDeposit, KindExtWithdraw:
			key = accountKey(c.Kind, c.Account)
		}

		for _, prev := range buckets[key] {
			if ConflictsWith(c, prev) {
				return false
			}
		}
		buckets[key] = append(buckets[key], c)
	}
	return true
}

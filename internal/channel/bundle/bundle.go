// Package bundle implements BundleEngine (spec §4.4): duplicate
// detection, the auth trigger, and balanced spend+create application
// over a store.Store. It is grounded on vms/avm/import_tx.go's
// SemanticVerify-then-ExecuteWithSideEffects split: every check that
// can be answered from read-only state runs first, and mutations only
// begin once the whole bundle is known-good, so a rejected bundle never
// touches storage (spec §7: "a failed transact leaves storage
// byte-identical to the pre-state").
package bundle

import (
	"github.com/ava-labs/privacy-channel/internal/channel"
	"github.com/ava-labs/privacy-channel/internal/channel/auth"
	"github.com/ava-labs/privacy-channel/internal/channel/store"
	"github.com/ava-labs/privacy-channel/internal/crypto"
)

// CreateOutput is one entry of InternalBundle.Create: the new UTXO's
// owner key and its amount.
type CreateOutput struct {
	Key    crypto.SignerKey
	Amount int64
}

// InternalBundle is produced by ChannelOperator from a ChannelOperation
// and never authored by users directly (spec §3).
type InternalBundle struct {
	Spend  []crypto.SignerKey
	Create []CreateOutput
	Req    auth.AuthRequirements
}

// AuthTrigger is the host's "require-auth-for-args" mechanism: binding
// req into the signed preimage and running the auth callback. The
// channel operator supplies the closure; BundleEngine only calls it.
type AuthTrigger func(req auth.AuthRequirements) error

// Engine applies InternalBundles against a single store.Store.
type Engine struct {
	Store store.Store

	// Index, if set, is kept in step with every commit: a spent key is
	// removed, a created key is added. It backs the admin "list
	// unspent UTXOs" debug endpoint (SPEC_FULL.md EXPANSION B.11) and
	// is optional — a nil Index just means that endpoint isn't wired.
	Index *store.UnspentIndex
}

func NewEngine(s store.Store) Engine {
	return Engine{Store: s}
}

// WithIndex attaches idx to e, returning the updated Engine for
// call-site chaining (operator.New's callers construct the Engine
// inline).
func (e Engine) WithIndex(idx *store.UnspentIndex) Engine {
	e.Index = idx
	return e
}

// Process runs the §4.4 algorithm. incomingAmount and expectedOutgoing
// are supplied by ChannelOperator as total_deposit and total_withdraw
// respectively; a bundle with no external legs passes 0 for both.
func (e Engine) Process(b InternalBundle, incomingAmount, expectedOutgoing int64, trigger AuthTrigger) error {
	if err := checkNoDuplicateKeys(b.Spend); err != nil {
		return err
	}
	if err := checkNoDuplicateCreates(b.Create); err != nil {
		return err
	}

	if err := trigger(b.Req); err != nil {
		return err
	}

	spendAmounts := make([]int64, len(b.Spend))
	available := incomingAmount
	for i, key := range b.Spend {
		bal, err := e.Store.Balance(key)
		if err != nil {
			return err
		}
		switch bal {
		case -1:
			return channel.ErrUTXONotFound
		case 0:
			return channel.ErrUTXOAlreadySpent
		default:
			spendAmounts[i] = bal
			available += bal
		}
	}

	for _, c := range b.Create {
		if c.Amount <= 0 {
			return channel.ErrInvalidCreateAmount
		}
		bal, err := e.Store.Balance(c.Key)
		if err != nil {
			return err
		}
		if bal != -1 {
			return channel.ErrUTXOAlreadyExists
		}
		available -= c.Amount
	}

	if available != expectedOutgoing {
		return channel.ErrUnbalancedBundle
	}

	for _, key := range b.Spend {
		if _, err := e.Store.Spend(key); err != nil {
			return err
		}
		if e.Index != nil {
			e.Index.Remove(key)
		}
	}
	for _, c := range b.Create {
		if err := e.Store.Create(c.Key, c.Amount); err != nil {
			return err
		}
		if e.Index != nil {
			e.Index.Put(c.Key, c.Amount)
		}
	}
	return nil
}

func checkNoDuplicateKeys(keys []crypto.SignerKey) error {
	seen := make(map[[1 + crypto.P256PubKeyLen]byte]bool, len(keys))
	for _, k := range keys {
		mk := k.MapKey()
		if seen[mk] {
			return channel.ErrRepeatedSpendUTXO
		}
		seen[mk] = true
	}
	return nil
}

func checkNoDuplicateCreates(outs []CreateOutput) error {
	seen := make(map[[1 + crypto.P256PubKeyLen]byte]bool, len(outs))
	for _, o := range outs {
		mk := o.Key.MapKey()
		if seen[mk] {
			return channel.ErrRepeatedCreateUTXO
		}
		seen[mk] = true
	}
	return nil
}

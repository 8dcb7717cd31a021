package store

import (
	"bytes"

	"github.com/google/btree"

	"github.com/ava-labs/privacy-channel/internal/crypto"
)

// UnspentEntry is one row of UnspentIndex.List.
type UnspentEntry struct {
	Key    crypto.SignerKey
	Amount int64
}

type unspentItem struct {
	hash   [32]byte
	key    crypto.SignerKey
	amount int64
}

func (a unspentItem) Less(than btree.Item) bool {
	b := than.(unspentItem)
	return bytes.Compare(a.hash[:], b.hash[:]) < 0
}

// UnspentIndex is an ordered, in-memory view of every currently
// unspent UTXO, backing the admin "list unspent UTXOs" debug endpoint
// (SPEC_FULL.md EXPANSION B.11) — an operational feature the original
// contract interface, having no notion of "list everything", had no
// room for. Store (KV) remains the source of truth; this index holds
// no durability guarantee of its own and starts empty across a
// process restart.
type UnspentIndex struct {
	tree *btree.BTree
}

// NewUnspentIndex builds an empty index. 32 is the tree's degree, not
// a size limit.
func NewUnspentIndex() *UnspentIndex {
	return &UnspentIndex{tree: btree.New(32)}
}

// Put records key as unspent with amount, replacing any prior entry
// for the same key.
func (idx *UnspentIndex) Put(key crypto.SignerKey, amount int64) {
	idx.tree.ReplaceOrInsert(unspentItem{hash: utxoKey(key), key: key, amount: amount})
}

// Remove drops key from the index once it has been spent.
func (idx *UnspentIndex) Remove(key crypto.SignerKey) {
	idx.tree.Delete(unspentItem{hash: utxoKey(key)})
}

// List returns up to limit unspent entries in ascending utxoKey order.
func (idx *UnspentIndex) List(limit int) []UnspentEntry {
	out := make([]UnspentEntry, 0, limit)
	idx.tree.Ascend(func(i btree.Item) bool {
		it := i.(unspentItem)
		out = append(out, UnspentEntry{Key: it.key, Amount: it.amount})
		return len(out) < limit
	})
	return out
}

// Len reports how many unspent entries the index currently holds.
func (idx *UnspentIndex) Len() int { return idx.tree.Len() }

package store

import (
	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/storage"
)

// SimpleStore addresses each UTXO by the sha256 of its owner key
// directly in the backing KV, one entry per UTXO. It is the layout of
// choice for channels whose working set doesn't justify the drawer
// bitmap's batching (spec §4.3, "simple layout").
type SimpleStore struct {
	kv     storage.KV
	prefix []byte
}

// NewSimpleStore wraps kv, namespacing all keys under prefix so a
// single KV can host multiple channel instances side by side.
func NewSimpleStore(kv storage.KV, prefix []byte) *SimpleStore {
	return &SimpleStore{kv: kv, prefix: prefix}
}

func (s *SimpleStore) storageKey(key crypto.SignerKey) []byte {
	id := utxoKey(key)
	out := make([]byte, 0, len(s.prefix)+len(id))
	out = append(out, s.prefix...)
	out = append(out, id[:]...)
	return out
}

func (s *SimpleStore) Balance(key crypto.SignerKey) (int64, error) {
	raw, err := s.kv.Get(s.storageKey(key))
	if err == storage.ErrNotFound {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	_, amount := decode(raw)
	return amount, nil
}

func (s *SimpleStore) Create(key crypto.SignerKey, amount int64) error {
	if amount <= 0 {
		return errInvalidAmount
	}
	sk := s.storageKey(key)
	if _, err := s.kv.Get(sk); err == nil {
		return errAlreadyExists
	} else if err != storage.ErrNotFound {
		return err
	}
	return s.kv.Put(sk, encodeUnspent(amount))
}

func (s *SimpleStore) Spend(key crypto.SignerKey) (int64, error) {
	sk := s.storageKey(key)
	raw, err := s.kv.Get(sk)
	if err == storage.ErrNotFound {
		return 0, errNotFound
	}
	if err != nil {
		return 0, err
	}
	status, amount := decode(raw)
	if status == statusSpent {
		return 0, errAlreadySpent
	}
	if err := s.kv.Put(sk, encodeSpent()); err != nil {
		return 0, err
	}
	return amount, nil
}

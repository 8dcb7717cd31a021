package auth

import (
	"errors"

	"github.com/ava-labs/privacy-channel/internal/ids"
	"github.com/ava-labs/privacy-channel/internal/storage"
)

// MinProviders is the floor ProviderRegistry.Deregister enforces: a
// channel must always retain at least this many attesters, or no
// future transact could ever meet ProviderThreshold (EXPANSION C of
// SPEC_FULL.md; the distilled spec only specifies register/deregister/
// is_provider without this guard).
const MinProviders = ProviderThreshold

var (
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
	ErrProviderNotRegistered     = errors.New("provider not registered")
	ErrProviderMinimumBreached   = errors.New("cannot remove provider: minimum provider count reached")
)

// ProviderRegistry is the admin-gated set of addresses from spec §4.6,
// persisted so it survives upgrades. Admin authorization itself is
// checked by the caller (the channel operator, which already knows the
// contract's Admin key) before Register/Deregister are invoked; this
// type only owns the set's invariants.
type ProviderRegistry struct {
	kv     storage.KV
	prefix []byte
}

func NewProviderRegistry(kv storage.KV, prefix []byte) *ProviderRegistry {
	return &ProviderRegistry{kv: kv, prefix: prefix}
}

func (r *ProviderRegistry) key(addr ids.ShortID) []byte {
	out := append([]byte{}, r.prefix...)
	return append(out, addr[:]...)
}

func (r *ProviderRegistry) IsProvider(addr ids.ShortID) bool {
	ok, err := r.kv.Has(r.key(addr))
	return err == nil && ok
}

func (r *ProviderRegistry) Register(addr ids.ShortID) error {
	if r.IsProvider(addr) {
		return ErrProviderAlreadyRegistered
	}
	return r.kv.Put(r.key(addr), []byte{1})
}

func (r *ProviderRegistry) Deregister(addr ids.ShortID) error {
	if !r.IsProvider(addr) {
		return ErrProviderNotRegistered
	}
	if r.count() <= MinProviders {
		return ErrProviderMinimumBreached
	}
	return r.kv.Delete(r.key(addr))
}

func (r *ProviderRegistry) count() int {
	it := r.kv.NewIterator(r.prefix)
	defer it.Release()
	n := 0
	for it.Next() {
		n++
	}
	return n
}

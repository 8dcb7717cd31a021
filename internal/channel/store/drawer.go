package store

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"

	"github.com/ava-labs/privacy-channel/internal/crypto"
	"github.com/ava-labs/privacy-channel/internal/storage"
)

// drawerSlots is the number of UTXO slots packed into a single drawer
// (spec §4.3, "1024 slots per drawer").
const drawerSlots = 1024

// DrawerState is the bump allocator cursor shared across all drawers:
// Create always lands in (CurrentDrawer, NextSlot) and then advances,
// rolling over into a fresh drawer once the current one fills.
type DrawerState struct {
	CurrentDrawer uint32
	NextSlot      uint16
}

func encodeState(s DrawerState) []byte {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint32(buf[0:4], s.CurrentDrawer)
	binary.LittleEndian.PutUint16(buf[4:6], s.NextSlot)
	return buf
}

func decodeState(raw []byte) DrawerState {
	if len(raw) < 6 {
		return DrawerState{}
	}
	return DrawerState{
		CurrentDrawer: binary.LittleEndian.Uint32(raw[0:4]),
		NextSlot:      binary.LittleEndian.Uint16(raw[4:6]),
	}
}

// DrawerCache is a scope-bound, write-back view of one drawer's bitmap
// and amount table. It is loaded once, mutated freely, and must be
// flushed with Commit before a second cache for the same drawer is
// opened; nothing enforces that at the type level, so callers hold at
// most one live cache per drawer ID at a time (see DrawerStore, which
// never opens two).
type DrawerCache struct {
	kv       storage.KV
	prefix   []byte
	drawerID uint32

	created *bitset.BitSet
	spent   *bitset.BitSet
	amounts []int64
	dirty   bool
}

func bitmapKey(prefix []byte, drawerID uint32, name string) []byte {
	out := append([]byte{}, prefix...)
	out = append(out, name...)
	id := make([]byte, 4)
	binary.LittleEndian.PutUint32(id, drawerID)
	return append(out, id...)
}

func loadDrawerCache(kv storage.KV, prefix []byte, drawerID uint32) (*DrawerCache, error) {
	dc := &DrawerCache{kv: kv, prefix: prefix, drawerID: drawerID}

	dc.created = bitset.New(drawerSlots)
	if raw, err := kv.Get(bitmapKey(prefix, drawerID, "created/")); err == nil {
		if uerr := dc.created.UnmarshalBinary(raw); uerr != nil {
			return nil, uerr
		}
	} else if err != storage.ErrNotFound {
		return nil, err
	}

	dc.spent = bitset.New(drawerSlots)
	if raw, err := kv.Get(bitmapKey(prefix, drawerID, "spent/")); err == nil {
		if uerr := dc.spent.UnmarshalBinary(raw); uerr != nil {
			return nil, uerr
		}
	} else if err != storage.ErrNotFound {
		return nil, err
	}

	dc.amounts = make([]int64, drawerSlots)
	if raw, err := kv.Get(bitmapKey(prefix, drawerID, "amt/")); err == nil {
		for i := 0; i < drawerSlots && (i+1)*8 <= len(raw); i++ {
			dc.amounts[i] = int64(binary.LittleEndian.Uint64(raw[i*8 : (i+1)*8]))
		}
	} else if err != storage.ErrNotFound {
		return nil, err
	}

	return dc, nil
}

func (dc *DrawerCache) IsCreated(slot uint16) bool { return dc.created.Test(uint(slot)) }
func (dc *DrawerCache) IsSpent(slot uint16) bool   { return dc.spent.Test(uint(slot)) }
func (dc *DrawerCache) Amount(slot uint16) int64   { return dc.amounts[slot] }

func (dc *DrawerCache) MarkCreated(slot uint16, amount int64) {
	dc.created.Set(uint(slot))
	dc.amounts[slot] = amount
	dc.dirty = true
}

func (dc *DrawerCache) MarkSpent(slot uint16) {
	dc.spent.Set(uint(slot))
	dc.dirty = true
}

// Commit flushes the cache to the backing KV in a single batch. It is a
// no-op if nothing was mutated since load.
func (dc *DrawerCache) Commit() error {
	if !dc.dirty {
		return nil
	}
	createdRaw, err := dc.created.MarshalBinary()
	if err != nil {
		return err
	}
	spentRaw, err := dc.spent.MarshalBinary()
	if err != nil {
		return err
	}
	amountsRaw := make([]byte, drawerSlots*8)
	for i, a := range dc.amounts {
		binary.LittleEndian.PutUint64(amountsRaw[i*8:(i+1)*8], uint64(a))
	}

	b := dc.kv.NewBatch()
	b.Put(bitmapKey(dc.prefix, dc.drawerID, "created/"), createdRaw)
	b.Put(bitmapKey(dc.prefix, dc.drawerID, "spent/"), spentRaw)
	b.Put(bitmapKey(dc.prefix, dc.drawerID, "amt/"), amountsRaw)
	if err := b.Commit(); err != nil {
		return err
	}
	dc.dirty = false
	return nil
}

// slotRef is the index record pointing a UTXO identity at its drawer
// and slot; it never moves once written (spec §4.3's Open Question O4:
// drawer metadata for a spent UTXO is never reclaimed).
type slotRef struct {
	DrawerID uint32
	Slot     uint16
}

func encodeSlotRef(r slotRef) []byte {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint32(buf[0:4], r.DrawerID)
	binary.LittleEndian.PutUint16(buf[4:6], r.Slot)
	return buf
}

func decodeSlotRef(raw []byte) slotRef {
	return slotRef{
		DrawerID: binary.LittleEndian.Uint32(raw[0:4]),
		Slot:     binary.LittleEndian.Uint16(raw[4:6]),
	}
}

// DrawerStore is the bitmap-backed layout: every UTXO is allocated a
// slot in a sequentially-filled drawer, tracked by a compact bitset
// rather than one KV entry per UTXO. It generalizes the validator-set
// bitmap technique used for subnet membership, repurposed here to pack
// UTXO liveness instead of validator liveness.
type DrawerStore struct {
	kv     storage.KV
	prefix []byte
}

func NewDrawerStore(kv storage.KV, prefix []byte) *DrawerStore {
	return &DrawerStore{kv: kv, prefix: prefix}
}

func (d *DrawerStore) idxKey(key crypto.SignerKey) []byte {
	id := utxoKey(key)
	out := append([]byte{}, d.prefix...)
	out = append(out, "idx/"...)
	return append(out, id[:]...)
}

func (d *DrawerStore) stateKey() []byte {
	return append(append([]byte{}, d.prefix...), "state"...)
}

func (d *DrawerStore) loadState() (DrawerState, error) {
	raw, err := d.kv.Get(d.stateKey())
	if err == storage.ErrNotFound {
		return DrawerState{}, nil
	}
	if err != nil {
		return DrawerState{}, err
	}
	return decodeState(raw), nil
}

func (d *DrawerStore) saveState(s DrawerState) error {
	return d.kv.Put(d.stateKey(), encodeState(s))
}

func (d *DrawerStore) lookup(key crypto.SignerKey) (slotRef, bool, error) {
	raw, err := d.kv.Get(d.idxKey(key))
	if err == storage.ErrNotFound {
		return slotRef{}, false, nil
	}
	if err != nil {
		return slotRef{}, false, err
	}
	return decodeSlotRef(raw), true, nil
}

func (d *DrawerStore) Balance(key crypto.SignerKey) (int64, error) {
	ref, ok, err := d.lookup(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return -1, nil
	}
	cache, err := loadDrawerCache(d.kv, d.prefix, ref.DrawerID)
	if err != nil {
		return 0, err
	}
	if cache.IsSpent(ref.Slot) {
		return 0, nil
	}
	return cache.Amount(ref.Slot), nil
}

func (d *DrawerStore) Create(key crypto.SignerKey, amount int64) error {
	if amount <= 0 {
		return errInvalidAmount
	}
	if _, ok, err := d.lookup(key); err != nil {
		return err
	} else if ok {
		return errAlreadyExists
	}

	state, err := d.loadState()
	if err != nil {
		return err
	}
	if state.NextSlot >= drawerSlots {
		state.CurrentDrawer++
		state.NextSlot = 0
	}

	cache, err := loadDrawerCache(d.kv, d.prefix, state.CurrentDrawer)
	if err != nil {
		return err
	}
	slot := state.NextSlot
	cache.MarkCreated(slot, amount)
	if err := cache.Commit(); err != nil {
		return err
	}

	if err := d.kv.Put(d.idxKey(key), encodeSlotRef(slotRef{DrawerID: state.CurrentDrawer, Slot: slot})); err != nil {
		return err
	}
	state.NextSlot++
	return d.saveState(state)
}

func (d *DrawerStore) Spend(key crypto.SignerKey) (int64, error) {
	ref, ok, err := d.lookup(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errNotFound
	}
	cache, err := loadDrawerCache(d.kv, d.prefix, ref.DrawerID)
	if err != nil {
		return 0, err
	}
	if cache.IsSpent(ref.Slot) {
		return 0, errAlreadySpent
	}
	amount := cache.Amount(ref.Slot)
	cache.MarkSpent(ref.Slot)
	if err := cache.Commit(); err != nil {
		return 0, err
	}
	return amount, nil
}

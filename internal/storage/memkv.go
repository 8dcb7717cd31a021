package storage

import (
	"sort"
	"strings"
	"sync"
)

// MemKV is the in-memory engine: no persistence, used by tests and
// `--db-engine=memory` local runs, generalizing main/params.go's
// memdb.New() fallback.
type MemKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemKV) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

func (m *MemKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemKV) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemKV) Close() error { return nil }

type memBatch struct {
	kv      *MemKV
	puts    map[string][]byte
	deletes map[string]bool
}

func (m *MemKV) NewBatch() Batch {
	return &memBatch{kv: m, puts: make(map[string][]byte), deletes: make(map[string]bool)}
}

func (b *memBatch) Put(key, value []byte) {
	v := make([]byte, len(value))
	copy(v, value)
	delete(b.deletes, string(key))
	b.puts[string(key)] = v
}

func (b *memBatch) Delete(key []byte) {
	delete(b.puts, string(key))
	b.deletes[string(key)] = true
}

func (b *memBatch) Commit() error {
	b.kv.mu.Lock()
	defer b.kv.mu.Unlock()
	for k, v := range b.puts {
		b.kv.data[k] = v
	}
	for k := range b.deletes {
		delete(b.kv.data, k)
	}
	return nil
}

type memIterator struct {
	keys []string
	vals [][]byte
	pos  int
}

func (m *MemKV) NewIterator(prefix []byte) Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := string(prefix)
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	vals := make([][]byte, len(keys))
	for i, k := range keys {
		vals[i] = m.data[k]
	}
	return &memIterator{keys: keys, vals: vals, pos: -1}
}

func (it *memIterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *memIterator) Key() []byte   { return []byte(it.keys[it.pos]) }
func (it *memIterator) Value() []byte { return it.vals[it.pos] }
func (it *memIterator) Error() error  { return nil }
func (it *memIterator) Release()      {}

// Package storage generalizes the teacher's leveldb/memdb selection in
// main/params.go ("db-enabled" ? persistent : in-memory) into a small
// KV interface with three interchangeable engines: pebble (production),
// goleveldb (legacy-compatible), and an in-memory map, which is the
// default engine and the one tests use.
package storage

import "errors"

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// KV is the narrow persistence contract UtxoStore (simple and drawer)
// and ProviderRegistry are built over. Never widened with engine-
// specific methods: selection between engines happens once, at
// construction, per the teacher's node/config.go DBName flag.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	NewBatch() Batch
	NewIterator(prefix []byte) Iterator
	Close() error
}

// Batch accumulates writes for atomic commit, the write-back discipline
// DrawerCache relies on (spec §4.3, §9 "write-back cache").
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Commit() error
}

// Iterator walks keys sharing a prefix, in key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

// Engine selects which KV implementation to construct.
type Engine string

const (
	EnginePebble  Engine = "pebble"
	EngineLevelDB Engine = "leveldb"
	EngineMemory  Engine = "memory"
)

// Open constructs a KV store of the requested engine rooted at dir.
// dir is ignored for EngineMemory.
func Open(engine Engine, dir string) (KV, error) {
	switch engine {
	case EnginePebble:
		return openPebble(dir)
	case EngineLevelDB:
		return openLevelDB(dir)
	case EngineMemory, "":
		return NewMemKV(), nil
	default:
		return nil, errors.New("storage: unknown engine " + string(engine))
	}
}

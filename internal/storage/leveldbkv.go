package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBKV offers on-disk storage compatible with deployments that
// standardized on leveldb before pebble, selectable via
// --db-engine=leveldb (see main/params.go's original db-name flag).
type LevelDBKV struct {
	db *leveldb.DB
}

func openLevelDB(dir string) (*LevelDBKV, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBKV{db: db}, nil
}

func (l *LevelDBKV) Get(key []byte) ([]byte, error) {
	v, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return v, err
}

func (l *LevelDBKV) Put(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *LevelDBKV) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *LevelDBKV) Has(key []byte) (bool, error) {
	return l.db.Has(key, nil)
}

func (l *LevelDBKV) Close() error { return l.db.Close() }

type leveldbBatch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (l *LevelDBKV) NewBatch() Batch {
	return &leveldbBatch{db: l.db, b: new(leveldb.Batch)}
}

func (lb *leveldbBatch) Put(key, value []byte) { lb.b.Put(key, value) }
func (lb *leveldbBatch) Delete(key []byte)      { lb.b.Delete(key) }
func (lb *leveldbBatch) Commit() error          { return lb.db.Write(lb.b, nil) }

type leveldbIterator struct {
	it iterator.Iterator
}

func (l *LevelDBKV) NewIterator(prefix []byte) Iterator {
	return &leveldbIterator{it: l.db.NewIterator(util.BytesPrefix(prefix), nil)}
}

func (it *leveldbIterator) Next() bool    { return it.it.Next() }
func (it *leveldbIterator) Key() []byte   { return it.it.Key() }
func (it *leveldbIterator) Value() []byte { return it.it.Value() }
func (it *leveldbIterator) Error() error  { return it.it.Error() }
func (it *leveldbIterator) Release()      { it.it.Release() }

package storage

import (
	"bytes"

	"github.com/cockroachdb/pebble"
)

// PebbleKV is the production engine (the default engine is in-memory).
type PebbleKV struct {
	db *pebble.DB
}

func openPebble(dir string) (*PebbleKV, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleKV{db: db}, nil
}

func (p *PebbleKV) Get(key []byte) ([]byte, error) {
	v, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, closer.Close()
}

func (p *PebbleKV) Put(key, value []byte) error {
	return p.db.Set(key, value, pebble.Sync)
}

func (p *PebbleKV) Delete(key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

func (p *PebbleKV) Has(key []byte) (bool, error) {
	_, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

func (p *PebbleKV) Close() error { return p.db.Close() }

type pebbleBatch struct {
	b *pebble.Batch
}

func (p *PebbleKV) NewBatch() Batch {
	return &pebbleBatch{b: p.db.NewBatch()}
}

func (pb *pebbleBatch) Put(key, value []byte) {
	_ = pb.b.Set(key, value, nil)
}

func (pb *pebbleBatch) Delete(key []byte) {
	_ = pb.b.Delete(key, nil)
}

func (pb *pebbleBatch) Commit() error {
	return pb.b.Commit(pebble.Sync)
}

type pebbleIterator struct {
	it     *pebble.Iterator
	prefix []byte
	first  bool
}

func (p *PebbleKV) NewIterator(prefix []byte) Iterator {
	it, _ := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	return &pebbleIterator{it: it, prefix: prefix, first: true}
}

func (it *pebbleIterator) Next() bool {
	if it.first {
		it.first = false
		return it.it.First()
	}
	return it.it.Next()
}

func (it *pebbleIterator) Key() []byte   { return it.it.Key() }
func (it *pebbleIterator) Value() []byte { return it.it.Value() }
func (it *pebbleIterator) Error() error  { return it.it.Error() }
func (it *pebbleIterator) Release()      { _ = it.it.Close() }

// prefixUpperBound returns the smallest key greater than every key
// sharing prefix, or nil if prefix is all 0xff bytes (unbounded scan).
func prefixUpperBound(prefix []byte) []byte {
	upper := bytes.Clone(prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}

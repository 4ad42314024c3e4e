package recdb

import (
	"bytes"
	"slices"
	"sync"

	"github.com/tidwall/btree"
)

type memStorage struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buckets map[string]*btree.BTreeG[memKV]
	closed  bool
	writer  bool
}

// newMemStorage returns a transient in-memory storage, used by tests and by
// hosts that don't need durability.
func newMemStorage() storage {
	s := &memStorage{buckets: make(map[string]*btree.BTreeG[memKV])}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errStorageClosed
	}
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			return nil, errStorageClosed
		}
		s.writer = true
	}

	// Copy is lazy copy-on-write, so a snapshot per transaction is cheap.
	snap := make(map[string]*btree.BTreeG[memKV], len(s.buckets))
	for k, t := range s.buckets {
		snap[k] = t.Copy()
	}

	return &memTx{
		writable: writable,
		base:     s,
		buckets:  snap,
	}, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	s.cond.Broadcast()
	return nil
}

type memTx struct {
	base     *memStorage
	writable bool
	buckets  map[string]*btree.BTreeG[memKV]
	closed   bool
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) closeLocked() {
	if tx.closed {
		return
	}
	tx.closed = true
	if tx.writable {
		tx.base.writer = false
		tx.base.cond.Broadcast()
	}
}

func (tx *memTx) Bucket(name string) storageBucket {
	if tx.closed {
		panic("tx is closed")
	}
	t := tx.buckets[name]
	if t == nil {
		return nil
	}
	return memBucket{tx: tx, t: t}
}

func (tx *memTx) CreateBucket(name string) (storageBucket, error) {
	if tx.closed {
		panic("tx is closed")
	}
	if !tx.writable {
		return nil, errTxNotWritable
	}
	t := tx.buckets[name]
	if t == nil {
		t = btree.NewBTreeG(memKVLess)
		tx.buckets[name] = t
	}
	return memBucket{tx: tx, t: t}, nil
}

func (tx *memTx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.writable {
		return errTxNotWritable
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	if tx.base.closed {
		tx.closeLocked()
		return errStorageClosed
	}
	tx.base.buckets = tx.buckets
	tx.closeLocked()
	return nil
}

func (tx *memTx) Rollback() error {
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	tx.closeLocked()
	return nil
}

func (tx *memTx) Size() int64 { return 0 }

type memKV struct {
	key   []byte
	value []byte
}

func memKVLess(a, b memKV) bool {
	return bytes.Compare(a.key, b.key) < 0
}

type memBucket struct {
	tx *memTx
	t  *btree.BTreeG[memKV]
}

func (b memBucket) Get(key []byte) []byte {
	kv, ok := b.t.Get(memKV{key: key})
	if !ok {
		return nil
	}
	return kv.value
}

func (b memBucket) Put(key, value []byte) error {
	if !b.tx.writable {
		return errTxNotWritable
	}
	b.t.Set(memKV{key: slices.Clone(key), value: slices.Clone(value)})
	return nil
}

func (b memBucket) Cursor() storageCursor {
	return &memCursor{t: b.t}
}

func (b memBucket) Stats() bucketStats {
	var inuse int64
	b.t.Scan(func(kv memKV) bool {
		inuse += int64(len(kv.key) + len(kv.value))
		return true
	})
	return bucketStats{
		KeyN:      b.t.Len(),
		LeafInuse: inuse,
		LeafAlloc: inuse,
	}
}

func (b memBucket) KeyCount() int { return b.t.Len() }

// memCursor remembers the current key rather than holding a btree iterator,
// so puts made while a cursor is open don't invalidate it.
type memCursor struct {
	t   *btree.BTreeG[memKV]
	cur []byte
}

func (c *memCursor) at(kv memKV, ok bool) ([]byte, []byte) {
	if !ok {
		c.cur = nil
		return nil, nil
	}
	c.cur = kv.key
	return kv.key, kv.value
}

func (c *memCursor) First() ([]byte, []byte) {
	return c.at(c.t.Min())
}

func (c *memCursor) Last() ([]byte, []byte) {
	return c.at(c.t.Max())
}

func (c *memCursor) Seek(seek []byte) ([]byte, []byte) {
	iter := c.t.Iter()
	defer iter.Release()
	if !iter.Seek(memKV{key: seek}) {
		return c.at(memKV{}, false)
	}
	return c.at(iter.Item(), true)
}

func (c *memCursor) Next() ([]byte, []byte) {
	if c.cur == nil {
		return nil, nil
	}
	iter := c.t.Iter()
	defer iter.Release()
	if !iter.Seek(memKV{key: c.cur}) {
		return c.at(memKV{}, false)
	}
	if bytes.Equal(iter.Item().key, c.cur) && !iter.Next() {
		return c.at(memKV{}, false)
	}
	return c.at(iter.Item(), true)
}

func (c *memCursor) Prev() ([]byte, []byte) {
	if c.cur == nil {
		return nil, nil
	}
	iter := c.t.Iter()
	defer iter.Release()
	var ok bool
	if iter.Seek(memKV{key: c.cur}) {
		ok = iter.Prev()
	} else {
		ok = iter.Last()
	}
	if !ok {
		return c.at(memKV{}, false)
	}
	return c.at(iter.Item(), true)
}

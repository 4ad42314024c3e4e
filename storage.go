package recdb

import "errors"

// ErrBucketNotFound is returned when an operation needs a bucket that hasn't been created.
var ErrBucketNotFound = errors.New("bucket not found")

var errTxNotWritable = errors.New("tx not writable")

var errStorageClosed = errors.New("storage closed")

// storage represents a key-value storage backend (Bolt, SQLite, in-memory).
//
// There is deliberately no way to delete a key: record ids are derived from
// the record count and would be reused after a deletion.
type storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (storageTx, error)
	// Close closes the storage.
	Close() error
}

// storageTx represents a storage transaction.
type storageTx interface {
	// Writable returns true if this is a writable transaction.
	Writable() bool

	// Bucket returns a bucket, or nil if the bucket doesn't exist.
	Bucket(name string) storageBucket

	// CreateBucket creates a bucket if it doesn't exist.
	CreateBucket(name string) (storageBucket, error)

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times,
	// including after Commit.
	Rollback() error

	// Size returns the database size in bytes (0 if unknown / not applicable).
	Size() int64
}

// storageBucket represents a bucket (sorted key-value collection).
type storageBucket interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(key []byte) []byte

	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Cursor returns a cursor for iteration.
	Cursor() storageCursor

	// Stats returns storage-specific bucket statistics.
	// Backends that don't track allocation sizes may return zero values except KeyN.
	Stats() bucketStats

	// KeyCount returns the exact number of keys in the bucket, including
	// keys written earlier in the same transaction.
	KeyCount() int
}

type bucketStats struct {
	KeyN        int
	LeafInuse   int64
	LeafAlloc   int64
	BranchAlloc int64
}

func (s bucketStats) TotalAlloc() int64 { return s.BranchAlloc + s.LeafAlloc }

// storageCursor iterates over a sorted bucket. All methods return nil key
// when there is no such item. Position the cursor with First, Last or Seek
// before calling Next or Prev.
type storageCursor interface {
	// First moves to the first key-value pair.
	First() (key, value []byte)

	// Last moves to the last key-value pair.
	Last() (key, value []byte)

	// Seek moves to the first key >= seek.
	Seek(seek []byte) (key, value []byte)

	// Next moves to the next key-value pair.
	Next() (key, value []byte)

	// Prev moves to the previous key-value pair.
	Prev() (key, value []byte)
}

type Backend string

const (
	BoltBackend   Backend = "bolt"
	SQLiteBackend Backend = "sqlite"
	MemBackend    Backend = "mem"
)

func (b Backend) Valid() bool {
	switch b {
	case BoltBackend, SQLiteBackend, MemBackend:
		return true
	default:
		return false
	}
}

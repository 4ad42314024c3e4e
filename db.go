package recdb

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

const (
	recordsBucket  = "data_records"
	balancesBucket = "account_balances"
)

// DB is the record store and balance ledger over a single storage backend.
// It implements Engine.
type DB struct {
	st      storage
	codec   Codec
	logger  *slog.Logger
	verbose bool
	backend Backend

	// writeMu makes every write transaction, and thus “count records, derive
	// id, insert”, a single critical section regardless of backend.
	writeMu sync.Mutex

	lastSize   atomic.Int64
	ReadCount  atomic.Uint64
	WriteCount atomic.Uint64
}

type Options struct {
	// Backend selects the storage. Defaults to BoltBackend.
	Backend Backend

	// Codec transforms record text. Defaults to ZlibCodec.
	Codec Codec

	Logger  *slog.Logger
	Verbose bool

	// IsTesting trades durability for speed.
	IsTesting bool

	// MmapSize overrides Bolt's initial mmap size.
	MmapSize int
}

// Open opens or creates a database at path. For MemBackend, path is ignored.
func Open(path string, opt Options) (*DB, error) {
	if opt.Backend == "" {
		opt.Backend = BoltBackend
	}

	var st storage
	var err error
	switch opt.Backend {
	case BoltBackend:
		st, err = openBoltStorage(path, opt)
	case SQLiteBackend:
		st, err = openSQLiteStorage(path, opt)
	case MemBackend:
		st = newMemStorage()
	default:
		return nil, fmt.Errorf("recdb: unknown backend %q", opt.Backend)
	}
	if err != nil {
		return nil, err
	}
	return newDB(st, opt)
}

// OpenMem returns a database backed by memory only.
func OpenMem(opt Options) *DB {
	opt.Backend = MemBackend
	return must(newDB(newMemStorage(), opt))
}

func newDB(st storage, opt Options) (*DB, error) {
	db := &DB{
		st:      nonNil(st),
		codec:   opt.Codec,
		logger:  opt.Logger,
		verbose: opt.Verbose,
		backend: opt.Backend,
	}
	if db.codec == nil {
		db.codec = defaultCodec
	}
	if db.logger == nil {
		db.logger = slog.Default()
	}

	err := db.Tx(true, func(tx *Tx) error {
		for _, name := range []string{recordsBucket, balancesBucket} {
			if _, err := tx.stx.CreateBucket(name); err != nil {
				return bucketErrf(name, nil, err, "create")
			}
		}
		return nil
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("recdb: prepare: %w", err)
	}
	return db, nil
}

func (db *DB) Backend() Backend {
	return db.backend
}

func (db *DB) Codec() Codec {
	return db.codec
}

func (db *DB) Logger() *slog.Logger {
	return db.logger
}

// Size returns the storage size observed at the end of the last write.
func (db *DB) Size() int64 {
	return db.lastSize.Load()
}

func (db *DB) Close() {
	err := db.st.Close()
	if err != nil {
		panic(fmt.Errorf("recdb: closing: %w", err))
	}
}

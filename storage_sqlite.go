package recdb

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS buckets (
	name TEXT PRIMARY KEY
) WITHOUT ROWID;
CREATE TABLE IF NOT EXISTS kv (
	bucket TEXT NOT NULL,
	key BLOB NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (bucket, key)
) WITHOUT ROWID;
`

// sqliteStorage keeps every bucket in one kv table keyed by (bucket, key).
// SQLite compares BLOBs with memcmp, so key order matches Bolt's.
type sqliteStorage struct {
	db *sql.DB
}

func openSQLiteStorage(path string, opt Options) (storage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("recdb: sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("recdb: sqlite: %w", err)
	}

	// One connection: SQLite has a single writer anyway, and transactions here
	// never overlap.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	if opt.IsTesting {
		pragmas = append(pragmas, "PRAGMA synchronous = OFF")
	} else {
		pragmas = append(pragmas, "PRAGMA synchronous = NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("recdb: sqlite: %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("recdb: sqlite: schema: %w", err)
	}
	return &sqliteStorage{db: db}, nil
}

func (s *sqliteStorage) BeginTx(writable bool) (storageTx, error) {
	stx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &sqliteTx{stx: stx, writable: writable}, nil
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

type sqliteTx struct {
	stx      *sql.Tx
	writable bool
	done     bool
}

func (tx *sqliteTx) Writable() bool { return tx.writable }

func (tx *sqliteTx) Bucket(name string) storageBucket {
	var found string
	err := tx.stx.QueryRow(`SELECT name FROM buckets WHERE name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	} else if err != nil {
		panic(bucketErrf(name, nil, err, "sqlite lookup"))
	}
	return sqliteBucket{tx: tx, name: name}
}

func (tx *sqliteTx) CreateBucket(name string) (storageBucket, error) {
	if !tx.writable {
		return nil, errTxNotWritable
	}
	_, err := tx.stx.Exec(`INSERT INTO buckets (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return nil, err
	}
	return sqliteBucket{tx: tx, name: name}, nil
}

func (tx *sqliteTx) Commit() error {
	if tx.done {
		return nil
	}
	if !tx.writable {
		return errTxNotWritable
	}
	tx.done = true
	return tx.stx.Commit()
}

func (tx *sqliteTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	err := tx.stx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (tx *sqliteTx) Size() int64 {
	var pages, pageSize int64
	if err := tx.stx.QueryRow(`PRAGMA page_count`).Scan(&pages); err != nil {
		return 0
	}
	if err := tx.stx.QueryRow(`PRAGMA page_size`).Scan(&pageSize); err != nil {
		return 0
	}
	return pages * pageSize
}

type sqliteBucket struct {
	tx   *sqliteTx
	name string
}

func (b sqliteBucket) Get(key []byte) []byte {
	var value []byte
	err := b.tx.stx.QueryRow(`SELECT value FROM kv WHERE bucket = ? AND key = ?`, b.name, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	} else if err != nil {
		panic(bucketErrf(b.name, key, err, "sqlite get"))
	}
	if value == nil {
		value = []byte{}
	}
	return value
}

func (b sqliteBucket) Put(key, value []byte) error {
	if !b.tx.writable {
		return errTxNotWritable
	}
	if value == nil {
		value = []byte{}
	}
	_, err := b.tx.stx.Exec(`INSERT INTO kv (bucket, key, value) VALUES (?, ?, ?)
		ON CONFLICT (bucket, key) DO UPDATE SET value = excluded.value`, b.name, key, value)
	return err
}

func (b sqliteBucket) Cursor() storageCursor {
	return &sqliteCursor{b: b}
}

func (b sqliteBucket) Stats() bucketStats {
	var n int
	var inuse sql.NullInt64
	err := b.tx.stx.QueryRow(`SELECT COUNT(*), SUM(LENGTH(key) + LENGTH(value)) FROM kv WHERE bucket = ?`, b.name).Scan(&n, &inuse)
	if err != nil {
		panic(bucketErrf(b.name, nil, err, "sqlite stats"))
	}
	return bucketStats{
		KeyN:      n,
		LeafInuse: inuse.Int64,
		LeafAlloc: inuse.Int64,
	}
}

func (b sqliteBucket) KeyCount() int {
	var n int
	err := b.tx.stx.QueryRow(`SELECT COUNT(*) FROM kv WHERE bucket = ?`, b.name).Scan(&n)
	if err != nil {
		panic(bucketErrf(b.name, nil, err, "sqlite count"))
	}
	return n
}

// sqliteCursor runs one single-row query per move, keyed off the current key.
type sqliteCursor struct {
	b   sqliteBucket
	cur []byte
}

func (c *sqliteCursor) row(query string, args ...any) ([]byte, []byte) {
	var k, v []byte
	err := c.b.tx.stx.QueryRow(query, append([]any{c.b.name}, args...)...).Scan(&k, &v)
	if errors.Is(err, sql.ErrNoRows) {
		c.cur = nil
		return nil, nil
	} else if err != nil {
		panic(bucketErrf(c.b.name, c.cur, err, "sqlite cursor"))
	}
	if v == nil {
		v = []byte{}
	}
	c.cur = k
	return k, v
}

func (c *sqliteCursor) First() ([]byte, []byte) {
	return c.row(`SELECT key, value FROM kv WHERE bucket = ? ORDER BY key ASC LIMIT 1`)
}

func (c *sqliteCursor) Last() ([]byte, []byte) {
	return c.row(`SELECT key, value FROM kv WHERE bucket = ? ORDER BY key DESC LIMIT 1`)
}

func (c *sqliteCursor) Seek(seek []byte) ([]byte, []byte) {
	return c.row(`SELECT key, value FROM kv WHERE bucket = ? AND key >= ? ORDER BY key ASC LIMIT 1`, seek)
}

func (c *sqliteCursor) Next() ([]byte, []byte) {
	if c.cur == nil {
		return nil, nil
	}
	return c.row(`SELECT key, value FROM kv WHERE bucket = ? AND key > ? ORDER BY key ASC LIMIT 1`, c.cur)
}

func (c *sqliteCursor) Prev() ([]byte, []byte) {
	if c.cur == nil {
		return nil, nil
	}
	return c.row(`SELECT key, value FROM kv WHERE bucket = ? AND key < ? ORDER BY key DESC LIMIT 1`, c.cur)
}

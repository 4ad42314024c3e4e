package recdb

import (
	"fmt"
	"runtime/debug"
)

type Tx struct {
	db     *DB
	stx    storageTx
	closed bool
}

func (db *DB) newTx(stx storageTx) *Tx {
	return &Tx{db: db, stx: stx}
}

func (tx *Tx) DB() *DB {
	return tx.db
}

func (tx *Tx) IsWritable() bool {
	return tx.stx.Writable()
}

func (tx *Tx) bucket(name string) storageBucket {
	b := tx.stx.Bucket(name)
	if b == nil {
		panic(bucketErrf(name, nil, ErrBucketNotFound, ""))
	}
	return b
}

// Tx runs f in a transaction. A writable transaction is committed if f
// returns nil and rolled back otherwise. Panics inside f are returned as errors.
func (db *DB) Tx(writable bool, f func(tx *Tx) error) error {
	if writable {
		db.writeMu.Lock()
		defer db.writeMu.Unlock()
	}

	stx, err := db.st.BeginTx(writable)
	if err != nil {
		return fmt.Errorf("recdb: begin: %w", err)
	}
	tx := db.newTx(stx)
	defer tx.Close()

	err = safelyCall(f, tx)
	if err != nil {
		return err
	}
	if writable {
		return tx.Commit()
	}
	db.ReadCount.Add(1)
	return nil
}

type panicked struct {
	reason interface{}
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func (p panicked) Unwrap() error {
	err, _ := p.reason.(error)
	return err
}

func safelyCall(fn func(*Tx) error, tx *Tx) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn(tx)
}

func (db *DB) BeginRead() *Tx {
	stx, err := db.st.BeginTx(false)
	if err != nil {
		panic(fmt.Errorf("failed to start reading: %w", err))
	}
	return db.newTx(stx)
}

func (db *DB) Read(f func(tx *Tx)) {
	tx := db.BeginRead()
	defer tx.Close()
	f(tx)
	db.ReadCount.Add(1)
}

// Write runs f in a write transaction and commits it. It panics if the
// commit fails; f can abort the transaction by panicking.
func (db *DB) Write(f func(tx *Tx)) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	stx, err := db.st.BeginTx(true)
	if err != nil {
		panic(fmt.Errorf("recdb: begin write: %w", err))
	}
	tx := db.newTx(stx)
	defer tx.Close()
	f(tx)
	err = tx.Commit()
	if err != nil {
		panic(fmt.Errorf("commit: %w", err))
	}
}

func (tx *Tx) Commit() error {
	if tx.closed {
		return fmt.Errorf("recdb: commit of a closed tx")
	}
	size := tx.stx.Size()
	err := tx.stx.Commit()
	tx.closed = true
	if err != nil {
		return fmt.Errorf("recdb: commit: %w", err)
	}
	tx.db.lastSize.Store(size)
	tx.db.WriteCount.Add(1)
	return nil
}

// Close rolls back the transaction unless it has been committed.
func (tx *Tx) Close() {
	if tx.closed {
		return
	}
	tx.closed = true
	err := tx.stx.Rollback()
	if err != nil {
		panic(err) // not expected to happen unless a backend misbehaves
	}
}

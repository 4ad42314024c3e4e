package recdb

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

type ID uint64

// Record is an immutable (id, compressed payload) pair.
type Record struct {
	ID      ID     `msgpack:"i"`
	Payload []byte `msgpack:"p"`
	Sum     uint64 `msgpack:"s"`
}

type recordFlags uint64

const (
	rfVerBit0 = recordFlags(1 << iota)
	rfVerBit1
	rfVerBit2
	rfVerBit3
	rfCompressionBit0

	rfVerMask       = (rfVerBit0 | rfVerBit1 | rfVerBit2 | rfVerBit3)
	rfVer1          = rfVerBit0
	rfZlib          = rfCompressionBit0
	rfSupportedMask = (rfVerMask | rfZlib)
	rfDefault       = (rfVer1 | rfZlib)
)

func (rf recordFlags) ver() recordFlags {
	return rf & rfVerMask
}

func encodeRecord(rec *Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(appendUvarint(nil, uint64(rfDefault)))

	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	err := enc.Encode(rec)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %d using MsgPack: %w", rec.ID, err)
	}
	return buf.Bytes(), nil
}

func decodeRecord(id ID, data []byte) (*Record, error) {
	d := makeByteDecoder(data)
	v, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	flags := recordFlags(v)
	if (flags &^ rfSupportedMask) != 0 {
		return nil, dataErrf(data, 0, nil, "unsupported record flags %x", uint64(flags))
	}
	if flags.ver() != rfVer1 {
		return nil, dataErrf(data, 0, nil, "unsupported record version %d", uint64(flags.ver()))
	}
	if flags&rfZlib == 0 {
		return nil, dataErrf(data, 0, nil, "record is not compressed")
	}

	off := d.Off()
	rec := new(Record)
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(d.Rest()))
	err = dec.Decode(rec)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, dataErrf(data, off, err, "failed to decode msgpack record")
	}
	if rec.ID != id {
		return nil, dataErrf(data, off, nil, "record id %d stored under key %d", rec.ID, id)
	}
	if sum := xxhash.Sum64(rec.Payload); sum != rec.Sum {
		return nil, dataErrf(data, off, nil, "payload checksum %016x, wanted %016x", sum, rec.Sum)
	}
	return rec, nil
}

// RecordCount returns the number of stored records.
func (tx *Tx) RecordCount() uint64 {
	return uint64(tx.bucket(recordsBucket).KeyCount())
}

// StoreRecord compresses text and stores it under the next id, which is the
// current record count plus one. If compression fails, nothing is stored and
// the codec error is returned unchanged.
func (tx *Tx) StoreRecord(text string) (ID, error) {
	buck := tx.bucket(recordsBucket)
	id := ID(buck.KeyCount()) + 1

	payload, err := tx.db.codec.Compress(text)
	if err != nil {
		return 0, err
	}

	rec := &Record{
		ID:      id,
		Payload: payload,
		Sum:     xxhash.Sum64(payload),
	}
	value, err := encodeRecord(rec)
	if err != nil {
		return 0, err
	}

	key := appendIDKey(nil, id)
	if existing := buck.Get(key); existing != nil {
		// only possible if the bucket was tampered with outside of this package
		return 0, bucketErrf(recordsBucket, key, nil, "id %d already taken", id)
	}
	if err := buck.Put(key, value); err != nil {
		return 0, bucketErrf(recordsBucket, key, err, "put")
	}

	if tx.db.verbose {
		tx.db.logger.Debug("recdb: store", "id", uint64(id), "text_len", len(text), "payload_len", len(payload), hexAttr("key", key))
	}
	return id, nil
}

// GetRawRecord returns the decoded record envelope, or nil if there is none.
func (tx *Tx) GetRawRecord(id ID) (*Record, error) {
	key := appendIDKey(nil, id)
	raw := tx.bucket(recordsBucket).Get(key)
	if raw == nil {
		return nil, nil
	}
	rec, err := decodeRecord(id, raw)
	if err != nil {
		return nil, codecErr(DecodingFailure, err)
	}
	return rec, nil
}

// GetRecord returns the text stored under id. found is false if there is no
// such record; that is not an error. Decoding failures of an existing
// record are returned with found set to true.
func (tx *Tx) GetRecord(id ID) (text string, found bool, err error) {
	rec, err := tx.GetRawRecord(id)
	if err != nil {
		return "", true, err
	}
	if rec == nil {
		return "", false, nil
	}
	text, err = tx.db.codec.Decompress(rec.Payload)
	return text, true, err
}

type RecordRange struct {
	From    ID // inclusive, 0 means from the first record
	To      ID // inclusive, 0 means up to the last record
	Reverse bool
}

// ScanRecords yields stored records in id order. Records whose envelope
// cannot be decoded are yielded with a nil Record and a non-nil error.
func (tx *Tx) ScanRecords(rang RecordRange) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		c := tx.bucket(recordsBucket).Cursor()

		var k, v []byte
		if rang.Reverse {
			if rang.To != 0 {
				k, v = c.Seek(appendIDKey(nil, rang.To))
				if k == nil {
					k, v = c.Last()
				} else if id, err := decodeIDKey(k); err != nil || id > rang.To {
					k, v = c.Prev()
				}
			} else {
				k, v = c.Last()
			}
		} else {
			if rang.From != 0 {
				k, v = c.Seek(appendIDKey(nil, rang.From))
			} else {
				k, v = c.First()
			}
		}

		for ; k != nil; k, v = advance(c, rang.Reverse) {
			id, err := decodeIDKey(k)
			if err != nil {
				if !yield(nil, codecErr(DecodingFailure, err)) {
					return
				}
				continue
			}
			if rang.Reverse && rang.From != 0 && id < rang.From {
				return
			}
			if !rang.Reverse && rang.To != 0 && id > rang.To {
				return
			}
			rec, err := decodeRecord(id, v)
			if err != nil {
				err = codecErr(DecodingFailure, err)
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

func advance(c storageCursor, reverse bool) ([]byte, []byte) {
	if reverse {
		return c.Prev()
	} else {
		return c.Next()
	}
}

// StoreRecord implements Engine.
func (db *DB) StoreRecord(text string) (ID, error) {
	var id ID
	err := db.Tx(true, func(tx *Tx) error {
		var err error
		id, err = tx.StoreRecord(text)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetRecord implements Engine.
func (db *DB) GetRecord(id ID) (text string, found bool, err error) {
	db.Read(func(tx *Tx) {
		text, found, err = tx.GetRecord(id)
	})
	return
}

func (db *DB) RecordCount() uint64 {
	var n uint64
	db.Read(func(tx *Tx) {
		n = tx.RecordCount()
	})
	return n
}

package recdb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cespare/xxhash/v2"
)

func TestRecords_EncodeDecode(t *testing.T) {
	payload := must(ZlibCodec{}.Compress("payload"))
	rec := &Record{ID: 7, Payload: payload, Sum: xxhashOf(payload)}

	raw := must(encodeRecord(rec))
	if raw[0] != byte(rfDefault) {
		t.Fatalf("flags byte = %x, wanted %x", raw[0], byte(rfDefault))
	}
	deepEqual(t, must(decodeRecord(7, raw)), rec)

	_, err := decodeRecord(8, raw)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("decodeRecord(wrong id) err = %v, wanted *DataError", err)
	}
}

func TestRecords_DecodeRejectsUnknownVersion(t *testing.T) {
	payload := must(ZlibCodec{}.Compress("p"))
	raw := must(encodeRecord(&Record{ID: 1, Payload: payload, Sum: xxhashOf(payload)}))
	raw = bytes.Clone(raw)
	raw[0] = byte(rfZlib | rfVerBit1) // version 2
	if _, err := decodeRecord(1, raw); err == nil {
		t.Fatalf("decodeRecord(version 2) succeeded, wanted error")
	}
}

func TestRecords_StoredBytesLayout(t *testing.T) {
	db := setup(t, MemBackend)
	deepEqual(t, must(db.StoreRecord("hello")), ID(1))
	db.Read(func(tx *Tx) {
		c := tx.bucket(recordsBucket).Cursor()
		k, v := c.First()
		deepEqual(t, k, []byte{0, 0, 0, 0, 0, 0, 0, 1})
		rec := must(decodeRecord(1, v))
		deepEqual(t, must(ZlibCodec{}.Decompress(rec.Payload)), "hello")
		deepEqual(t, rec.Sum, xxhashOf(rec.Payload))
	})
}

func TestRecords_StoreInsideOneTx(t *testing.T) {
	forEachBackend(t, allBackends, func(t *testing.T, backend Backend) {
		db := setup(t, backend)
		err := db.Tx(true, func(tx *Tx) error {
			for i := 1; i <= 3; i++ {
				id, err := tx.StoreRecord("r")
				if err != nil {
					return err
				}
				if id != ID(i) {
					t.Errorf("StoreRecord #%d = %d", i, id)
				}
			}
			deepEqual(t, tx.RecordCount(), uint64(3))
			return nil
		})
		ensure(err)
		deepEqual(t, db.RecordCount(), uint64(3))
	})
}

func TestRecords_FailedTxRollsBack(t *testing.T) {
	forEachBackend(t, allBackends, func(t *testing.T, backend Backend) {
		db := setup(t, backend)
		boom := errors.New("boom")
		err := db.Tx(true, func(tx *Tx) error {
			must(tx.StoreRecord("doomed"))
			return boom
		})
		if err != boom {
			t.Fatalf("Tx err = %v, wanted boom", err)
		}
		deepEqual(t, db.RecordCount(), uint64(0))
		deepEqual(t, must(db.StoreRecord("kept")), ID(1))
	})
}

func TestRecords_Scan(t *testing.T) {
	forEachBackend(t, allBackends, func(t *testing.T, backend Backend) {
		db := setup(t, backend)
		for _, s := range []string{"a", "b", "c", "d", "e"} {
			must(db.StoreRecord(s))
		}

		o := func(name string, rang RecordRange, exp ...ID) {
			t.Run(name, func(t *testing.T) {
				var got []ID
				db.Read(func(tx *Tx) {
					for rec, err := range tx.ScanRecords(rang) {
						ensure(err)
						got = append(got, rec.ID)
					}
				})
				deepEqual(t, got, exp)
			})
		}
		o("all", RecordRange{}, 1, 2, 3, 4, 5)
		o("all reverse", RecordRange{Reverse: true}, 5, 4, 3, 2, 1)
		o("from", RecordRange{From: 3}, 3, 4, 5)
		o("to", RecordRange{To: 2}, 1, 2)
		o("from to", RecordRange{From: 2, To: 4}, 2, 3, 4)
		o("from to reverse", RecordRange{From: 2, To: 4, Reverse: true}, 4, 3, 2)
		o("to past end reverse", RecordRange{To: 99, Reverse: true}, 5, 4, 3, 2, 1)
		o("from past end", RecordRange{From: 99})
		o("from past end reverse", RecordRange{From: 99, Reverse: true})
	})
}

func TestRecords_ScanReportsCorruption(t *testing.T) {
	db := setup(t, MemBackend)
	must(db.StoreRecord("a"))
	must(db.StoreRecord("b"))
	putRawRecord(db, 2, []byte{0x01})

	var ids []ID
	var errs int
	db.Read(func(tx *Tx) {
		for rec, err := range tx.ScanRecords(RecordRange{}) {
			if err != nil {
				if !errors.Is(err, ErrDecodingFailure) {
					t.Errorf("scan err = %v, wanted decoding failure", err)
				}
				errs++
				continue
			}
			ids = append(ids, rec.ID)
		}
	})
	deepEqual(t, ids, []ID{1})
	deepEqual(t, errs, 1)
}

func TestRecords_GetRawRecord(t *testing.T) {
	db := setup(t, MemBackend)
	must(db.StoreRecord("raw"))
	db.Read(func(tx *Tx) {
		rec := must(tx.GetRawRecord(1))
		deepEqual(t, rec.ID, ID(1))
		deepEqual(t, must(ZlibCodec{}.Decompress(rec.Payload)), "raw")

		rec = must(tx.GetRawRecord(2))
		if rec != nil {
			t.Errorf("GetRawRecord(2) = %+v, wanted nil", rec)
		}
	})
}

func xxhashOf(b []byte) uint64 {
	return xxhash.Sum64(b)
}

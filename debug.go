package recdb

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpHeaders = DumpFlags(1 << iota)
	DumpRecords
	DumpPayloads
	DumpBalances
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the database contents for debugging and tests.
func (tx *Tx) Dump(f DumpFlags) string {
	var buf strings.Builder
	tx.dumpRecords(&buf, f)
	tx.dumpBalances(&buf, f)
	return buf.String()
}

func (tx *Tx) dumpRecords(w *strings.Builder, f DumpFlags) {
	s := tx.bucketStats(recordsBucket)
	if f.Contains(DumpHeaders) {
		fmt.Fprintln(w, dumpSep1)
		fmt.Fprintf(w, "%s (%d records)\n", recordsBucket, s.Keys)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: size = %d, alloc = %d\n", recordsBucket, s.Size, s.Alloc)
	}
	if !f.Contains(DumpRecords) {
		return
	}
	if f.Contains(DumpHeaders) {
		fmt.Fprintln(w, dumpSep2)
	}
	for rec, err := range tx.ScanRecords(RecordRange{}) {
		if err != nil {
			fmt.Fprintf(w, "!! %v\n", err)
			continue
		}
		text, err := tx.db.codec.Decompress(rec.Payload)
		if err != nil {
			fmt.Fprintf(w, "%d: (%d bytes) !! %v\n", rec.ID, len(rec.Payload), err)
		} else {
			fmt.Fprintf(w, "%d: (%d bytes) %q\n", rec.ID, len(rec.Payload), text)
		}
		if f.Contains(DumpPayloads) {
			fmt.Fprintf(w, "    %s\n", hexstr(rec.Payload))
		}
	}
}

func (tx *Tx) dumpBalances(w *strings.Builder, f DumpFlags) {
	s := tx.bucketStats(balancesBucket)
	if f.Contains(DumpHeaders) {
		fmt.Fprintln(w, dumpSep1)
		fmt.Fprintf(w, "%s (%d accounts)\n", balancesBucket, s.Keys)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: size = %d, alloc = %d\n", balancesBucket, s.Size, s.Alloc)
	}
	if !f.Contains(DumpBalances) {
		return
	}
	if f.Contains(DumpHeaders) {
		fmt.Fprintln(w, dumpSep2)
	}
	for account, balance := range tx.ScanBalances() {
		fmt.Fprintf(w, "%s: %d\n", account, balance)
	}
}

func (db *DB) Dump(f DumpFlags) string {
	var s string
	db.Read(func(tx *Tx) {
		s = tx.Dump(f)
	})
	return s
}

package recdb

type BucketStats struct {
	Keys  int
	Size  int64
	Alloc int64
}

type Stats struct {
	Backend  Backend
	Records  BucketStats
	Balances BucketStats
	DBSize   int64

	Reads  uint64
	Writes uint64
}

func (s *Stats) TotalSize() int64 {
	return s.Records.Size + s.Balances.Size
}

func (tx *Tx) bucketStats(name string) BucketStats {
	bs := tx.bucket(name).Stats()
	return BucketStats{
		Keys:  bs.KeyN,
		Size:  bs.LeafInuse,
		Alloc: bs.TotalAlloc(),
	}
}

func (tx *Tx) Stats() Stats {
	return Stats{
		Backend:  tx.db.backend,
		Records:  tx.bucketStats(recordsBucket),
		Balances: tx.bucketStats(balancesBucket),
		DBSize:   tx.stx.Size(),
		Reads:    tx.db.ReadCount.Load(),
		Writes:   tx.db.WriteCount.Load(),
	}
}

func (db *DB) Stats() Stats {
	var s Stats
	db.Read(func(tx *Tx) {
		s = tx.Stats()
	})
	return s
}

package recdb

// Engine is the operation surface a host invokes. Calls are expected to be
// serialized by the host, but *DB also tolerates concurrent callers.
type Engine interface {
	// StoreRecord compresses data and stores it, returning the new id.
	StoreRecord(data string) (ID, error)

	// GetRecord returns the decompressed text. found is false if id was never
	// assigned; err reports a record that exists but cannot be decoded.
	GetRecord(id ID) (text string, found bool, err error)

	// ChargeForData decrements the balance of an existing account.
	ChargeForData(account AccountID, amount int64)
}

var _ Engine = (*DB)(nil)

package recdb

import "iter"

// AccountID is an opaque account token, typically supplied by the host.
type AccountID string

// Balance returns the balance of account, with found=false if the account
// has never been seeded.
func (tx *Tx) Balance(account AccountID) (balance int64, found bool) {
	raw := tx.bucket(balancesBucket).Get([]byte(account))
	if raw == nil {
		return 0, false
	}
	return must(decodeBalance(raw)), true
}

// SetBalance creates or overwrites the balance entry for account. This is
// how the host seeds accounts; ChargeForData never creates them.
func (tx *Tx) SetBalance(account AccountID, balance int64) {
	key := []byte(account)
	err := tx.bucket(balancesBucket).Put(key, appendBalance(nil, balance))
	if err != nil {
		panic(bucketErrf(balancesBucket, key, err, "SetBalance"))
	}
}

// ChargeForData subtracts amount from the balance of account.
//
// Unknown accounts are silently ignored. The result is stored even if it
// goes negative; int64 arithmetic wraps on overflow.
func (tx *Tx) ChargeForData(account AccountID, amount int64) {
	balance, found := tx.Balance(account)
	if !found {
		if tx.db.verbose {
			tx.db.logger.Debug("recdb: charge skipped, no such account", "account", string(account), "amount", amount)
		}
		return
	}
	balance -= amount
	tx.SetBalance(account, balance)
	if tx.db.verbose {
		tx.db.logger.Debug("recdb: charge", "account", string(account), "amount", amount, "balance", balance)
	}
}

// ScanBalances yields all balance entries in account order.
func (tx *Tx) ScanBalances() iter.Seq2[AccountID, int64] {
	return func(yield func(AccountID, int64) bool) {
		c := tx.bucket(balancesBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if !yield(AccountID(k), must(decodeBalance(v))) {
				return
			}
		}
	}
}

func (tx *Tx) BalanceCount() int {
	return tx.bucket(balancesBucket).KeyCount()
}

// ChargeForData implements Engine. It panics if the storage fails.
func (db *DB) ChargeForData(account AccountID, amount int64) {
	db.Write(func(tx *Tx) {
		tx.ChargeForData(account, amount)
	})
}

func (db *DB) SetBalance(account AccountID, balance int64) {
	db.Write(func(tx *Tx) {
		tx.SetBalance(account, balance)
	})
}

func (db *DB) Balance(account AccountID) (balance int64, found bool) {
	db.Read(func(tx *Tx) {
		balance, found = tx.Balance(account)
	})
	return
}

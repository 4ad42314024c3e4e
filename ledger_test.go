package recdb

import (
	"math"
	"testing"
)

func TestLedger_Scenario(t *testing.T) {
	forEachBackend(t, allBackends, func(t *testing.T, backend Backend) {
		db := setup(t, backend)
		db.SetBalance("alice", 100)

		db.ChargeForData("alice", 30)
		balance, found := db.Balance("alice")
		deepEqual(t, found, true)
		deepEqual(t, balance, int64(70))

		before := balances(db)
		db.ChargeForData("bob", 10)
		deepEqual(t, balances(db), before)

		_, found = db.Balance("bob")
		deepEqual(t, found, false)
	})
}

func TestLedger_ChargeUnderflowGoesNegative(t *testing.T) {
	forEachBackend(t, allBackends, func(t *testing.T, backend Backend) {
		db := setup(t, backend)
		db.SetBalance("carol", 5)
		db.ChargeForData("carol", 12)
		balance, _ := db.Balance("carol")
		deepEqual(t, balance, int64(-7))

		db.ChargeForData("carol", 3)
		balance, _ = db.Balance("carol")
		deepEqual(t, balance, int64(-10))
	})
}

func TestLedger_ChargeWrapsOnOverflow(t *testing.T) {
	db := setup(t, MemBackend)
	db.SetBalance("dave", math.MinInt64)
	db.ChargeForData("dave", 1)
	balance, _ := db.Balance("dave")
	deepEqual(t, balance, int64(math.MaxInt64))
}

func TestLedger_NegativeAmountIsApplied(t *testing.T) {
	db := setup(t, MemBackend)
	db.SetBalance("erin", 10)
	db.ChargeForData("erin", -5)
	balance, _ := db.Balance("erin")
	deepEqual(t, balance, int64(15))
}

func TestLedger_ChargeInsideTx(t *testing.T) {
	db := setup(t, BoltBackend)
	db.Write(func(tx *Tx) {
		tx.SetBalance("frank", 50)
		tx.ChargeForData("frank", 20)
		tx.ChargeForData("frank", 20)
		balance, found := tx.Balance("frank")
		deepEqual(t, found, true)
		deepEqual(t, balance, int64(10))
		deepEqual(t, tx.BalanceCount(), 1)
	})
}

func TestLedger_ScanBalancesInAccountOrder(t *testing.T) {
	forEachBackend(t, allBackends, func(t *testing.T, backend Backend) {
		db := setup(t, backend)
		db.SetBalance("zed", 1)
		db.SetBalance("amy", 2)
		db.SetBalance("mia", -3)
		deepEqual(t, balances(db), map[AccountID]int64{"amy": 2, "mia": -3, "zed": 1})

		var order []AccountID
		db.Read(func(tx *Tx) {
			for account := range tx.ScanBalances() {
				order = append(order, account)
			}
		})
		deepEqual(t, order, []AccountID{"amy", "mia", "zed"})
	})
}

func TestLedger_RecordsAndBalancesAreIndependent(t *testing.T) {
	db := setup(t, MemBackend)
	db.SetBalance("alice", 100)
	deepEqual(t, db.RecordCount(), uint64(0))
	deepEqual(t, must(db.StoreRecord("x")), ID(1))
	deepEqual(t, balances(db), map[AccountID]int64{"alice": 100})
}

func balances(db *DB) map[AccountID]int64 {
	m := make(map[AccountID]int64)
	db.Read(func(tx *Tx) {
		for account, balance := range tx.ScanBalances() {
			m[account] = balance
		}
	})
	return m
}

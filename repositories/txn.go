package repositories

import (
	"github.com/dgraph-io/badger/v4"
)

const maxTxnRetries = 3

// update runs fn in a read-write transaction, retrying a few times on
// badger's optimistic-concurrency conflicts. Domain errors returned by
// fn pass through untouched.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		err = db.Update(fn)
		if err != badger.ErrConflict {
			return err
		}
	}
	return err
}

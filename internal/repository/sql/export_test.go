package sql

// InTransaction is a test helper reporting whether the store is bound to a transaction.
func InTransaction(store *Store) bool {
	return store.txn != nil
}

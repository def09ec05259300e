package database

// TransactionGuard opens a transaction scope and rolls it back unless
// Commit was reached. Use it with defer:
//
//	tx := database.NewTransactionGuard(db)
//	defer tx.Rollback()
//	if err := tx.Err(); err != nil {
//		return err
//	}
//	...
//	return tx.Commit()
type TransactionGuard struct {
	db        Database
	err       error
	committed bool
	closed    bool
}

// NewTransactionGuard begins a (possibly nested) transaction on db.
func NewTransactionGuard(db Database) *TransactionGuard {
	return &TransactionGuard{db: db, err: db.BeginTransaction()}
}

// Err returns the error from beginning the transaction.
func (g *TransactionGuard) Err() error { return g.err }

// Committed reports whether Commit succeeded in reaching the backend.
func (g *TransactionGuard) Committed() bool { return g.committed }

// Commit closes the scope with a commit. It is a no-op once the scope is
// closed and returns the begin error if the transaction never started.
func (g *TransactionGuard) Commit() error {
	if g.err != nil {
		return g.err
	}
	if g.closed {
		return nil
	}
	g.closed = true
	g.committed = true
	return g.db.CommitTransaction()
}

// Rollback closes the scope with a rollback unless it was already closed.
func (g *TransactionGuard) Rollback() error {
	if g.err != nil || g.closed {
		return nil
	}
	g.closed = true
	return g.db.RollbackTransaction()
}

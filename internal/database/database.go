// Package database defines the backend contract used by the entity layer
// and provides its SQLite implementation.
package database

// Database is a single relational connection. It is not safe for
// concurrent use; callers own it exclusively.
type Database interface {
	// Prepare compiles query into a statement. Parameters are written as
	// $Name and bound by bare name.
	Prepare(query string) (Statement, error)
	// Execute runs query without parameters. It may hold several statements.
	Execute(query string) error

	InTransaction() bool
	// BeginTransaction nests. Only the outermost call starts an engine
	// transaction.
	BeginTransaction() error
	// CommitTransaction commits at the outermost level, or rolls back if a
	// nested scope rolled back.
	CommitTransaction() error
	// RollbackTransaction rolls back at the outermost level. Nested calls
	// only mark the transaction as failed.
	RollbackTransaction() error

	// LastInsertID returns the rowid generated by the most recent INSERT
	// on this connection.
	LastInsertID() (int64, error)

	Close() error
}

// Statement is a prepared statement owned by the call site that created it.
// A statement steps forward only; prepare a new one to iterate again.
type Statement interface {
	SQL() string

	// Binding a name that does not occur in the SQL is ignored so one
	// entity can be bound into statements that use a subset of its fields.
	BindInt(name string, v int64) error
	BindFloat(name string, v float64) error
	BindText(name string, v string) error
	BindBlob(name string, v []byte) error
	BindNull(name string) error

	ColumnCount() int
	ColumnIndex(name string) (int, error)
	ColumnInt(i int) (int64, error)
	ColumnFloat(i int) (float64, error)
	ColumnText(i int) (string, error)
	ColumnBlob(i int) ([]byte, error)
	ColumnIsNull(i int) bool

	// Step advances to the next row and reports whether one is available.
	// With needRow set, running out of rows (or a write touching no rows)
	// is a NotFound error instead of a plain false.
	Step(needRow bool) (bool, error)

	Close() error
}

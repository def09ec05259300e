package database

import (
	"fmt"

	"booru-go/internal/result"
)

// TransactionNesting tracks reentrant transaction scopes on one connection.
// Only the outermost scope reaches the engine. A rollback in an inner scope
// marks the whole transaction as failed so the final commit rolls back.
type TransactionNesting struct {
	depth  int
	failed bool
}

// InTransaction reports whether any scope is open.
func (n *TransactionNesting) InTransaction() bool { return n.depth > 0 }

// Depth returns the number of open scopes.
func (n *TransactionNesting) Depth() int { return n.depth }

// Failed reports whether an inner scope rolled back.
func (n *TransactionNesting) Failed() bool { return n.failed }

// Begin opens a scope, calling begin for the outermost one.
func (n *TransactionNesting) Begin(begin func() error) error {
	if n.depth == 0 {
		if err := begin(); err != nil {
			return err
		}
		n.failed = false
	}
	n.depth++
	return nil
}

// Commit closes a scope. The outermost scope calls commit, or rollback when
// the transaction was marked as failed, in which case TransactionFailed is
// returned.
func (n *TransactionNesting) Commit(commit, rollback func() error) error {
	if n.depth == 0 {
		return fmt.Errorf("commit outside transaction: %w", result.InvalidRequest)
	}
	n.depth--
	if n.depth > 0 {
		return nil
	}

	if n.failed {
		n.failed = false
		if err := rollback(); err != nil {
			return err
		}
		return result.TransactionFailed
	}

	if err := commit(); err != nil {
		// The engine transaction stays open after a failed COMMIT.
		_ = rollback()
		return err
	}
	return nil
}

// Rollback closes a scope. The outermost scope calls rollback; inner scopes
// only mark the transaction as failed.
func (n *TransactionNesting) Rollback(rollback func() error) error {
	if n.depth == 0 {
		return fmt.Errorf("rollback outside transaction: %w", result.InvalidRequest)
	}
	n.depth--
	if n.depth > 0 {
		n.failed = true
		return nil
	}
	n.failed = false
	return rollback()
}

package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"

	"booru-go/internal/result"
)

// translateError maps engine errors onto result codes. Nothing above this
// package inspects sqlite3 error numbers.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		return result.Wrap(sqliteCode(se), op, err)
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return result.Wrap(result.NotFound, op, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return result.Wrap(result.DatabaseLocked, op, err)
	}
	return result.Wrap(result.DatabaseError, op, err)
}

func sqliteCode(se sqlite3.Error) result.Code {
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		return result.AlreadyExists
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintRowID:
		return result.ConstraintPrimaryKey
	case sqlite3.ErrConstraintForeignKey:
		return result.ConstraintForeignKey
	case sqlite3.ErrConstraintNotNull:
		return result.ConstraintNotNull
	}

	switch se.Code {
	case sqlite3.ErrConstraint:
		return result.ConstraintViolation
	case sqlite3.ErrBusy:
		return result.DatabaseLocked
	case sqlite3.ErrLocked:
		return result.DatabaseTableLocked
	case sqlite3.ErrRange:
		return result.DatabaseRangeError
	case sqlite3.ErrCantOpen:
		return result.NotFound
	}
	return result.DatabaseError
}

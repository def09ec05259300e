package result

import "fmt"

// Code is the outcome of an operation. Negative values are failures.
// A Code satisfies the error interface so failures can be returned
// directly and matched with errors.Is.
type Code int32

// Success codes.
const (
	OK      Code = 0
	Created Code = 1
	Row     Code = 2
	Done    Code = 3
)

// Logical failures.
const (
	UnknownError      Code = -1
	NotFound          Code = -2
	NotImplemented    Code = -3
	AlreadyExists     Code = -4
	InvalidEntityID   Code = -5
	InvalidArgument   Code = -6
	ArgumentTooLong   Code = -7
	ArgumentTooShort  Code = -8
	ValueIsNull       Code = -9
	ConditionFailed   Code = -10
	RecursionExceeded Code = -11

	InvalidRequest Code = -1000
	Unauthorized   Code = -1001
)

// Database-layer failures.
const (
	DatabaseError        Code = -2000
	DatabaseLocked       Code = -2001
	DatabaseTableLocked  Code = -2002
	DatabaseRangeError   Code = -2003
	ConstraintViolation  Code = -2004
	ConstraintForeignKey Code = -2005
	ConstraintPrimaryKey Code = -2006
	ConstraintNotNull    Code = -2007
	TransactionFailed    Code = -2008
)

var names = map[Code]string{
	OK:                   "ok",
	Created:              "created",
	Row:                  "row",
	Done:                 "done",
	UnknownError:         "unknown error",
	NotFound:             "not found",
	NotImplemented:       "not implemented",
	AlreadyExists:        "already exists",
	InvalidEntityID:      "invalid entity id",
	InvalidArgument:      "invalid argument",
	ArgumentTooLong:      "argument too long",
	ArgumentTooShort:     "argument too short",
	ValueIsNull:          "value is null",
	ConditionFailed:      "condition failed",
	RecursionExceeded:    "recursion exceeded",
	InvalidRequest:       "invalid request",
	Unauthorized:         "unauthorized",
	DatabaseError:        "database error",
	DatabaseLocked:       "database locked",
	DatabaseTableLocked:  "database table locked",
	DatabaseRangeError:   "database range error",
	ConstraintViolation:  "constraint violation",
	ConstraintForeignKey: "foreign key constraint failed",
	ConstraintPrimaryKey: "primary key constraint failed",
	ConstraintNotNull:    "not null constraint failed",
	TransactionFailed:    "transaction rolled back",
}

// IsError reports whether c is a failure code.
func (c Code) IsError() bool { return c < 0 }

// IsDatabase reports whether c belongs to the database-layer failures.
func (c Code) IsDatabase() bool { return c <= DatabaseError && c > DatabaseError-1000 }

// IsConstraint reports whether c is a constraint violation of any kind,
// including AlreadyExists which is how unique violations surface.
func (c Code) IsConstraint() bool {
	switch c {
	case AlreadyExists, ConstraintViolation, ConstraintForeignKey, ConstraintPrimaryKey, ConstraintNotNull:
		return true
	}
	return false
}

func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int32(c))
}

func (c Code) Error() string { return c.String() }

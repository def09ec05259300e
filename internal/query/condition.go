package query

import (
	"strconv"
	"strings"
)

// Condition is one WHERE clause term. Terms of a query are joined with AND.
type Condition interface {
	String() string
}

type compare struct {
	lhs, op, rhs string
}

func (c compare) String() string { return c.lhs + " " + c.op + " " + c.rhs }

// Equal renders lhs == rhs. Both sides are raw SQL.
func Equal(lhs, rhs string) Condition { return compare{lhs, "==", rhs} }

// Compare renders lhs op rhs, e.g. Compare("(SELECT ...)", ">", "0").
func Compare(lhs, op, rhs string) Condition { return compare{lhs, op, rhs} }

type in struct {
	lhs string
	set string
}

func (c in) String() string { return c.lhs + " IN (" + c.set + ")" }

// In renders lhs IN (set) where set is a raw list or subquery.
func In(lhs, set string) Condition { return in{lhs, set} }

// InList renders lhs IN (v1, v2, ...). An empty list is valid SQLite and
// matches nothing.
func InList(lhs string, values []int64) Condition {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return in{lhs, strings.Join(parts, ", ")}
}

// InSelect renders lhs IN (<sub>).
func InSelect(lhs string, sub *Query) Condition { return in{lhs, sub.String()} }

type not struct {
	c Condition
}

func (c not) String() string { return "NOT (" + c.c.String() + ")" }

// Not negates c.
func Not(c Condition) Condition { return not{c} }

// Raw wraps SQL that is already a complete condition.
type Raw string

func (r Raw) String() string { return string(r) }

// Param returns the placeholder for a named statement parameter.
func Param(name string) string { return "$" + name }

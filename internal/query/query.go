// Package query renders parameterized SQL for the entity layer.
package query

import (
	"fmt"
	"strings"

	"booru-go/internal/database"
	"booru-go/internal/result"
)

// Kind is the statement a Query renders.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpsert
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpsert:
		return "UPSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Unsafe is what a DELETE without WHERE renders to. It is a comment and
// never executes anything.
const Unsafe = "--"

// Query builds one statement. Methods return the receiver for chaining.
type Query struct {
	kind    Kind
	table   string
	columns []string
	where   []Condition
	orderBy []string
	limit   int
}

// Select starts SELECT <cols|*> FROM table.
func Select(table string) *Query { return &Query{kind: KindSelect, table: table} }

// Insert starts INSERT INTO table (cols) VALUES ($cols).
func Insert(table string) *Query { return &Query{kind: KindInsert, table: table} }

// Upsert starts INSERT OR REPLACE INTO table (cols) VALUES ($cols).
func Upsert(table string) *Query { return &Query{kind: KindUpsert, table: table} }

// Update starts UPDATE table SET col = $col, ...
func Update(table string) *Query { return &Query{kind: KindUpdate, table: table} }

// Delete starts DELETE FROM table. It refuses to render without a WHERE clause.
func Delete(table string) *Query { return &Query{kind: KindDelete, table: table} }

func (q *Query) Kind() Kind    { return q.kind }
func (q *Query) Table() string { return q.table }

// Column adds one column.
func (q *Query) Column(name string) *Query {
	q.columns = append(q.columns, name)
	return q
}

// Columns adds several columns.
func (q *Query) Columns(names ...string) *Query {
	q.columns = append(q.columns, names...)
	return q
}

// Where adds a condition.
func (q *Query) Where(c Condition) *Query {
	q.where = append(q.where, c)
	return q
}

// WhereEqual adds lhs == rhs.
func (q *Query) WhereEqual(lhs, rhs string) *Query { return q.Where(Equal(lhs, rhs)) }

// WhereIn adds lhs IN (set).
func (q *Query) WhereIn(lhs, set string) *Query { return q.Where(In(lhs, set)) }

// Key adds column == $column, bound later by the same name.
func (q *Query) Key(column string) *Query { return q.Where(Equal(column, Param(column))) }

// OrderBy appends ORDER BY terms. Only SELECT renders them.
func (q *Query) OrderBy(terms ...string) *Query {
	q.orderBy = append(q.orderBy, terms...)
	return q
}

// Limit caps a SELECT. Zero means no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Safe reports whether the query may be executed. A DELETE needs a WHERE.
func (q *Query) Safe() bool {
	return q.kind != KindDelete || len(q.where) > 0
}

func (q *Query) String() string {
	var b strings.Builder

	switch q.kind {
	case KindSelect:
		b.WriteString("SELECT ")
		if len(q.columns) == 0 {
			b.WriteString("*")
		} else {
			b.WriteString(strings.Join(q.columns, ", "))
		}
		b.WriteString(" FROM ")
		b.WriteString(q.table)
	case KindInsert, KindUpsert:
		if q.kind == KindUpsert {
			b.WriteString("INSERT OR REPLACE INTO ")
		} else {
			b.WriteString("INSERT INTO ")
		}
		b.WriteString(q.table)
		if len(q.columns) == 0 {
			b.WriteString(" DEFAULT VALUES")
			return b.String()
		}
		params := make([]string, len(q.columns))
		for i, c := range q.columns {
			params[i] = Param(c)
		}
		fmt.Fprintf(&b, " (%s) VALUES (%s)", strings.Join(q.columns, ", "), strings.Join(params, ", "))
		return b.String()
	case KindUpdate:
		b.WriteString("UPDATE ")
		b.WriteString(q.table)
		b.WriteString(" SET ")
		for i, c := range q.columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c + " = " + Param(c))
		}
	case KindDelete:
		if !q.Safe() {
			return Unsafe
		}
		b.WriteString("DELETE FROM ")
		b.WriteString(q.table)
	}

	for i, c := range q.where {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(c.String())
	}

	if q.kind == KindSelect {
		if len(q.orderBy) > 0 {
			b.WriteString(" ORDER BY ")
			b.WriteString(strings.Join(q.orderBy, ", "))
		}
		if q.limit > 0 {
			fmt.Fprintf(&b, " LIMIT %d", q.limit)
		}
	}
	return b.String()
}

// Prepare renders the query and prepares it on db. An unsafe DELETE is
// refused with InvalidRequest before reaching the backend.
func (q *Query) Prepare(db database.Database) (database.Statement, error) {
	if !q.Safe() {
		database.LoggerOf(db).Error("refusing DELETE without WHERE clause", "table", q.table)
		return nil, fmt.Errorf("refusing DELETE FROM %s without WHERE clause: %w", q.table, result.InvalidRequest)
	}
	if q.kind == KindUpdate && len(q.columns) == 0 {
		return nil, fmt.Errorf("UPDATE %s without columns: %w", q.table, result.InvalidRequest)
	}
	return db.Prepare(q.String())
}

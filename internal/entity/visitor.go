package entity

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"booru-go/internal/database"
	"booru-go/internal/result"
)

// Visitor receives one call per declared field. field is a pointer to the
// field: *int64, *float64, *string, *[]byte, *[16]byte or a *sql.Null of
// int64, float64 or string.
type Visitor interface {
	Property(name string, field any, key bool) error
}

// Fields walks a Visitor and keeps the first error, so IterateProperties
// reads as a plain list of declarations.
type Fields struct {
	v   Visitor
	err error
}

// Walk starts a field walk over v.
func Walk(v Visitor) *Fields { return &Fields{v: v} }

// Key declares the primary key field.
func (f *Fields) Key(name string, field *int64) {
	if f.err == nil {
		f.err = f.v.Property(name, field, true)
	}
}

// Field declares a non-key field.
func (f *Fields) Field(name string, field any) {
	if f.err == nil {
		f.err = f.v.Property(name, field, false)
	}
}

// Err returns the first error reported by the visitor.
func (f *Fields) Err() error { return f.err }

// loadVisitor reads same-named columns of the current row into fields.
type loadVisitor struct {
	stmt database.Statement
}

func (l loadVisitor) Property(name string, field any, _ bool) error {
	i, err := l.stmt.ColumnIndex(name)
	if err != nil {
		return err
	}

	switch p := field.(type) {
	case *int64:
		*p, err = l.stmt.ColumnInt(i)
	case *float64:
		*p, err = l.stmt.ColumnFloat(i)
	case *string:
		*p, err = l.stmt.ColumnText(i)
	case *[]byte:
		if l.stmt.ColumnIsNull(i) {
			*p = nil
			return nil
		}
		*p, err = l.stmt.ColumnBlob(i)
	case *[16]byte:
		var b []byte
		b, err = l.stmt.ColumnBlob(i)
		*p = [16]byte{}
		copy(p[:], b)
	case *sql.Null[int64]:
		*p, err = database.NullableColumn[int64](l.stmt, i)
	case *sql.Null[float64]:
		*p, err = database.NullableColumn[float64](l.stmt, i)
	case *sql.Null[string]:
		*p, err = database.NullableColumn[string](l.stmt, i)
	default:
		return unsupported(name, field)
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}
	return nil
}

// storeVisitor binds fields to same-named parameters.
type storeVisitor struct {
	stmt database.Statement
}

func (s storeVisitor) Property(name string, field any, _ bool) error {
	switch p := field.(type) {
	case *int64:
		return s.stmt.BindInt(name, *p)
	case *float64:
		return s.stmt.BindFloat(name, *p)
	case *string:
		return s.stmt.BindText(name, *p)
	case *[]byte:
		return s.stmt.BindBlob(name, *p)
	case *[16]byte:
		return s.stmt.BindBlob(name, p[:])
	case *sql.Null[int64]:
		return database.BindNullable(s.stmt, name, *p)
	case *sql.Null[float64]:
		return database.BindNullable(s.stmt, name, *p)
	case *sql.Null[string]:
		return database.BindNullable(s.stmt, name, *p)
	}
	return unsupported(name, field)
}

// columnVisitor collects the names of non-key fields.
type columnVisitor struct {
	columns []string
}

func (c *columnVisitor) Property(name string, _ any, key bool) error {
	if !key {
		c.columns = append(c.columns, name)
	}
	return nil
}

// stringVisitor renders name = 'value' pairs.
type stringVisitor struct {
	parts []string
}

func (s *stringVisitor) Property(name string, field any, _ bool) error {
	s.parts = append(s.parts, name+" = "+formatField(field))
	return nil
}

func formatField(field any) string {
	switch p := field.(type) {
	case *int64:
		return quote(strconv.FormatInt(*p, 10))
	case *float64:
		return quote(strconv.FormatFloat(*p, 'g', -1, 64))
	case *string:
		return quote(*p)
	case *[]byte:
		return quote(hex.EncodeToString(*p))
	case *[16]byte:
		return quote(hex.EncodeToString(p[:]))
	case *sql.Null[int64]:
		if !p.Valid {
			return "NULL"
		}
		return quote(strconv.FormatInt(p.V, 10))
	case *sql.Null[float64]:
		if !p.Valid {
			return "NULL"
		}
		return quote(strconv.FormatFloat(p.V, 'g', -1, 64))
	case *sql.Null[string]:
		if !p.Valid {
			return "NULL"
		}
		return quote(p.V)
	}
	return fmt.Sprintf("'%v'", field)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func unsupported(name string, field any) error {
	return result.Errorf(result.NotImplemented, "property %s: unsupported field type %T", name, field)
}

// Load reads the current row of stmt into e.
func Load(stmt database.Statement, e Entity) error {
	return e.IterateProperties(loadVisitor{stmt: stmt})
}

// Store binds every field of e into stmt. Names absent from the statement
// are ignored by the backend.
func Store(stmt database.Statement, e Entity) error {
	return e.IterateProperties(storeVisitor{stmt: stmt})
}

// Columns lists the non-key columns of e in declaration order.
func Columns(e Entity) []string {
	var c columnVisitor
	_ = e.IterateProperties(&c)
	return c.columns
}

// String renders every field of e for diagnostics.
func String(e Entity) string {
	var s stringVisitor
	_ = e.IterateProperties(&s)
	return e.Table() + "{" + strings.Join(s.parts, ", ") + "}"
}

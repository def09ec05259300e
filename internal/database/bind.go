package database

import (
	"database/sql"
	"fmt"

	"booru-go/internal/result"
)

// Scalar lists the value kinds a statement can bind and return.
type Scalar interface {
	int64 | float64 | string | []byte
}

// Bind binds v to the parameter called name using the matching typed binder.
func Bind[T Scalar](s Statement, name string, v T) error {
	switch v := any(v).(type) {
	case int64:
		return s.BindInt(name, v)
	case float64:
		return s.BindFloat(name, v)
	case string:
		return s.BindText(name, v)
	case []byte:
		return s.BindBlob(name, v)
	}
	return result.Errorf(result.NotImplemented, "bind %s: unsupported type %T", name, v)
}

// BindNullable binds NULL when v is not valid and the inner value otherwise.
func BindNullable[T Scalar](s Statement, name string, v sql.Null[T]) error {
	if !v.Valid {
		return s.BindNull(name)
	}
	return Bind(s, name, v.V)
}

// BindValue binds a loosely typed key value, as used by lookups where the
// key column is chosen at run time.
func BindValue(s Statement, name string, v any) error {
	switch v := v.(type) {
	case nil:
		return s.BindNull(name)
	case int:
		return s.BindInt(name, int64(v))
	case int32:
		return s.BindInt(name, int64(v))
	case int64:
		return s.BindInt(name, v)
	case bool:
		if v {
			return s.BindInt(name, 1)
		}
		return s.BindInt(name, 0)
	case float64:
		return s.BindFloat(name, v)
	case string:
		return s.BindText(name, v)
	case []byte:
		return s.BindBlob(name, v)
	case [16]byte:
		return s.BindBlob(name, v[:])
	case sql.Null[int64]:
		return BindNullable(s, name, v)
	case sql.Null[string]:
		return BindNullable(s, name, v)
	case sql.Null[float64]:
		return BindNullable(s, name, v)
	}
	return result.Errorf(result.NotImplemented, "bind %s: unsupported type %T", name, v)
}

// Column reads column i of the current row as T.
func Column[T Scalar](s Statement, i int) (T, error) {
	var zero T
	var v any
	var err error
	switch any(zero).(type) {
	case int64:
		v, err = s.ColumnInt(i)
	case float64:
		v, err = s.ColumnFloat(i)
	case string:
		v, err = s.ColumnText(i)
	case []byte:
		v, err = s.ColumnBlob(i)
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// NamedColumn reads the column called name of the current row as T.
func NamedColumn[T Scalar](s Statement, name string) (T, error) {
	i, err := s.ColumnIndex(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return Column[T](s, i)
}

// NullableColumn reads column i, mapping NULL to an invalid sql.Null.
func NullableColumn[T Scalar](s Statement, i int) (sql.Null[T], error) {
	if s.ColumnIsNull(i) {
		return sql.Null[T]{}, nil
	}
	v, err := Column[T](s, i)
	if err != nil {
		return sql.Null[T]{}, err
	}
	return sql.Null[T]{V: v, Valid: true}, nil
}

// ExecuteScalar steps once and reads column 0 as T. Without needRow an
// empty result yields the zero value.
func ExecuteScalar[T Scalar](s Statement, needRow bool) (T, error) {
	var zero T
	ok, err := s.Step(needRow)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, nil
	}
	if s.ColumnCount() == 0 {
		return zero, fmt.Errorf("reading scalar: %w", result.InvalidRequest)
	}
	return Column[T](s, 0)
}

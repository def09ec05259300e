package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"booru-go/internal/result"
)

// sqliteStatement adapts *sql.Stmt to the step-wise Statement contract.
// Parameters are collected by name and handed to the driver on the first
// Step.
type sqliteStatement struct {
	db     *SQLiteDatabase
	stmt   *sql.Stmt
	query  string
	params []string
	args   map[string]any
	reads  bool

	rows    *sql.Rows
	columns []string
	values  []any
	hasRow  bool
	done    bool
}

func newSQLiteStatement(db *SQLiteDatabase, stmt *sql.Stmt, query string) *sqliteStatement {
	return &sqliteStatement{
		db:     db,
		stmt:   stmt,
		query:  query,
		params: parameterNames(query),
		args:   make(map[string]any),
		reads:  returnsRows(query),
	}
}

// returnsRows decides between the query and exec paths of database/sql.
func returnsRows(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "PRAGMA", "VALUES", "EXPLAIN"} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return strings.Contains(q, " RETURNING ")
}

func (s *sqliteStatement) SQL() string { return s.query }

func (s *sqliteStatement) bind(name string, v any) error {
	name = strings.TrimPrefix(name, "$")
	if s.rows != nil || s.done {
		return fmt.Errorf("binding %s after step: %w", name, result.InvalidRequest)
	}
	for _, p := range s.params {
		if p == name {
			s.args[name] = v
			return nil
		}
	}
	return nil
}

func (s *sqliteStatement) BindInt(name string, v int64) error     { return s.bind(name, v) }
func (s *sqliteStatement) BindFloat(name string, v float64) error { return s.bind(name, v) }
func (s *sqliteStatement) BindText(name string, v string) error   { return s.bind(name, v) }
func (s *sqliteStatement) BindNull(name string) error             { return s.bind(name, nil) }

func (s *sqliteStatement) BindBlob(name string, v []byte) error {
	if v == nil {
		// A nil slice would bind NULL; an empty blob is still a value.
		v = []byte{}
	}
	return s.bind(name, v)
}

func (s *sqliteStatement) namedArgs() []any {
	args := make([]any, 0, len(s.params))
	for _, p := range s.params {
		// Unbound parameters are NULL, matching sqlite3_bind defaults.
		args = append(args, sql.Named(p, s.args[p]))
	}
	return args
}

func (s *sqliteStatement) Step(needRow bool) (bool, error) {
	if s.done {
		return s.finish(needRow)
	}
	if !s.reads {
		return s.exec(needRow)
	}

	if s.rows == nil {
		rows, err := s.stmt.QueryContext(context.Background(), s.namedArgs()...)
		if err != nil {
			s.done = true
			return false, translateError(firstLine(s.query), err)
		}
		columns, err := rows.Columns()
		if err != nil {
			rows.Close()
			s.done = true
			return false, translateError(firstLine(s.query), err)
		}
		s.rows = rows
		s.columns = columns
		s.values = make([]any, len(columns))
	}

	if !s.rows.Next() {
		err := s.rows.Err()
		s.rows.Close()
		s.hasRow = false
		s.done = true
		if err != nil {
			return false, translateError(firstLine(s.query), err)
		}
		return s.finish(needRow)
	}

	dest := make([]any, len(s.values))
	for i := range s.values {
		dest[i] = &s.values[i]
	}
	if err := s.rows.Scan(dest...); err != nil {
		return false, translateError(firstLine(s.query), err)
	}
	s.hasRow = true
	return true, nil
}

func (s *sqliteStatement) exec(needRow bool) (bool, error) {
	s.done = true
	res, err := s.stmt.ExecContext(context.Background(), s.namedArgs()...)
	if err != nil {
		return false, translateError(firstLine(s.query), err)
	}
	if needRow {
		affected, err := res.RowsAffected()
		if err != nil {
			return false, translateError(firstLine(s.query), err)
		}
		if affected == 0 {
			return false, fmt.Errorf("%s: no rows affected: %w", firstLine(s.query), result.NotFound)
		}
	}
	return false, nil
}

func (s *sqliteStatement) finish(needRow bool) (bool, error) {
	if needRow {
		return false, fmt.Errorf("%s: no rows: %w", firstLine(s.query), result.NotFound)
	}
	return false, nil
}

func (s *sqliteStatement) ColumnCount() int { return len(s.columns) }

func (s *sqliteStatement) ColumnIndex(name string) (int, error) {
	for i, c := range s.columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %s: %w", name, result.NotFound)
}

func (s *sqliteStatement) value(i int) (any, error) {
	if !s.hasRow {
		return nil, fmt.Errorf("reading column %d without a row: %w", i, result.InvalidRequest)
	}
	if i < 0 || i >= len(s.values) {
		return nil, fmt.Errorf("column %d: %w", i, result.DatabaseRangeError)
	}
	if s.values[i] == nil {
		name := s.columns[i]
		return nil, fmt.Errorf("column %s: %w", name, result.ValueIsNull)
	}
	return s.values[i], nil
}

func (s *sqliteStatement) ColumnIsNull(i int) bool {
	return s.hasRow && i >= 0 && i < len(s.values) && s.values[i] == nil
}

func (s *sqliteStatement) ColumnInt(i int) (int64, error) {
	v, err := s.value(i)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	}
	return 0, fmt.Errorf("column %s is %T, not an integer: %w", s.columns[i], v, result.InvalidArgument)
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, result.Wrap(result.InvalidArgument, "parsing integer column", err)
	}
	return n, nil
}

func (s *sqliteStatement) ColumnFloat(i int) (float64, error) {
	v, err := s.value(i)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case []byte:
		return parseFloat(string(v))
	case string:
		return parseFloat(v)
	}
	return 0, fmt.Errorf("column %s is %T, not a float: %w", s.columns[i], v, result.InvalidArgument)
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, result.Wrap(result.InvalidArgument, "parsing float column", err)
	}
	return f, nil
}

func (s *sqliteStatement) ColumnText(i int) (string, error) {
	v, err := s.value(i)
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	}
	return fmt.Sprint(v), nil
}

func (s *sqliteStatement) ColumnBlob(i int) ([]byte, error) {
	v, err := s.value(i)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case []byte:
		return append([]byte(nil), v...), nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("column %s is %T, not a blob: %w", s.columns[i], v, result.InvalidArgument)
}

func (s *sqliteStatement) Close() error {
	if s.rows != nil {
		s.rows.Close()
	}
	s.done = true
	s.hasRow = false
	return s.stmt.Close()
}

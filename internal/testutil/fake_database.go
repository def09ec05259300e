package testutil

import (
	"fmt"
	"strings"

	"booru-go/internal/database"
	"booru-go/internal/result"
)

// FakeRows is a canned result set handed out by FakeDatabase.Prepare.
type FakeRows struct {
	Columns []string
	Values  [][]any
	// NoRows makes a write stepped with needRow report NotFound, as if
	// it touched no rows.
	NoRows bool
	Err    error
}

// FakeDatabase is an in-memory Database that records every SQL text it
// sees. Results are queued per Prepare call in FIFO order; an empty queue
// yields an empty result.
type FakeDatabase struct {
	Executed   []string
	Prepared   []*FakeStatement
	BeginErr   error
	PrepareErr error
	NextID     int64
	Log        database.Logger

	queue   []FakeRows
	nesting database.TransactionNesting
	closed  bool
}

// NewFakeDatabase creates an empty FakeDatabase.
func NewFakeDatabase() *FakeDatabase {
	return &FakeDatabase{NextID: 1}
}

// Logger returns Log, so code under test logs through it.
func (f *FakeDatabase) Logger() database.Logger { return f.Log }

// Queue appends a result for a future Prepare call.
func (f *FakeDatabase) Queue(rows FakeRows) {
	f.queue = append(f.queue, rows)
}

func (f *FakeDatabase) Prepare(query string) (database.Statement, error) {
	if f.PrepareErr != nil {
		return nil, f.PrepareErr
	}
	var rows FakeRows
	if len(f.queue) > 0 {
		rows, f.queue = f.queue[0], f.queue[1:]
	}
	stmt := &FakeStatement{query: query, rows: rows, Binds: make(map[string]any), row: -1}
	f.Prepared = append(f.Prepared, stmt)
	return stmt, nil
}

func (f *FakeDatabase) Execute(query string) error {
	f.Executed = append(f.Executed, query)
	return nil
}

func (f *FakeDatabase) InTransaction() bool { return f.nesting.InTransaction() }

// Depth returns the current transaction nesting depth.
func (f *FakeDatabase) Depth() int { return f.nesting.Depth() }

func (f *FakeDatabase) BeginTransaction() error {
	return f.nesting.Begin(func() error {
		if f.BeginErr != nil {
			return f.BeginErr
		}
		return f.Execute("BEGIN TRANSACTION")
	})
}

func (f *FakeDatabase) CommitTransaction() error {
	return f.nesting.Commit(
		func() error { return f.Execute("COMMIT") },
		func() error { return f.Execute("ROLLBACK") },
	)
}

func (f *FakeDatabase) RollbackTransaction() error {
	return f.nesting.Rollback(func() error { return f.Execute("ROLLBACK") })
}

func (f *FakeDatabase) LastInsertID() (int64, error) {
	id := f.NextID
	f.NextID++
	return id, nil
}

func (f *FakeDatabase) Close() error {
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeDatabase) Closed() bool { return f.closed }

// PreparedSQL returns the SQL text of every prepared statement in order.
func (f *FakeDatabase) PreparedSQL() []string {
	out := make([]string, len(f.Prepared))
	for i, s := range f.Prepared {
		out[i] = s.query
	}
	return out
}

// FakeStatement replays FakeRows and records binds by bare name.
type FakeStatement struct {
	Binds  map[string]any
	Closed bool

	query string
	rows  FakeRows
	row   int
	done  bool
}

func (s *FakeStatement) SQL() string { return s.query }

func (s *FakeStatement) bind(name string, v any) error {
	s.Binds[strings.TrimPrefix(name, "$")] = v
	return nil
}

func (s *FakeStatement) BindInt(name string, v int64) error     { return s.bind(name, v) }
func (s *FakeStatement) BindFloat(name string, v float64) error { return s.bind(name, v) }
func (s *FakeStatement) BindText(name string, v string) error   { return s.bind(name, v) }
func (s *FakeStatement) BindBlob(name string, v []byte) error   { return s.bind(name, v) }
func (s *FakeStatement) BindNull(name string) error             { return s.bind(name, nil) }

func (s *FakeStatement) Step(needRow bool) (bool, error) {
	if s.rows.Err != nil {
		return false, s.rows.Err
	}
	if s.rows.Columns == nil {
		if s.done {
			return false, nil
		}
		s.done = true
		if needRow && s.rows.NoRows {
			return false, result.NotFound
		}
		return false, nil
	}
	s.row++
	if s.row >= len(s.rows.Values) {
		if needRow {
			return false, result.NotFound
		}
		return false, nil
	}
	return true, nil
}

func (s *FakeStatement) ColumnCount() int { return len(s.rows.Columns) }

func (s *FakeStatement) ColumnIndex(name string) (int, error) {
	for i, c := range s.rows.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %s: %w", name, result.NotFound)
}

func (s *FakeStatement) value(i int) (any, error) {
	if s.row < 0 || s.row >= len(s.rows.Values) {
		return nil, result.InvalidRequest
	}
	values := s.rows.Values[s.row]
	if i < 0 || i >= len(values) {
		return nil, result.DatabaseRangeError
	}
	if values[i] == nil {
		return nil, result.ValueIsNull
	}
	return values[i], nil
}

func (s *FakeStatement) ColumnIsNull(i int) bool {
	v, err := s.value(i)
	return err == result.ValueIsNull || (err == nil && v == nil)
}

func (s *FakeStatement) ColumnInt(i int) (int64, error) {
	v, err := s.value(i)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	}
	return 0, fmt.Errorf("column %d is %T: %w", i, v, result.InvalidArgument)
}

func (s *FakeStatement) ColumnFloat(i int) (float64, error) {
	v, err := s.value(i)
	if err != nil {
		return 0, err
	}
	if f, ok := v.(float64); ok {
		return f, nil
	}
	return 0, fmt.Errorf("column %d is %T: %w", i, v, result.InvalidArgument)
}

func (s *FakeStatement) ColumnText(i int) (string, error) {
	v, err := s.value(i)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func (s *FakeStatement) ColumnBlob(i int) ([]byte, error) {
	v, err := s.value(i)
	if err != nil {
		return nil, err
	}
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	return nil, fmt.Errorf("column %d is %T: %w", i, v, result.InvalidArgument)
}

func (s *FakeStatement) Close() error {
	s.Closed = true
	return nil
}

var _ database.Database = (*FakeDatabase)(nil)

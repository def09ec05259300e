package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"booru-go/internal/result"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteDatabase implements Database on one pinned SQLite connection.
// Transaction control is issued as plain SQL, so every statement must run
// on the same connection.
type SQLiteDatabase struct {
	db      *sql.DB
	conn    *sql.Conn
	path    string
	logger  Logger
	nesting TransactionNesting
}

// NewSQLiteDatabase opens the database at path, or MemoryPath for an
// in-memory one. Without create a missing file is reported as NotFound.
func NewSQLiteDatabase(path string, create bool, logger Logger) (*SQLiteDatabase, error) {
	if logger == nil {
		logger = NewNopLogger()
	}

	if !create && path != MemoryPath && path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, result.Wrap(result.NotFound, "opening "+path, err)
		}
	}

	db, err := OpenConnection(path, create)
	if err != nil {
		return nil, err
	}

	conn, err := db.Conn(context.Background())
	if err != nil {
		db.Close()
		return nil, translateError("opening "+path, err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := conn.ExecContext(context.Background(), "PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		db.Close()
		return nil, translateError("enabling foreign keys", err)
	}

	return &SQLiteDatabase{
		db:     db,
		conn:   conn,
		path:   path,
		logger: logger,
	}, nil
}

// OpenConnection opens a SQLite handle limited to a single connection.
// This is exported for tools and tests that need raw access.
func OpenConnection(path string, create bool) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName(path, create))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func dataSourceName(path string, create bool) string {
	if path == "" || path == MemoryPath {
		return MemoryPath + "?_foreign_keys=on"
	}
	mode := "rw"
	if create {
		mode = "rwc"
	}
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(path)
	return fmt.Sprintf("file:%s?mode=%s&_foreign_keys=on", escaped, mode)
}

// Path returns the path the database was opened with.
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Prepare compiles query on the pinned connection.
func (s *SQLiteDatabase) Prepare(query string) (Statement, error) {
	s.logger.Debug("preparing statement", "sql", query)

	stmt, err := s.conn.PrepareContext(context.Background(), query)
	if err != nil {
		return nil, translateError("preparing statement", err)
	}
	return newSQLiteStatement(s, stmt, query), nil
}

// Execute runs query, which may contain several statements.
func (s *SQLiteDatabase) Execute(query string) error {
	if _, err := s.conn.ExecContext(context.Background(), query); err != nil {
		return translateError(firstLine(query), err)
	}
	return nil
}

func (s *SQLiteDatabase) InTransaction() bool {
	return s.nesting.InTransaction()
}

func (s *SQLiteDatabase) BeginTransaction() error {
	return s.nesting.Begin(func() error {
		s.logger.Debug("begin transaction")
		return s.Execute("BEGIN TRANSACTION")
	})
}

func (s *SQLiteDatabase) CommitTransaction() error {
	return s.nesting.Commit(
		func() error {
			s.logger.Debug("commit transaction")
			return s.Execute("COMMIT")
		},
		s.rollback,
	)
}

func (s *SQLiteDatabase) RollbackTransaction() error {
	return s.nesting.Rollback(s.rollback)
}

func (s *SQLiteDatabase) rollback() error {
	s.logger.Debug("rollback transaction")
	return s.Execute("ROLLBACK")
}

func (s *SQLiteDatabase) LastInsertID() (int64, error) {
	stmt, err := s.Prepare("SELECT last_insert_rowid()")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	id, err := ExecuteScalar[int64](stmt, true)
	if err != nil {
		return 0, fmt.Errorf("reading last insert id: %w", err)
	}
	return id, nil
}

// BackupTo writes a consistent copy of the database to destPath.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if s.InTransaction() {
		return fmt.Errorf("backing up database: transaction in progress")
	}
	_, err := s.conn.ExecContext(context.Background(), "VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", translateError("VACUUM INTO", err))
	}
	return nil
}

// Close releases the connection. An open transaction is rolled back by
// the engine.
// Logger returns the logger the database writes to.
func (s *SQLiteDatabase) Logger() Logger { return s.logger }

func (s *SQLiteDatabase) Close() error {
	var firstErr error
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			firstErr = err
		}
		s.conn = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.db = nil
	}
	return firstErr
}

func firstLine(query string) string {
	query = strings.TrimSpace(query)
	if i := strings.IndexByte(query, '\n'); i >= 0 {
		return query[:i]
	}
	return query
}

// Compile-time check that SQLiteDatabase implements the Database interface
var _ Database = (*SQLiteDatabase)(nil)

// Package booru is the facade over a tag database: typed access to posts,
// tags and their relations, plus tag resolution and search.
package booru

import (
	"errors"
	"fmt"

	"booru-go/internal/database"
	"booru-go/internal/database/migrations"
	"booru-go/internal/result"
)

// Config keys maintained by the facade.
const (
	ConfigVersion = "db.version"
	ConfigID      = "db.id"
)

// Schema supplies versioned DDL.
type Schema interface {
	CurrentVersion() int64
	BaseSchema() (string, error)
	UpgradeSchema(from int64) (string, error)
	CheckVersion(stored int64) error
}

// Booru owns one database connection. It is not safe for concurrent use.
type Booru struct {
	db     database.Database
	schema Schema
	logger database.Logger
	clock  Clock
	ids    IDGenerator

	closeSchema func() error
}

// Option configures a Booru.
type Option func(*Booru)

// WithLogger sets the logging sink. The default discards everything.
func WithLogger(l database.Logger) Option {
	return func(b *Booru) { b.logger = l }
}

// WithSchema replaces the embedded schema.
func WithSchema(s Schema) Option {
	return func(b *Booru) { b.schema = s }
}

// WithClock sets the clock used for post timestamps.
func WithClock(c Clock) Option {
	return func(b *Booru) { b.clock = c }
}

// WithIDGenerator sets the generator for the database id.
func WithIDGenerator(g IDGenerator) Option {
	return func(b *Booru) { b.ids = g }
}

func newBooru(opts []Option) *Booru {
	b := &Booru{
		logger: database.NewNopLogger(),
		clock:  RealClock{},
		ids:    UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open opens the SQLite database at path and brings its schema up to date.
// With create a missing database (or an empty one) is initialized.
func Open(path string, create bool, opts ...Option) (*Booru, error) {
	b := newBooru(opts)

	db, err := database.NewSQLiteDatabase(path, create, b.logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := b.attach(db, create); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// New wraps an open backend and brings its schema up to date.
func New(db database.Database, create bool, opts ...Option) (*Booru, error) {
	if db == nil {
		panic("booru: nil database")
	}

	b := newBooru(opts)
	if err := b.attach(db, create); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Booru) attach(db database.Database, create bool) error {
	b.db = db

	if b.schema == nil {
		s, err := migrations.New()
		if err != nil {
			return fmt.Errorf("loading schema: %w", err)
		}
		b.schema = s
		b.closeSchema = s.Close
	}

	if err := b.setup(create); err != nil {
		if b.closeSchema != nil {
			b.closeSchema()
		}
		return err
	}
	return nil
}

// setup creates the schema when allowed and applies pending upgrades, each
// in its own transaction.
func (b *Booru) setup(create bool) error {
	version, err := b.GetConfigInt(ConfigVersion)
	if err != nil {
		if !create {
			return fmt.Errorf("reading schema version: %w", err)
		}
		if version, err = b.createSchema(); err != nil {
			return err
		}
	}

	current := b.schema.CurrentVersion()
	if version > current {
		return fmt.Errorf("database version %d is ahead of binary version %d: %w", version, current, result.InvalidRequest)
	}

	for version < current {
		next, err := b.upgradeSchema(version)
		if err != nil {
			return err
		}
		if next <= version {
			return fmt.Errorf("schema upgrade from version %d left version at %d: %w", version, next, result.ConditionFailed)
		}
		version = next
	}
	return b.schema.CheckVersion(version)
}

func (b *Booru) createSchema() (int64, error) {
	b.logger.Info("creating database schema")

	base, err := b.schema.BaseSchema()
	if err != nil {
		return 0, fmt.Errorf("loading base schema: %w", err)
	}
	if err := b.db.Execute(base); err != nil {
		return 0, fmt.Errorf("creating schema: %w", err)
	}

	if _, err := b.GetConfig(ConfigID); errors.Is(err, result.NotFound) {
		if err := b.SetConfig(ConfigID, b.ids.New()); err != nil {
			return 0, fmt.Errorf("storing database id: %w", err)
		}
	}

	version, err := b.GetConfigInt(ConfigVersion)
	if err != nil {
		return 0, fmt.Errorf("reading schema version after create: %w", err)
	}
	return version, nil
}

func (b *Booru) upgradeSchema(from int64) (int64, error) {
	b.logger.Info("upgrading database schema", "from", from)

	upgrade, err := b.schema.UpgradeSchema(from)
	if err != nil {
		return 0, fmt.Errorf("loading schema upgrade from version %d: %w", from, err)
	}

	tx := database.NewTransactionGuard(b.db)
	defer tx.Rollback()
	if err := tx.Err(); err != nil {
		return 0, fmt.Errorf("upgrading schema from version %d: %w", from, err)
	}

	if err := b.db.Execute(upgrade); err != nil {
		return 0, fmt.Errorf("upgrading schema from version %d: %w", from, err)
	}
	version, err := b.GetConfigInt(ConfigVersion)
	if err != nil {
		return 0, fmt.Errorf("reading schema version after upgrade: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("upgrading schema from version %d: %w", from, err)
	}
	return version, nil
}

// Database returns the backend, for callers that need raw queries or
// transactions spanning several facade calls.
func (b *Booru) Database() database.Database {
	return b.db
}

// Version returns the stored schema version.
func (b *Booru) Version() (int64, error) {
	return b.GetConfigInt(ConfigVersion)
}

// SchemaSQL returns the CREATE statements of all tables and indexes.
func (b *Booru) SchemaSQL() ([]string, error) {
	stmt, err := b.db.Prepare(`SELECT sql FROM sqlite_master
		WHERE type IN ('table', 'index') AND sql IS NOT NULL AND name NOT LIKE 'sqlite_%'
		ORDER BY CASE type WHEN 'table' THEN 0 ELSE 1 END, name`)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	defer stmt.Close()

	var out []string
	for {
		ok, err := stmt.Step(false)
		if err != nil {
			return nil, fmt.Errorf("reading schema: %w", err)
		}
		if !ok {
			return out, nil
		}
		s, err := database.Column[string](stmt, 0)
		if err != nil {
			return nil, fmt.Errorf("reading schema: %w", err)
		}
		out = append(out, s+";")
	}
}

// BackupTo writes a copy of the database to path when the backend supports it.
func (b *Booru) BackupTo(path string) error {
	backup, ok := b.db.(interface{ BackupTo(string) error })
	if !ok {
		return fmt.Errorf("backing up database: %w", result.NotImplemented)
	}
	return backup.BackupTo(path)
}

// Close closes the database.
func (b *Booru) Close() error {
	if b.closeSchema != nil {
		b.closeSchema()
		b.closeSchema = nil
	}
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

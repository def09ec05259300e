// Package migrations supplies the versioned schema of a booru database.
// Version files live in files/ as {version}_{title}.up.sql and each one
// records its version in the Config table under db.version.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// Schema reads schema versions from an fs.FS through golang-migrate's
// source driver.
type Schema struct {
	src      source.Driver
	versions []uint
}

// New returns the Schema embedded in the binary.
func New() (*Schema, error) {
	return NewFromFS(migrationFiles, "files")
}

// NewFromFS returns a Schema reading version files from dir in fsys.
func NewFromFS(fsys fs.FS, dir string) (*Schema, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration files: %w", err)
	}

	versions, err := listVersions(src)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to list migration versions: %w", err)
	}

	return &Schema{src: src, versions: versions}, nil
}

// listVersions returns every version available in the source, ascending.
func listVersions(src source.Driver) ([]uint, error) {
	version, err := src.First()
	if err != nil {
		return nil, err
	}

	versions := []uint{version}
	for {
		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return nil, err
		}
		versions = append(versions, next)
		version = next
	}
	return versions, nil
}

// CurrentVersion returns the highest available version.
func (s *Schema) CurrentVersion() int64 {
	return int64(s.versions[len(s.versions)-1])
}

// BaseSchema returns the DDL of the first version. It is idempotent.
func (s *Schema) BaseSchema() (string, error) {
	return s.read(s.versions[0])
}

// UpgradeSchema returns the DDL that moves a database at version from to
// the next available version.
func (s *Schema) UpgradeSchema(from int64) (string, error) {
	for _, v := range s.versions {
		if int64(v) > from {
			return s.read(v)
		}
	}
	return "", fmt.Errorf("no schema upgrade after version %d: %w", from, fs.ErrNotExist)
}

// CheckVersion verifies that a stored version matches CurrentVersion.
func (s *Schema) CheckVersion(stored int64) error {
	latest := s.CurrentVersion()

	if stored <= 0 {
		return fmt.Errorf("database has no schema version (needs migration)")
	}
	if stored < latest {
		return fmt.Errorf("database is at version %d but latest is %d (%d migrations behind)",
			stored, latest, latest-stored)
	}
	if stored > latest {
		return fmt.Errorf("database version %d is ahead of binary version %d (binary needs update)",
			stored, latest)
	}
	return nil
}

// Close releases the source driver.
func (s *Schema) Close() error {
	return s.src.Close()
}

func (s *Schema) read(version uint) (string, error) {
	r, _, err := s.src.ReadUp(version)
	if err != nil {
		return "", fmt.Errorf("reading schema version %d: %w", version, err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading schema version %d: %w", version, err)
	}
	return string(body), nil
}

package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"booru-go/internal/result"
)

// FileSystemVault is a filesystem-based implementation of the Vault interface.
// It stores each snapshot as a file:
//
//	<root>/
//	  <dbID>/
//	    <version>.snapshot
type FileSystemVault struct {
	root string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	return &FileSystemVault{root: root}, nil
}

// PutSnapshot stores a snapshot, replacing the file in one rename.
func (v *FileSystemVault) PutSnapshot(dbID string, version int64, r io.Reader, size int64) error {
	dir := filepath.Join(v.root, dbID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	counted := &countingReader{r: r}
	if err := atomic.WriteFile(filepath.Join(dir, snapshotName(version)), counted); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if counted.n != size {
		os.Remove(filepath.Join(dir, snapshotName(version)))
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counted.n)
	}
	return nil
}

// GetSnapshot writes a stored snapshot to w.
func (v *FileSystemVault) GetSnapshot(dbID string, version int64, w io.Writer) error {
	f, err := os.Open(filepath.Join(v.root, dbID, snapshotName(version)))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot %d of %s: %w", version, dbID, result.NotFound)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// Versions lists the snapshots stored for dbID.
func (v *FileSystemVault) Versions(dbID string) ([]int64, error) {
	entries, err := os.ReadDir(filepath.Join(v.root, dbID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return parseSnapshotNames(names), nil
}

// ValidateSetup verifies that the vault root is an accessible directory.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Compile-time check that FileSystemVault implements the Vault interface
var _ Vault = (*FileSystemVault)(nil)

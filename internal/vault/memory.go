package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"booru-go/internal/result"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It is useful for testing and is safe for concurrent use.
type MemoryVault struct {
	snapshots map[string]map[int64][]byte // dbID -> version -> blob
	mu        sync.RWMutex
}

// NewMemoryVault creates a new, empty in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{snapshots: make(map[string]map[int64][]byte)}
}

func (m *MemoryVault) PutSnapshot(dbID string, version int64, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshots[dbID] == nil {
		m.snapshots[dbID] = make(map[int64][]byte)
	}
	m.snapshots[dbID][version] = data
	return nil
}

func (m *MemoryVault) GetSnapshot(dbID string, version int64, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[dbID][version]
	if !ok {
		return fmt.Errorf("snapshot %d of %s: %w", version, dbID, result.NotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (m *MemoryVault) Versions(dbID string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.snapshots[dbID]))
	for v := range m.snapshots[dbID] {
		names = append(names, snapshotName(v))
	}
	return parseSnapshotNames(names), nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryVault implements the Vault interface
var _ Vault = (*MemoryVault)(nil)

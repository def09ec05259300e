// Package vault keeps versioned snapshots of booru databases. Snapshots are
// grouped by database id and numbered from 1.
package vault

import (
	"io"
	"sort"
	"strconv"
	"strings"
)

// Vault stores snapshot blobs. Implementations never interpret the bytes
// they are given; encryption happens before a snapshot reaches the vault.
type Vault interface {
	// PutSnapshot stores size bytes read from r as the given version of the
	// database dbID, replacing any snapshot already stored under it.
	PutSnapshot(dbID string, version int64, r io.Reader, size int64) error

	// GetSnapshot writes a stored snapshot to w. Returns an error wrapping
	// result.NotFound if there is no such snapshot.
	GetSnapshot(dbID string, version int64, w io.Writer) error

	// Versions lists the stored versions of dbID in ascending order.
	Versions(dbID string) ([]int64, error)

	// ValidateSetup verifies the vault is reachable.
	ValidateSetup() error
}

// Latest returns the highest stored version of dbID, or 0 when there is none.
func Latest(v Vault, dbID string) (int64, error) {
	versions, err := v.Versions(dbID)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, nil
	}
	return versions[len(versions)-1], nil
}

const snapshotSuffix = ".snapshot"

func snapshotName(version int64) string {
	return strconv.FormatInt(version, 10) + snapshotSuffix
}

// parseSnapshotNames extracts the versions from snapshot object names,
// skipping anything else, and sorts them.
func parseSnapshotNames(names []string) []int64 {
	var versions []int64
	for _, name := range names {
		base, ok := strings.CutSuffix(name, snapshotSuffix)
		if !ok {
			continue
		}
		v, err := strconv.ParseInt(base, 10, 64)
		if err != nil || v <= 0 {
			continue
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

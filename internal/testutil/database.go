package testutil

import (
	"testing"

	"booru-go/internal/booru"
	"booru-go/internal/database"
)

// NewTestDatabase opens an empty in-memory SQLite database that is closed
// when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(database.MemoryPath, true, nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewTestBooru opens an in-memory booru with the current schema, a fixed
// clock and stub ids.
func NewTestBooru(t *testing.T, opts ...booru.Option) *booru.Booru {
	t.Helper()

	opts = append([]booru.Option{
		booru.WithClock(FixedClock()),
		booru.WithIDGenerator(&StubIDGenerator{}),
	}, opts...)

	b, err := booru.New(NewTestDatabase(t), true, opts...)
	if err != nil {
		t.Fatalf("failed to open booru: %v", err)
	}
	return b
}

package query_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"booru-go/internal/query"
	"booru-go/internal/result"
	"booru-go/internal/testutil"
)

func TestQuery_String(t *testing.T) {
	tests := []struct {
		name string
		q    *query.Query
		want string
	}{
		{
			name: "select all",
			q:    query.Select("Tags"),
			want: "SELECT * FROM Tags",
		},
		{
			name: "select columns with key",
			q:    query.Select("Tags").Columns("Id", "Name").Key("Name"),
			want: "SELECT Id, Name FROM Tags WHERE Name == $Name",
		},
		{
			name: "where clauses are joined with AND",
			q:    query.Select("PostTags").Key("PostId").Key("TagId").WhereIn("Id", "1, 2"),
			want: "SELECT * FROM PostTags WHERE PostId == $PostId AND TagId == $TagId AND Id IN (1, 2)",
		},
		{
			name: "select ordered and limited",
			q:    query.Select("Posts").OrderBy("Id DESC").Limit(10),
			want: "SELECT * FROM Posts ORDER BY Id DESC LIMIT 10",
		},
		{
			name: "insert",
			q:    query.Insert("Tags").Columns("Name", "Description"),
			want: "INSERT INTO Tags (Name, Description) VALUES ($Name, $Description)",
		},
		{
			name: "insert without columns",
			q:    query.Insert("Tags"),
			want: "INSERT INTO Tags DEFAULT VALUES",
		},
		{
			name: "upsert",
			q:    query.Upsert("Config").Columns("Name", "Value"),
			want: "INSERT OR REPLACE INTO Config (Name, Value) VALUES ($Name, $Value)",
		},
		{
			name: "update keyed on Id",
			q:    query.Update("Tags").Columns("Name", "Flags").Key("Id"),
			want: "UPDATE Tags SET Name = $Name, Flags = $Flags WHERE Id == $Id",
		},
		{
			name: "delete keyed on Id",
			q:    query.Delete("Tags").Key("Id"),
			want: "DELETE FROM Tags WHERE Id == $Id",
		},
		{
			name: "delete without where is inert",
			q:    query.Delete("Tags"),
			want: query.Unsafe,
		},
		{
			name: "negated subquery membership",
			q: query.Select("Posts").Where(query.Not(
				query.InSelect("Posts.Id", query.Select("PostTags").Column("PostId").Where(query.InList("TagId", []int64{3, 4}))),
			)),
			want: "SELECT * FROM Posts WHERE NOT (Posts.Id IN (SELECT PostId FROM PostTags WHERE TagId IN (3, 4)))",
		},
		{
			name: "empty id list",
			q:    query.Select("Tags").Where(query.InList("Id", nil)),
			want: "SELECT * FROM Tags WHERE Id IN ()",
		},
		{
			name: "compare and raw",
			q:    query.Select("Posts").Where(query.Compare("Score", ">", "10")).Where(query.Raw("Flags & 1 == 0")),
			want: "SELECT * FROM Posts WHERE Score > 10 AND Flags & 1 == 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuery_Prepare(t *testing.T) {
	t.Run("prepares rendered sql", func(t *testing.T) {
		db := testutil.NewFakeDatabase()

		stmt, err := query.Select("Tags").Key("Id").Prepare(db)
		if err != nil {
			t.Fatalf("Prepare() error = %v", err)
		}
		defer stmt.Close()

		if got := stmt.SQL(); got != "SELECT * FROM Tags WHERE Id == $Id" {
			t.Errorf("SQL() = %q", got)
		}
	})

	t.Run("refuses delete without where", func(t *testing.T) {
		logger := &testutil.RecordingLogger{}
		db := testutil.NewFakeDatabase()
		db.Log = logger

		_, err := query.Delete("Tags").Prepare(db)
		if !errors.Is(err, result.InvalidRequest) {
			t.Errorf("Prepare() error = %v, want InvalidRequest", err)
		}
		if len(db.Prepared) != 0 {
			t.Errorf("backend saw %d statements, want 0", len(db.Prepared))
		}
		want := []testutil.LogEntry{{Level: "error", Msg: "refusing DELETE without WHERE clause"}}
		if diff := cmp.Diff(want, logger.Entries); diff != "" {
			t.Errorf("logged entries mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("refusal without a backend logger still fails", func(t *testing.T) {
		_, err := query.Delete("Tags").Prepare(testutil.NewFakeDatabase())
		if !errors.Is(err, result.InvalidRequest) {
			t.Errorf("Prepare() error = %v, want InvalidRequest", err)
		}
	})

	t.Run("refuses update without columns", func(t *testing.T) {
		db := testutil.NewFakeDatabase()

		_, err := query.Update("Tags").Key("Id").Prepare(db)
		if !errors.Is(err, result.InvalidRequest) {
			t.Errorf("Prepare() error = %v, want InvalidRequest", err)
		}
	})
}

func TestKind_String(t *testing.T) {
	if got := query.Upsert("T").Kind().String(); got != "UPSERT" {
		t.Errorf("Kind().String() = %q, want UPSERT", got)
	}
}

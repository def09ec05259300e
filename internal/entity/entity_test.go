package entity_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"booru-go/internal/database"
	"booru-go/internal/entity"
	"booru-go/internal/result"
	"booru-go/internal/testutil"
)

type widget struct {
	entity.Base
	Name   string
	Weight float64
	Hash   [16]byte
	Data   []byte
	Parent sql.Null[int64]
	Count  int64
}

func newWidget(name string) *widget {
	return &widget{Base: entity.NewBase(), Name: name}
}

func (*widget) Table() string { return "Widgets" }

func (w *widget) IterateProperties(v entity.Visitor) error {
	f := entity.Walk(v)
	f.Key("Id", &w.ID)
	f.Field("Name", &w.Name)
	f.Field("Weight", &w.Weight)
	f.Field("Hash", &w.Hash)
	f.Field("Data", &w.Data)
	f.Field("Parent", &w.Parent)
	f.Field("Count", &w.Count)
	return f.Err()
}

func (w *widget) Validate() error {
	if w.Count < 0 {
		return result.InvalidArgument
	}
	return nil
}

const widgetSchema = `
CREATE TABLE Widgets (
	Id     INTEGER PRIMARY KEY NOT NULL,
	Name   TEXT    NOT NULL,
	Weight REAL    NOT NULL DEFAULT 0,
	Hash   BLOB    NOT NULL,
	Data   BLOB,
	Parent INTEGER DEFAULT NULL,
	Count  INTEGER NOT NULL DEFAULT 0,
	UNIQUE (Name)
);`

func newTestDB(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(database.MemoryPath, true, nil)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if err := db.Execute(widgetSchema); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestColumns(t *testing.T) {
	want := []string{"Name", "Weight", "Hash", "Data", "Parent", "Count"}
	if diff := cmp.Diff(want, entity.Columns(newWidget("a"))); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}
}

func TestQueries(t *testing.T) {
	w := newWidget("a")

	wantInsert := "INSERT INTO Widgets (Name, Weight, Hash, Data, Parent, Count) VALUES ($Name, $Weight, $Hash, $Data, $Parent, $Count)"
	if got := entity.InsertQuery(w).String(); got != wantInsert {
		t.Errorf("InsertQuery() = %q, want %q", got, wantInsert)
	}

	wantUpdate := "UPDATE Widgets SET Name = $Name, Weight = $Weight, Hash = $Hash, Data = $Data, Parent = $Parent, Count = $Count WHERE Id == $Id"
	if got := entity.UpdateQuery(w).String(); got != wantUpdate {
		t.Errorf("UpdateQuery() = %q, want %q", got, wantUpdate)
	}
}

func TestString(t *testing.T) {
	w := newWidget("it's")
	w.Weight = 1.5
	w.Hash[0] = 0xab
	w.Count = 3

	want := "Widgets{Id = '-1', Name = 'it''s', Weight = '1.5', Hash = 'ab000000000000000000000000000000', Data = '', Parent = NULL, Count = '3'}"
	if got := entity.String(w); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestStore(t *testing.T) {
	db := testutil.NewFakeDatabase()
	stmt, _ := db.Prepare("INSERT ...")

	w := newWidget("bolt")
	w.Parent = sql.Null[int64]{V: 9, Valid: true}
	w.Data = []byte{1}

	if err := entity.Store(stmt, w); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	want := map[string]any{
		"Id":     int64(-1),
		"Name":   "bolt",
		"Weight": float64(0),
		"Hash":   make([]byte, 16),
		"Data":   []byte{1},
		"Parent": int64(9),
		"Count":  int64(0),
	}
	if diff := cmp.Diff(want, db.Prepared[0].Binds); diff != "" {
		t.Errorf("binds mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	db := testutil.NewFakeDatabase()
	db.Queue(testutil.FakeRows{
		Columns: []string{"Count", "Parent", "Data", "Hash", "Weight", "Name", "Id"},
		Values: [][]any{
			{int64(2), nil, nil, []byte{0xff, 0xee}, 2.5, "nut", int64(7)},
		},
	})
	stmt, _ := db.Prepare("SELECT * FROM Widgets")

	got, err := entity.ExecuteRow[widget](stmt, true)
	if err != nil {
		t.Fatalf("ExecuteRow() error = %v", err)
	}

	want := &widget{Base: entity.Base{ID: 7}, Name: "nut", Weight: 2.5, Count: 2}
	want.Hash[0], want.Hash[1] = 0xff, 0xee
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExecuteRow() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_nullIntoValueField(t *testing.T) {
	db := testutil.NewFakeDatabase()
	db.Queue(testutil.FakeRows{
		Columns: []string{"Id", "Name", "Weight", "Hash", "Data", "Parent", "Count"},
		Values:  [][]any{{int64(1), nil, 0.0, []byte{}, nil, nil, int64(0)}},
	})
	stmt, _ := db.Prepare("SELECT * FROM Widgets")

	_, err := entity.ExecuteRow[widget](stmt, true)
	if !errors.Is(err, result.ValueIsNull) {
		t.Errorf("ExecuteRow() error = %v, want ValueIsNull", err)
	}
}

func TestCRUD(t *testing.T) {
	t.Run("create then get round trips", func(t *testing.T) {
		db := newTestDB(t)

		w := newWidget("gear")
		w.Weight = 3.25
		w.Hash = [16]byte{1, 2, 3}
		w.Data = []byte("payload")
		w.Parent = sql.Null[int64]{V: 4, Valid: true}
		w.Count = 11

		if err := entity.Create(db, w); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if w.ID == entity.InvalidID {
			t.Fatal("Create() did not assign an id")
		}

		got, err := entity.GetByID[widget](db, w.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if diff := cmp.Diff(w, got); diff != "" {
			t.Errorf("GetByID() mismatch (-want +got):\n%s", diff)
		}

		byName, err := entity.Get[widget](db, "Name", "gear")
		if err != nil {
			t.Fatalf("Get(Name) error = %v", err)
		}
		if byName.ID != w.ID {
			t.Errorf("Get(Name).ID = %d, want %d", byName.ID, w.ID)
		}
	})

	t.Run("create rejects persisted entity", func(t *testing.T) {
		db := newTestDB(t)

		w := newWidget("gear")
		w.ID = 5
		if err := entity.Create(db, w); !errors.Is(err, result.InvalidEntityID) {
			t.Errorf("Create() error = %v, want InvalidEntityID", err)
		}
	})

	t.Run("create runs validation", func(t *testing.T) {
		db := newTestDB(t)

		w := newWidget("gear")
		w.Count = -1
		if err := entity.Create(db, w); !errors.Is(err, result.InvalidArgument) {
			t.Errorf("Create() error = %v, want InvalidArgument", err)
		}
		if w.ID != entity.InvalidID {
			t.Errorf("ID = %d after failed create, want %d", w.ID, entity.InvalidID)
		}
	})

	t.Run("duplicate is AlreadyExists", func(t *testing.T) {
		db := newTestDB(t)

		if err := entity.Create(db, newWidget("gear")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		err := entity.Create(db, newWidget("gear"))
		if !errors.Is(err, result.AlreadyExists) {
			t.Errorf("second Create() error = %v, want AlreadyExists", err)
		}

		all, err := entity.GetAll[widget](db)
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if len(all) != 1 {
			t.Errorf("len(GetAll()) = %d, want 1", len(all))
		}
	})

	t.Run("get missing is NotFound", func(t *testing.T) {
		db := newTestDB(t)

		_, err := entity.GetByID[widget](db, 42)
		if !errors.Is(err, result.NotFound) {
			t.Errorf("GetByID() error = %v, want NotFound", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		db := newTestDB(t)

		w := newWidget("gear")
		if err := entity.Update(db, w); !errors.Is(err, result.InvalidEntityID) {
			t.Errorf("Update() on transient error = %v, want InvalidEntityID", err)
		}

		if err := entity.Create(db, w); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		w.Name = "cog"
		w.Parent = sql.Null[int64]{}
		if err := entity.Update(db, w); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, err := entity.GetByID[widget](db, w.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if diff := cmp.Diff(w, got); diff != "" {
			t.Errorf("after Update() mismatch (-want +got):\n%s", diff)
		}

		ghost := newWidget("ghost")
		ghost.ID = 999
		if err := entity.Update(db, ghost); !errors.Is(err, result.NotFound) {
			t.Errorf("Update() of missing row error = %v, want NotFound", err)
		}
	})

	t.Run("delete resets identity", func(t *testing.T) {
		db := newTestDB(t)

		w := newWidget("gear")
		if err := entity.Create(db, w); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		id := w.ID

		if err := entity.Delete(db, w); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if w.ID != entity.InvalidID {
			t.Errorf("ID = %d after Delete(), want %d", w.ID, entity.InvalidID)
		}
		if _, err := entity.GetByID[widget](db, id); !errors.Is(err, result.NotFound) {
			t.Errorf("GetByID() after Delete() error = %v, want NotFound", err)
		}

		if err := entity.Delete(db, w); !errors.Is(err, result.InvalidEntityID) {
			t.Errorf("Delete() of transient error = %v, want InvalidEntityID", err)
		}
		w.ID = id
		if err := entity.Delete(db, w); !errors.Is(err, result.NotFound) {
			t.Errorf("second Delete() error = %v, want NotFound", err)
		}
	})

	t.Run("get all where", func(t *testing.T) {
		db := newTestDB(t)

		for _, name := range []string{"a", "b", "c"} {
			w := newWidget(name)
			if name != "b" {
				w.Count = 1
			}
			if err := entity.Create(db, w); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
		}

		got, err := entity.GetAllWhere[widget](db, "Count", int64(1))
		if err != nil {
			t.Fatalf("GetAllWhere() error = %v", err)
		}
		var names []string
		for _, w := range got {
			names = append(names, w.Name)
		}
		if diff := cmp.Diff([]string{"a", "c"}, names); diff != "" {
			t.Errorf("GetAllWhere() mismatch (-want +got):\n%s", diff)
		}
	})
}

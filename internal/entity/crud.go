package entity

import (
	"fmt"

	"booru-go/internal/database"
	"booru-go/internal/query"
	"booru-go/internal/result"
)

// Validator is implemented by entities with value constraints that are
// checked before Create and Update reach the backend.
type Validator interface {
	Validate() error
}

// Params binds loosely typed values by parameter name.
type Params map[string]any

func (p Params) bind(stmt database.Statement) error {
	for name, v := range p {
		if err := database.BindValue(stmt, name, v); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteRow steps once and loads the row into a new T. Without needRow an
// empty result yields nil.
func ExecuteRow[T any, PT Pointer[T]](stmt database.Statement, needRow bool) (*T, error) {
	ok, err := stmt.Step(needRow)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	v := new(T)
	if err := Load(stmt, PT(v)); err != nil {
		return nil, err
	}
	return v, nil
}

// ExecuteList steps until the end of rows, loading one T per row in row
// order.
func ExecuteList[T any, PT Pointer[T]](stmt database.Statement) ([]*T, error) {
	var out []*T
	for {
		v, err := ExecuteRow[T, PT](stmt, false)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return out, nil
		}
		out = append(out, v)
	}
}

// InsertQuery builds INSERT for e's non-key columns.
func InsertQuery(e Entity) *query.Query {
	return query.Insert(e.Table()).Columns(Columns(e)...)
}

// UpdateQuery builds UPDATE for e's non-key columns keyed on Id.
func UpdateQuery(e Entity) *query.Query {
	return query.Update(e.Table()).Columns(Columns(e)...).Key("Id")
}

func validate(e Entity) error {
	if v, ok := e.(Validator); ok {
		return v.Validate()
	}
	return nil
}

// Create inserts a transient e and stores the generated id in it. The row
// is not read back.
func Create(db database.Database, e Entity) error {
	if e.EntityID() != InvalidID {
		return fmt.Errorf("creating %s with id %d: %w", e.Table(), e.EntityID(), result.InvalidEntityID)
	}
	if err := validate(e); err != nil {
		return fmt.Errorf("creating %s: %w", e.Table(), err)
	}

	stmt, err := InsertQuery(e).Prepare(db)
	if err != nil {
		return fmt.Errorf("creating %s: %w", e.Table(), err)
	}
	defer stmt.Close()

	if err := Store(stmt, e); err != nil {
		return fmt.Errorf("creating %s: %w", e.Table(), err)
	}
	if _, err := stmt.Step(false); err != nil {
		return fmt.Errorf("creating %s: %w", e.Table(), err)
	}

	id, err := db.LastInsertID()
	if err != nil {
		return fmt.Errorf("creating %s: %w", e.Table(), err)
	}
	e.SetEntityID(id)
	return nil
}

// Get returns the single T whose column equals value. No row is NotFound.
func Get[T any, PT Pointer[T]](db database.Database, column string, value any) (*T, error) {
	table := PT(new(T)).Table()

	v, err := Row[T, PT](db, query.Select(table).Key(column).String(), Params{column: value})
	if err != nil {
		return nil, fmt.Errorf("finding %s by %s: %w", table, column, err)
	}
	return v, nil
}

// GetByID returns the T with the given id.
func GetByID[T any, PT Pointer[T]](db database.Database, id int64) (*T, error) {
	return Get[T, PT](db, "Id", id)
}

// GetAll returns every T ordered by id.
func GetAll[T any, PT Pointer[T]](db database.Database) ([]*T, error) {
	table := PT(new(T)).Table()

	list, err := List[T, PT](db, query.Select(table).OrderBy("Id").String(), nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	return list, nil
}

// GetAllWhere returns every T whose column equals value, ordered by id.
func GetAllWhere[T any, PT Pointer[T]](db database.Database, column string, value any) ([]*T, error) {
	table := PT(new(T)).Table()

	list, err := List[T, PT](db, query.Select(table).Key(column).OrderBy("Id").String(), Params{column: value})
	if err != nil {
		return nil, fmt.Errorf("listing %s by %s: %w", table, column, err)
	}
	return list, nil
}

// Row runs sql with params and loads exactly one T. No row is NotFound.
func Row[T any, PT Pointer[T]](db database.Database, sql string, params Params) (*T, error) {
	stmt, err := db.Prepare(sql)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	if err := params.bind(stmt); err != nil {
		return nil, err
	}
	return ExecuteRow[T, PT](stmt, true)
}

// List runs sql with params and loads every row as a T.
func List[T any, PT Pointer[T]](db database.Database, sql string, params Params) ([]*T, error) {
	stmt, err := db.Prepare(sql)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	if err := params.bind(stmt); err != nil {
		return nil, err
	}
	return ExecuteList[T, PT](stmt)
}

// Update rewrites every non-key column of the row with e's id. A missing
// row is NotFound.
func Update(db database.Database, e Entity) error {
	if e.EntityID() == InvalidID {
		return fmt.Errorf("updating %s: %w", e.Table(), result.InvalidEntityID)
	}
	if err := validate(e); err != nil {
		return fmt.Errorf("updating %s: %w", e.Table(), err)
	}

	stmt, err := UpdateQuery(e).Prepare(db)
	if err != nil {
		return fmt.Errorf("updating %s: %w", e.Table(), err)
	}
	defer stmt.Close()

	if err := Store(stmt, e); err != nil {
		return fmt.Errorf("updating %s: %w", e.Table(), err)
	}
	if _, err := stmt.Step(true); err != nil {
		return fmt.Errorf("updating %s %d: %w", e.Table(), e.EntityID(), err)
	}
	return nil
}

// Delete removes the row with e's id and marks e as transient again.
func Delete(db database.Database, e Entity) error {
	if e.EntityID() == InvalidID {
		return fmt.Errorf("deleting %s: %w", e.Table(), result.InvalidEntityID)
	}

	stmt, err := query.Delete(e.Table()).Key("Id").Prepare(db)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", e.Table(), err)
	}
	defer stmt.Close()

	if err := stmt.BindInt("Id", e.EntityID()); err != nil {
		return fmt.Errorf("deleting %s: %w", e.Table(), err)
	}
	if _, err := stmt.Step(true); err != nil {
		return fmt.Errorf("deleting %s %d: %w", e.Table(), e.EntityID(), err)
	}
	e.SetEntityID(InvalidID)
	return nil
}

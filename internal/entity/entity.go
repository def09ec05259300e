// Package entity maps typed records to SQL rows. Each record type declares
// its fields once in IterateProperties; binding, loading, column lists and
// printing are all driven from that declaration.
package entity

// InvalidID marks an entity that is not persisted.
const InvalidID int64 = -1

// Entity is a persisted record. Implementations are pointer types with an
// embedded Base.
type Entity interface {
	// Table names the backing table.
	Table() string
	// IterateProperties calls v once per field in declaration order. The
	// key field is always "Id".
	IterateProperties(v Visitor) error

	EntityID() int64
	SetEntityID(id int64)
}

// Pointer constrains PT to *T implementing Entity, so generic functions can
// allocate a T and use it as an Entity.
type Pointer[T any] interface {
	*T
	Entity
}

// Base carries the primary key shared by every entity.
type Base struct {
	ID int64
}

// NewBase returns a Base that is not yet persisted.
func NewBase() Base { return Base{ID: InvalidID} }

func (b *Base) EntityID() int64      { return b.ID }
func (b *Base) SetEntityID(id int64) { b.ID = id }

// Persisted reports whether the entity has a storage id.
func (b *Base) Persisted() bool { return b.ID != InvalidID }

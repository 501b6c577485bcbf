// Package archetype interns sets of component type ids into archetype
// records, and captures per-component metadata the first time a type is
// used, following spec §3/§4.1.
package archetype

import (
	"reflect"
	"sync"

	"github.com/kilnforge/core/internal/coltable"
)

// Component identifies a data type that can be attached to an entity. It
// is satisfied by Column[T], returned from ComponentFor.
type Component interface {
	TypeID() coltable.TypeID
	ElemType() reflect.Type
}

// Column is the concrete, typed handle for one component type T. It is
// the unit applications use both to declare archetypes (spawn, add,
// remove) and to pull typed slices out of a matched table.
type Column[T any] struct {
	id  coltable.TypeID
	typ reflect.Type
}

// ComponentFor returns the descriptor for T: its stable type id and
// reflect.Type. Both are derived from T on every call; nothing is cached,
// and repeated calls for the same T agree because the id is a hash of the
// type.
func ComponentFor[T any]() Column[T] {
	t := reflect.TypeFor[T]()
	return Column[T]{id: coltable.IDFor(t), typ: t}
}

func (c Column[T]) TypeID() coltable.TypeID { return c.id }
func (c Column[T]) ElemType() reflect.Type  { return c.typ }

// Get returns a pointer to T at row in tbl. Panics if tbl does not carry
// this column — callers are expected to have matched the archetype via a
// query first.
func (c Column[T]) Get(tbl *coltable.Table, row int) *T {
	col := tbl.ColumnIndex(c.id)
	return &coltable.ColumnAs[T](tbl, col)[row]
}

// Has reports whether tbl carries this component.
func (c Column[T]) Has(tbl *coltable.Table) bool {
	return tbl.Contains(c.id)
}

// Registry assigns a stable bit index to every component type the first
// time it is registered, so archetype signatures can be represented as a
// bitmask.
type Registry struct {
	mu     sync.Mutex
	bitFor map[coltable.TypeID]uint32
	metaOf map[coltable.TypeID]reflect.Type
	next   uint32
}

// NewRegistry returns an empty component registry.
func NewRegistry() *Registry {
	return &Registry{
		bitFor: make(map[coltable.TypeID]uint32),
		metaOf: make(map[coltable.TypeID]reflect.Type),
	}
}

// Register assigns c a bit index if it doesn't have one yet and returns
// it either way.
func (r *Registry) Register(c Component) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bit, ok := r.bitFor[c.TypeID()]; ok {
		return bit
	}
	bit := r.next
	r.next++
	r.bitFor[c.TypeID()] = bit
	r.metaOf[c.TypeID()] = c.ElemType()
	return bit
}

// BitFor returns the bit index for an already-registered type id, or
// (0, false) if it has never been registered.
func (r *Registry) BitFor(id coltable.TypeID) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bit, ok := r.bitFor[id]
	return bit, ok
}

// TypeOf returns the reflect.Type registered for id, if any.
func (r *Registry) TypeOf(id coltable.TypeID) (reflect.Type, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.metaOf[id]
	return t, ok
}

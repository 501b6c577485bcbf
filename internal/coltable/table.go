// Package coltable implements the columnar row storage that backs one
// archetype: one reflect-driven column per component type, plus an entity
// column and, per spec, a per-row (added, changed) tick pair *per
// component column*. It exists because Table/column mechanics are
// explicitly part of this module's core scope (unlike the allocator or
// asset-importer trait boundaries), so it is owned here rather than
// delegated to an external columnar-store library.
//
// Table itself holds no lock: the scheduler's access-descriptor conflict
// rule guarantees two systems that could race on the same table's column
// never run concurrently, so structural edits (AppendRow, SwapRemove,
// TransferRow) are only ever called from a single goroutine at a time for
// a given table. Callers outside the scheduler (tests, synchronous
// command-buffer flush) must honor the same discipline.
package coltable

import (
	"fmt"
	"hash/fnv"
	"reflect"
)

// TypeID is a stable hash of a component type, computed by IDFor from the
// type's package import path plus its reflect type string, not from a
// process-local counter, so same-named types from different packages get
// different ids.
type TypeID uint64

// IDFor derives the TypeID for a reflect.Type.
func IDFor(t reflect.Type) TypeID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.PkgPath() + "." + t.String()))
	return TypeID(h.Sum64())
}

// Ticks records the world tick at which one component column's value was
// added to a row and the tick at which it was last written.
type Ticks struct {
	Added, Changed uint32
}

// ColumnSpec names one component column a Table should carry.
type ColumnSpec struct {
	ID   TypeID
	Type reflect.Type
}

// Table is the columnar storage for one archetype: one data column plus
// one tick column per component, an entity column, all kept the same
// length.
type Table struct {
	ids     []TypeID
	index   map[TypeID]int
	columns []reflect.Value // each a reflect.Value wrapping []ComponentType
	ticks   [][]Ticks       // ticks[col][row]

	entities []uint64 // packed Entity handle per row
}

// New builds an empty Table with one column per spec, in the given order.
func New(specs []ColumnSpec) *Table {
	t := &Table{
		ids:   make([]TypeID, len(specs)),
		index: make(map[TypeID]int, len(specs)),
	}
	t.columns = make([]reflect.Value, len(specs))
	t.ticks = make([][]Ticks, len(specs))
	for i, spec := range specs {
		t.ids[i] = spec.ID
		t.index[spec.ID] = i
		t.columns[i] = reflect.MakeSlice(reflect.SliceOf(spec.Type), 0, 0)
	}
	return t
}

// Len reports the current row count. All columns, the entity column, and
// every tick column always have exactly this many elements (invariant
// from spec §3: "All columns in a table have the same row count").
func (t *Table) Len() int {
	return len(t.entities)
}

// IDs returns the archetype's component type-id set, in column order.
func (t *Table) IDs() []TypeID {
	return t.ids
}

// ColumnIndex returns the column index for a component type id, or -1 if
// this table does not carry that component.
func (t *Table) ColumnIndex(id TypeID) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	return -1
}

// Contains reports whether this table's archetype includes id.
func (t *Table) Contains(id TypeID) bool {
	_, ok := t.index[id]
	return ok
}

// EntityAt returns the packed entity handle stored at row.
func (t *Table) EntityAt(row int) uint64 {
	return t.entities[row]
}

// TicksAt returns a pointer to the (added, changed) pair for column i at
// row, letting callers bump Changed in place on write without a separate
// Set call.
func (t *Table) TicksAt(i, row int) *Ticks {
	return &t.ticks[i][row]
}

// Column returns the raw reflect.Value backing column i; callers use
// ColumnAs[T] for typed access.
func (t *Table) Column(i int) reflect.Value {
	return t.columns[i]
}

// ColumnAs returns column i as a typed Go slice sharing the table's
// backing array. Mutating elements through the returned slice is visible
// to subsequent reads; appending to it is not — only AppendRow grows a
// column, so the returned slice must not be reassigned by the caller.
func ColumnAs[T any](t *Table, i int) []T {
	return t.columns[i].Interface().([]T)
}

// AppendRow appends one row, moving each value (in column order) into its
// column and stamping (added, changed) = tick on every column, and
// records the entity handle. values must have the same length and order
// as the Table's columns.
func (t *Table) AppendRow(entity uint64, tick uint32, values []any) (row int, err error) {
	if len(values) != len(t.columns) {
		return 0, fmt.Errorf("coltable: expected %d column values, got %d", len(t.columns), len(values))
	}
	for i, v := range values {
		rv := reflect.ValueOf(v)
		want := t.columns[i].Type().Elem()
		if !rv.IsValid() {
			rv = reflect.Zero(want)
		}
		if !rv.Type().AssignableTo(want) {
			return 0, fmt.Errorf("coltable: value %d has type %s, column wants %s", i, rv.Type(), want)
		}
		t.columns[i] = reflect.Append(t.columns[i], rv)
		t.ticks[i] = append(t.ticks[i], Ticks{Added: tick, Changed: tick})
	}
	t.entities = append(t.entities, entity)
	return len(t.entities) - 1, nil
}

// SwapRemove removes row by moving the last row into its place (per spec
// §3's swap-remove contract), preserving every column's tick values on
// the moved row byte-for-byte. It reports the entity handle that used to
// own the last row so the caller (the archetype/world) can repoint that
// entity's row index; moved == false when row was already last (nothing
// else needs repointing).
func (t *Table) SwapRemove(row int) (movedEntity uint64, moved bool) {
	last := len(t.entities) - 1
	if row < 0 || row > last {
		return 0, false
	}
	if row != last {
		for i := range t.columns {
			t.columns[i].Index(row).Set(t.columns[i].Index(last))
			t.ticks[i][row] = t.ticks[i][last]
		}
		t.entities[row] = t.entities[last]
		movedEntity = t.entities[row]
		moved = true
	}
	for i := range t.columns {
		t.columns[i].Index(last).Set(reflect.Zero(t.columns[i].Type().Elem()))
		t.columns[i] = t.columns[i].Slice(0, last)
		t.ticks[i] = t.ticks[i][:last]
	}
	t.entities = t.entities[:last]
	return movedEntity, moved
}

// TransferRow moves row from t into dst, copying every column dst shares
// with t (ticks preserved byte-for-byte per spec §4.1) and filling any
// column dst carries that t does not from newValues, keyed by TypeID,
// stamping that column's ticks fresh at tick. It then swap-removes row
// from t. It returns the destination row index, and whether another
// entity's row moved in t as a side effect of the swap-remove (same
// contract as SwapRemove).
func (t *Table) TransferRow(dst *Table, row int, newValues map[TypeID]any, tick uint32) (dstRow int, movedEntity uint64, moved bool, err error) {
	entity := t.entities[row]

	values := make([]any, len(dst.columns))
	carried := make([]bool, len(dst.columns))
	var srcCols []int = make([]int, len(dst.columns))
	for i, id := range dst.ids {
		srcCols[i] = -1
		if srcCol, ok := t.index[id]; ok {
			values[i] = t.columns[srcCol].Index(row).Interface()
			carried[i] = true
			srcCols[i] = srcCol
		} else if v, ok := newValues[id]; ok {
			values[i] = v
		} else {
			values[i] = reflect.Zero(dst.columns[i].Type().Elem()).Interface()
		}
	}
	dstRow, err = dst.AppendRow(entity, tick, values)
	if err != nil {
		return 0, 0, false, err
	}
	// AppendRow stamped every column fresh at `tick`; fix up the columns
	// that were actually carried over so their ticks transfer unchanged.
	for i := range dst.ids {
		if carried[i] {
			*dst.TicksAt(i, dstRow) = *t.TicksAt(srcCols[i], row)
		}
	}

	movedEntity, moved = t.SwapRemove(row)
	return dstRow, movedEntity, moved, nil
}

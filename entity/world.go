package entity

import (
	"reflect"

	"github.com/TheBitDrifter/bark"
	"github.com/kilnforge/core/archetype"
	"github.com/kilnforge/core/internal/coltable"
)

// World is the entity store: it owns the generational allocator, the
// archetype graph, and the current world tick (spec §3, §4.1).
type World struct {
	registry   *archetype.Registry
	graph      *archetype.Graph
	alloc      *allocator
	byID       []*archetype.Archetype // indexed by archetype.ID - 1
	currentTick uint32
}

// NewWorld returns an empty World.
func NewWorld() *World {
	reg := archetype.NewRegistry()
	return &World{
		registry: reg,
		graph:    archetype.NewGraph(reg),
		alloc:    newAllocator(),
	}
}

// CurrentTick returns the world's monotonically increasing clock.
func (w *World) CurrentTick() uint32 { return w.currentTick }

// AdvanceTick bumps the world clock by one, called once per scheduler
// update (spec §4.9 step 8).
func (w *World) AdvanceTick() uint32 {
	w.currentTick++
	return w.currentTick
}

// Graph exposes the archetype graph, e.g. for queries to enumerate
// archetypes.
func (w *World) Graph() *archetype.Graph { return w.graph }

// Registry exposes the component registry so queries can translate
// components into signature bits.
func (w *World) Registry() *archetype.Registry { return w.registry }

func (w *World) rememberArchetype(a *archetype.Archetype) {
	for len(w.byID) < int(a.ID()) {
		w.byID = append(w.byID, nil)
	}
	w.byID[a.ID()-1] = a
}

func (w *World) archetypeByID(id uint32) *archetype.Archetype {
	if id == 0 || int(id) > len(w.byID) {
		return nil
	}
	return w.byID[id-1]
}

// Spawn creates one new entity carrying the given components, appending
// its row to the archetype's table in a single pass (spec §4.1).
func (w *World) Spawn(components ...archetype.Component) Entity {
	a := w.graph.Intern(components...)
	w.rememberArchetype(a)
	values := make([]any, len(a.IDs()))
	byID := make(map[coltable.TypeID]any, len(components))
	for _, c := range components {
		byID[c.TypeID()] = zeroOrValue(c)
	}
	for i, id := range a.IDs() {
		values[i] = byID[id]
	}
	e := w.alloc.alloc(uint32(a.ID()), 0) // row fixed up below
	row, err := a.Table.AppendRow(uint64(e), w.currentTick, values)
	if err != nil {
		panic(bark.AddTrace(err))
	}
	w.alloc.relocate(e.Index(), uint32(a.ID()), row)
	return e
}

// zeroOrValue extracts a concrete value to store for a Component built
// via archetype.ComponentFor[T](); spawning with a bare descriptor (no
// value attached) stores T's zero value, matching Go's usual
// zero-value-by-default idiom.
func zeroOrValue(c archetype.Component) any {
	if vc, ok := c.(valueCarrier); ok {
		return vc.Value()
	}
	return zeroOf(c.ElemType())
}

// valueCarrier is implemented by component descriptors that were given a
// concrete value to spawn with (see WithValue).
type valueCarrier interface {
	Value() any
}

// SpawnWith creates one entity from component/value pairs built with
// WithValue, so spawn can seed non-zero initial state in one call.
func (w *World) SpawnWith(values ...WithValue) Entity {
	components := make([]archetype.Component, len(values))
	for i, v := range values {
		components[i] = v
	}
	return w.Spawn(components...)
}

// WithValue pairs a component descriptor with a concrete initial value
// for Spawn/SpawnWith.
type WithValue struct {
	archetype.Component
	value any
}

func (w WithValue) Value() any { return w.value }

// Attach builds a WithValue pair for spawning component c with v as its
// initial state.
func Attach[T any](c archetype.Column[T], v T) WithValue {
	return WithValue{Component: c, value: v}
}

// IsAlive reports whether e refers to a currently live entity with a
// matching generation.
func (w *World) IsAlive(e Entity) bool { return w.alloc.valid(e) }

// EntityCount returns the number of currently alive entities.
func (w *World) EntityCount() int { return w.alloc.aliveCount() }

// Flags returns e's current flags from its slot, not from whatever bits
// e's own copy happens to carry — use this rather than e.EntityFlags()
// to observe a flag another caller may have changed since e was handed
// out. Returns 0 for a dead or stale handle.
func (w *World) Flags(e Entity) Flags {
	f, _ := w.alloc.flagsOf(e)
	return f
}

// SetDisabled sets or clears FlagDisabled on e's slot. Returns
// StaleHandleError if e is not currently alive.
func (w *World) SetDisabled(e Entity, disabled bool) error {
	if !w.alloc.setDisabled(e, disabled) {
		return StaleHandleError{Entity: e}
	}
	return nil
}

// Despawn removes e from storage, swap-removing its row and bumping its
// slot's generation so stale copies are rejected thereafter (spec §4.1).
// Despawning an already-dead handle is a no-op (spec §7).
func (w *World) Despawn(e Entity) error {
	archID, row, ok := w.alloc.locate(e)
	if !ok {
		return nil
	}
	a := w.archetypeByID(archID)
	movedEntity, moved := a.Table.SwapRemove(row)
	w.alloc.release(e.Index())
	if moved {
		movedHandle := Entity(movedEntity)
		w.alloc.relocate(movedHandle.Index(), archID, row)
	}
	return nil
}

// location resolves e's archetype and row, returning StaleHandleError if e
// is not currently alive.
func (w *World) location(e Entity) (*archetype.Archetype, int, error) {
	archID, row, ok := w.alloc.locate(e)
	if !ok {
		return nil, 0, StaleHandleError{Entity: e}
	}
	return w.archetypeByID(archID), row, nil
}

// HasComponent reports whether e currently carries component c.
func (w *World) HasComponent(e Entity, c archetype.Component) bool {
	a, _, err := w.location(e)
	if err != nil {
		return false
	}
	return a.Table.Contains(c.TypeID())
}

// GetComponent returns a pointer to T on e, or nil if e is dead or does
// not carry T.
func GetComponent[T any](w *World, e Entity, c archetype.Column[T]) *T {
	a, row, err := w.location(e)
	if err != nil {
		return nil
	}
	col := a.Table.ColumnIndex(c.TypeID())
	if col < 0 {
		return nil
	}
	return &coltable.ColumnAs[T](a.Table, col)[row]
}

// SetComponent overwrites T on e and bumps its changed tick. Returns
// StaleHandleError if e is dead, ComponentNotFoundError if e lacks T.
func SetComponent[T any](w *World, e Entity, c archetype.Column[T], v T) error {
	a, row, err := w.location(e)
	if err != nil {
		return err
	}
	col := a.Table.ColumnIndex(c.TypeID())
	if col < 0 {
		return ComponentNotFoundError{TypeID: c.TypeID()}
	}
	coltable.ColumnAs[T](a.Table, col)[row] = v
	a.Table.TicksAt(col, row).Changed = w.currentTick
	return nil
}

// AddComponent moves e to the archetype that also carries T, set to v.
// If e already has T this behaves as SetComponent (spec §4.1: "Add on an
// entity that already has T → behaves as set").
func AddComponent[T any](w *World, e Entity, c archetype.Column[T], v T) error {
	a, row, err := w.location(e)
	if err != nil {
		return err
	}
	if a.Table.Contains(c.TypeID()) {
		return SetComponent(w, e, c, v)
	}
	dst := w.graph.TransitionAdd(a, c)
	w.rememberArchetype(dst)
	dstRow, movedEntity, moved, err := a.Table.TransferRow(dst.Table, row, map[coltable.TypeID]any{
		c.TypeID(): v,
	}, w.currentTick)
	if err != nil {
		return err
	}
	if moved {
		mh := Entity(movedEntity)
		w.alloc.relocate(mh.Index(), uint32(a.ID()), row)
	}
	w.alloc.relocate(e.Index(), uint32(dst.ID()), dstRow)
	return nil
}

// RemoveComponent moves e to the archetype without T. Removing an absent
// component is a no-op (spec §4.1).
func RemoveComponent[T any](w *World, e Entity, c archetype.Column[T]) error {
	a, row, err := w.location(e)
	if err != nil {
		return err
	}
	if !a.Table.Contains(c.TypeID()) {
		return nil
	}
	dst := w.graph.TransitionRemove(a, c.TypeID())
	w.rememberArchetype(dst)
	dstRow, movedEntity, moved, err := a.Table.TransferRow(dst.Table, row, nil, w.currentTick)
	if err != nil {
		return err
	}
	if moved {
		mh := Entity(movedEntity)
		w.alloc.relocate(mh.Index(), uint32(a.ID()), row)
	}
	w.alloc.relocate(e.Index(), uint32(dst.ID()), dstRow)
	return nil
}

// ForEachComponentType calls fn with every component type id currently on
// e, in archetype column order.
func (w *World) ForEachComponentType(e Entity, fn func(coltable.TypeID)) {
	a, _, err := w.location(e)
	if err != nil {
		return
	}
	for _, id := range a.IDs() {
		fn(id)
	}
}

func zeroOf(t reflect.Type) any {
	return reflect.Zero(t).Interface()
}

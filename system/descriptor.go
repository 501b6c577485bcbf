package system

import (
	"github.com/kilnforge/core/entity"
	"github.com/kilnforge/core/query"
)

// Context is handed to a system's Exec function: scoped access to the
// world, this worker's deferred command buffer, shared resources, and
// the current tick (spec §4.3, §6.4).
type Context struct {
	World       *entity.World
	Resources   *Resources
	Commands    *CommandBuffer
	Tick        uint32
	WorkerIndex int
}

// Exec is a system's executor body.
type Exec func(ctx *Context) error

// Descriptor bundles a query, an access descriptor, and an executor
// (spec §4.3).
type Descriptor struct {
	Name    string
	Query   query.Descriptor
	Access  AccessDescriptor
	Exec    Exec
	Enabled bool
}

// ID is a generational index into a Registry, identifying a registered
// system (spec §4.3).
type ID struct {
	index      uint32
	generation uint32
}

type systemSlot struct {
	generation uint32
	alive      bool
	desc       Descriptor
}

// Registry stores registered systems by generational ID and preserves
// registration order, which the scheduler's DAG-edge rule depends on
// (spec §4.9: "For every ordered pair (A, B) where B was registered
// after A... add an edge A→B").
type Registry struct {
	slots []systemSlot
	free  []uint32
	order []ID
}

// NewRegistry returns an empty system registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds d, returning its stable ID.
func (r *Registry) Register(d Descriptor) ID {
	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.slots))
		r.slots = append(r.slots, systemSlot{})
	}
	s := &r.slots[index]
	s.alive = true
	s.desc = d
	id := ID{index: index, generation: s.generation}
	r.order = append(r.order, id)
	return id
}

// Remove retires id; the scheduler must rebuild its DAG afterward.
func (r *Registry) Remove(id ID) {
	if !r.valid(id) {
		return
	}
	s := &r.slots[id.index]
	s.alive = false
	s.generation++
	r.free = append(r.free, id.index)
}

// SetEnabled toggles id's enabled flag without removing it from the
// registry (spec §4.3's "enabled flag").
func (r *Registry) SetEnabled(id ID, enabled bool) {
	if !r.valid(id) {
		return
	}
	r.slots[id.index].desc.Enabled = enabled
}

func (r *Registry) valid(id ID) bool {
	return int(id.index) < len(r.slots) && r.slots[id.index].alive && r.slots[id.index].generation == id.generation
}

// Get returns id's descriptor, or false if id is stale.
func (r *Registry) Get(id ID) (Descriptor, bool) {
	if !r.valid(id) {
		return Descriptor{}, false
	}
	return r.slots[id.index].desc, true
}

// Entry pairs an ID with its descriptor, as returned by EnabledInOrder.
type Entry struct {
	ID   ID
	Desc Descriptor
}

// EnabledInOrder returns every currently enabled, non-removed system in
// the order it was registered — the ordering the DAG edge rule uses.
func (r *Registry) EnabledInOrder() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		if !r.valid(id) {
			continue
		}
		d := r.slots[id.index].desc
		if !d.Enabled {
			continue
		}
		out = append(out, Entry{ID: id, Desc: d})
	}
	return out
}

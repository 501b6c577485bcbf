package archetype

import (
	"sort"
	"sync"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/kilnforge/core/internal/coltable"
)

// ID identifies an interned archetype record. Archetypes are created on
// demand and never destroyed for the process lifetime (spec §3).
type ID uint32

// Archetype is the canonical record for one sorted set of component type
// ids: it owns the backing Table and a cache of add/remove transition
// edges so the hot path costs O(columns), not a hash lookup per step
// after the first (spec §4.1).
type Archetype struct {
	id    ID
	ids   []coltable.TypeID // sorted
	sig   mask.Mask
	Table *coltable.Table

	mu        sync.Mutex
	addEdges  map[coltable.TypeID]*Archetype
	remEdges  map[coltable.TypeID]*Archetype
}

// ID returns the archetype's stable identifier.
func (a *Archetype) ID() ID { return a.id }

// IDs returns the sorted component type-id set this archetype holds.
func (a *Archetype) IDs() []coltable.TypeID { return a.ids }

// Signature returns the archetype's bitmask over registered component
// bits, used by queries to test required/excluded/optional sets.
func (a *Archetype) Signature() mask.Mask { return a.sig }

// edgeAdd looks up (or lazily computes, via build) the archetype reached
// by adding component id to this one.
func (a *Archetype) edgeAdd(id coltable.TypeID, build func() *Archetype) *Archetype {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.addEdges == nil {
		a.addEdges = make(map[coltable.TypeID]*Archetype)
	}
	if next, ok := a.addEdges[id]; ok {
		return next
	}
	next := build()
	a.addEdges[id] = next
	return next
}

// edgeRemove looks up (or lazily computes) the archetype reached by
// removing component id from this one.
func (a *Archetype) edgeRemove(id coltable.TypeID, build func() *Archetype) *Archetype {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.remEdges == nil {
		a.remEdges = make(map[coltable.TypeID]*Archetype)
	}
	if next, ok := a.remEdges[id]; ok {
		return next
	}
	next := build()
	a.remEdges[id] = next
	return next
}

// Graph interns archetypes by component-id set: two sets with the same
// ids always map to the same Archetype record.
type Graph struct {
	reg *Registry

	mu      sync.RWMutex
	byMask  map[mask.Mask]*Archetype
	all     []*Archetype
	nextID  ID
}

// NewGraph returns an empty archetype graph backed by reg for bit
// assignment.
func NewGraph(reg *Registry) *Graph {
	return &Graph{
		reg:    reg,
		byMask: make(map[mask.Mask]*Archetype),
		nextID: 1,
	}
}

func signatureFor(reg *Registry, ids []coltable.TypeID) mask.Mask {
	var sig mask.Mask
	for _, id := range ids {
		bit, ok := reg.BitFor(id)
		if !ok {
			panic(bark.AddTrace(errUnregisteredComponent{id}))
		}
		sig.Mark(bit)
	}
	return sig
}

type errUnregisteredComponent struct{ id coltable.TypeID }

func (e errUnregisteredComponent) Error() string {
	return "archetype: component type used before registration"
}

func sortedIDs(components []Component) []coltable.TypeID {
	ids := make([]coltable.TypeID, len(components))
	for i, c := range components {
		ids[i] = c.TypeID()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Intern returns the archetype for the given component set, creating it
// (and the backing table) if this is the first time that set has been
// seen. Components are registered into the graph's Registry as a side
// effect.
func (g *Graph) Intern(components ...Component) *Archetype {
	for _, c := range components {
		g.reg.Register(c)
	}
	ids := sortedIDs(components)
	sig := signatureFor(g.reg, ids)

	g.mu.RLock()
	if a, ok := g.byMask[sig]; ok {
		g.mu.RUnlock()
		return a
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if a, ok := g.byMask[sig]; ok {
		return a
	}
	specs := make([]coltable.ColumnSpec, len(components))
	// components may not be sorted; reorder to match ids.
	byID := make(map[coltable.TypeID]Component, len(components))
	for _, c := range components {
		byID[c.TypeID()] = c
	}
	for i, id := range ids {
		specs[i] = coltable.ColumnSpec{ID: id, Type: byID[id].ElemType()}
	}
	a := &Archetype{
		id:    g.nextID,
		ids:   ids,
		sig:   sig,
		Table: coltable.New(specs),
	}
	g.byMask[sig] = a
	g.all = append(g.all, a)
	g.nextID++
	return a
}

// internIDs is like Intern but for callers that already know the type ids
// and can resolve their reflect types via elemOf (used by the add/remove
// transition edges, which only ever deal with already-seen types).
func (g *Graph) internIDs(ids []coltable.TypeID, elemOf func(coltable.TypeID) coltable.ColumnSpec) *Archetype {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	sig := signatureFor(g.reg, ids)

	g.mu.Lock()
	defer g.mu.Unlock()
	if a, ok := g.byMask[sig]; ok {
		return a
	}
	specs := make([]coltable.ColumnSpec, len(ids))
	for i, id := range ids {
		specs[i] = elemOf(id)
	}
	a := &Archetype{
		id:    g.nextID,
		ids:   ids,
		sig:   sig,
		Table: coltable.New(specs),
	}
	g.byMask[sig] = a
	g.all = append(g.all, a)
	g.nextID++
	return a
}

// TransitionAdd returns the archetype reached from src by adding
// component c, using (and populating) src's edge cache.
func (g *Graph) TransitionAdd(src *Archetype, c Component) *Archetype {
	g.reg.Register(c)
	return src.edgeAdd(c.TypeID(), func() *Archetype {
		ids := append(append([]coltable.TypeID{}, src.ids...), c.TypeID())
		return g.internIDs(ids, func(id coltable.TypeID) coltable.ColumnSpec {
			if id == c.TypeID() {
				return coltable.ColumnSpec{ID: id, Type: c.ElemType()}
			}
			t, _ := g.reg.TypeOf(id)
			return coltable.ColumnSpec{ID: id, Type: t}
		})
	})
}

// TransitionRemove returns the archetype reached from src by removing
// component id, using (and populating) src's edge cache.
func (g *Graph) TransitionRemove(src *Archetype, id coltable.TypeID) *Archetype {
	return src.edgeRemove(id, func() *Archetype {
		ids := make([]coltable.TypeID, 0, len(src.ids))
		for _, existing := range src.ids {
			if existing != id {
				ids = append(ids, existing)
			}
		}
		return g.internIDs(ids, func(id coltable.TypeID) coltable.ColumnSpec {
			t, _ := g.reg.TypeOf(id)
			return coltable.ColumnSpec{ID: id, Type: t}
		})
	})
}

// All returns every interned archetype, in creation order.
func (g *Graph) All() []*Archetype {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Archetype, len(g.all))
	copy(out, g.all)
	return out
}

// Empty returns (creating if necessary) the archetype with no
// components — the destination of removing an entity's last component.
func (g *Graph) Empty() *Archetype {
	return g.internIDs(nil, func(coltable.TypeID) coltable.ColumnSpec { return coltable.ColumnSpec{} })
}

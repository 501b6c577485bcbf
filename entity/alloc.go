package entity

// slot tracks liveness and generation for one index in the entity
// allocator, plus where that entity currently lives (which archetype
// table and row) so the world can resolve a handle to storage in O(1).
type slot struct {
	generation uint32
	alive      bool
	archetype  uint32 // archetype.ID; valid only while alive
	row        int
	flags      Flags
}

// allocator hands out generational indices, keeping a free list of
// retired slots so despawn+spawn churn doesn't grow the slot table
// without bound (spec §3: "entity allocator keeps a free list of retired
// indices and a generation per slot").
type allocator struct {
	slots []slot
	free  []uint32
}

func newAllocator() *allocator {
	return &allocator{}
}

// alloc reserves a slot, preferring a retired index from the free list so
// generation is bumped rather than growing the table, and returns the
// fresh handle.
func (a *allocator) alloc(archetypeID uint32, row int) Entity {
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}
	s := &a.slots[index]
	s.alive = true
	s.archetype = archetypeID
	s.row = row
	s.flags = FlagAlive
	return pack(index, s.generation, s.flags)
}

// release retires index's slot, bumping its generation so any handle copy
// still referencing the old generation is detected as stale.
func (a *allocator) release(index uint32) {
	s := &a.slots[index]
	s.alive = false
	s.generation++
	s.flags = 0
	a.free = append(a.free, index)
}

// flagsOf returns the slot's live flags, the canonical value for e's
// index regardless of what flags e's own copy happens to carry.
func (a *allocator) flagsOf(e Entity) (Flags, bool) {
	if !a.valid(e) {
		return 0, false
	}
	return a.slots[e.Index()].flags, true
}

// setDisabled flips FlagDisabled on or off for e's slot.
func (a *allocator) setDisabled(e Entity, disabled bool) bool {
	if !a.valid(e) {
		return false
	}
	s := &a.slots[e.Index()]
	if disabled {
		s.flags |= FlagDisabled
	} else {
		s.flags &^= FlagDisabled
	}
	return true
}

// valid reports whether e refers to a currently alive slot with a
// matching generation — the sole definition of "not stale" (spec §3:
// "a handle with generation < slot generation is stale and rejected").
func (a *allocator) valid(e Entity) bool {
	idx := e.Index()
	if int(idx) >= len(a.slots) {
		return false
	}
	s := &a.slots[idx]
	return s.alive && s.generation == e.Generation()
}

// locate returns the current (archetype, row) for a valid handle.
func (a *allocator) locate(e Entity) (archetypeID uint32, row int, ok bool) {
	if !a.valid(e) {
		return 0, 0, false
	}
	s := &a.slots[e.Index()]
	return s.archetype, s.row, true
}

// relocate updates the stored location for an already-valid index, used
// after a structural edit moves the entity's row (add/remove component)
// or after a swap-remove moves a different entity into a vacated row.
func (a *allocator) relocate(index uint32, archetypeID uint32, row int) {
	s := &a.slots[index]
	s.archetype = archetypeID
	s.row = row
}

// aliveCount returns the number of currently alive slots.
func (a *allocator) aliveCount() int {
	return len(a.slots) - len(a.free)
}
